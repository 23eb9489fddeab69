package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Version is the API version reported by the health endpoint.
const Version = "1.0.0"

// RouterConfig contains everything the router needs to assemble the API.
type RouterConfig struct {
	UserHandler      *UserHandler
	BookHandler      *BookHandler
	BorrowHandler    *BorrowHandler
	AnalyticsHandler *AnalyticsHandler

	// GraphQL is mounted at /graphql when set, behind the same
	// authentication middleware as the REST routes.
	GraphQL http.Handler

	AuthMiddleware func(http.Handler) http.Handler
	Middlewares    []func(http.Handler) http.Handler
	Logger         zerolog.Logger
}

// NewRouter assembles the chi router for the whole API surface.
//
// Authentication is resolved once here; authorization happens inside
// the services, so every route is mounted without per-route guards.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	for _, mw := range cfg.Middlewares {
		r.Use(mw)
	}
	r.Use(cfg.AuthMiddleware)

	r.Get("/health", handleHealth)

	if cfg.GraphQL != nil {
		r.Handle("/graphql", cfg.GraphQL)
	}

	r.Route("/api", func(api chi.Router) {
		cfg.UserHandler.RegisterRoutes(api)
		cfg.BookHandler.RegisterRoutes(api)
		cfg.BorrowHandler.RegisterRoutes(api)
		cfg.AnalyticsHandler.RegisterRoutes(api)
	})

	return r
}

type healthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Message:   "Biblio API is running",
		Timestamp: time.Now().UTC(),
		Version:   Version,
	})
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// pageParams extracts page/limit query parameters and derives the
// offset. Limits mirror the service-side clamps so the reported page
// math stays consistent.
func pageParams(r *http.Request) (page, limit, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

// idParam parses a numeric URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errInvalidID(name)
	}
	return id, nil
}
