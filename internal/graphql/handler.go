package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
)

// Handler serves GraphQL requests over HTTP. It expects the caller to
// already be resolved by the authentication middleware; access control
// happens inside the services each resolver delegates to.
type Handler struct {
	schema graphql.Schema
	logger zerolog.Logger
}

// NewHandler builds the schema and returns the HTTP handler for it.
func NewHandler(svcs Services, logger zerolog.Logger) (*Handler, error) {
	schema, err := NewSchema(svcs, logger)
	if err != nil {
		return nil, err
	}
	return &Handler{
		schema: schema,
		logger: logger.With().Str("component", "graphql").Logger(),
	}, nil
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        r.Context(),
	})

	if len(result.Errors) > 0 {
		h.logger.Debug().
			Str("operation", req.OperationName).
			Int("errors", len(result.Errors)).
			Msg("graphql request returned errors")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

// parseRequest extracts the query from a GET query string or a POST
// JSON body.
func (h *Handler) parseRequest(w http.ResponseWriter, r *http.Request) (*request, bool) {
	switch r.Method {
	case http.MethodGet:
		return &request{Query: r.URL.Query().Get("query")}, true

	case http.MethodPost:
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"errors":[{"message":"invalid request body"}]}`, http.StatusBadRequest)
			return nil, false
		}
		return &req, true

	default:
		http.Error(w, `{"errors":[{"message":"method not allowed"}]}`, http.StatusMethodNotAllowed)
		return nil, false
	}
}
