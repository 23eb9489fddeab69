package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/repository"
)

// Middleware resolves bearer tokens into an authenticated Caller.
//
// Requests without a token, or with an invalid token, pass through as
// anonymous; the role gates in this package decide per-operation
// whether an anonymous caller is acceptable.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository, logger zerolog.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Handler wraps next with caller resolution.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.Parse(tokenStr)
		if err != nil {
			m.logger.Debug().Err(err).Msg("rejected bearer token")
			next.ServeHTTP(w, r)
			return
		}

		// The user record is the source of truth for role and active
		// status; the token only identifies the user.
		user, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			m.logger.Debug().Err(err).Int64("user_id", claims.UserID).Msg("token references unknown user")
			next.ServeHTTP(w, r)
			return
		}

		if !user.CanAuthenticate() {
			m.logger.Debug().Int64("user_id", user.ID).Msg("token references inactive user")
			next.ServeHTTP(w, r)
			return
		}

		caller := &Caller{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// extractBearerToken returns the token from the Authorization header,
// or "" if absent or malformed.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
