package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/auth/jwt"
	httperrors "github.com/buts00/algo-rumble-service/pkg/http/errors"
)

// Validator is the token-validation surface the middleware needs.
type Validator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// Middleware validates bearer tokens, consults the jti blocklist, and
// injects the Principal into the request context. Requests that carry no
// bearer token (see BearerToken) pass through unauthenticated; handlers that
// need an identity check for the Principal themselves or wrap in Require.
func Middleware(validator Validator, blocklist *Blocklist, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.Warn().Err(err).Msg("token validation failed")
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
				return
			}

			revoked, err := blocklist.Contains(r.Context(), claims.ID)
			if err != nil {
				logger.Error().Err(err).Msg("blocklist check failed")
				httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Authentication temporarily unavailable")
				return
			}
			if revoked {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeTokenRevoked, "Token has been revoked")
				return
			}

			principal := Principal{
				UserID:   claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), principal)))
		})
	}
}

// Require rejects requests that carry no authenticated principal.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the bearer token from the Authorization header, or
// from the access_token query parameter for WebSocket upgrades where
// browsers cannot set headers.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
