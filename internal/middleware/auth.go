package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/audit"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
)

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// TokenVerifier resolves a bearer token to the user it belongs to.
type TokenVerifier interface {
	ResolveUser(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
				"code":  string(apperrors.ErrCodeUnauthorized),
			})
			return
		}

		user, err := m.verifier.ResolveUser(r.Context(), token)
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
				audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure})
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Invalid or expired token",
					"code":  string(apperrors.ErrCodeUnauthorized),
				})
				return
			}
			log.Error().Err(err).Msg("auth middleware: failed to resolve user")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Authentication failed",
				"code":  string(apperrors.ErrCodeInternal),
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
