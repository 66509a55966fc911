package middleware

import (
	"context"
	"net/http"

	logpkg "github.com/benvon/study-advent/internal/logger"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// Authenticator attaches the verified caller identity to the request.
type Authenticator struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthenticator creates an authenticator. A nil verifier means sign-in is not configured:
// Optional passes everything through anonymously and Required rejects everything.
func NewAuthenticator(verifier TokenVerifier, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{verifier: verifier, logger: logger}
}

// Optional verifies a bearer token when one is sent. A present but invalid token is rejected.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return a.handler(next, false)
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return a.handler(next, true)
}

func (a *Authenticator) handler(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := request.BearerToken(r)
		if !ok {
			if r.Header.Get("Authorization") != "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid Authorization header format", a.logger)
				return
			}
			if required {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing Authorization header", a.logger)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if a.verifier == nil {
			respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Sign-in is not configured", a.logger)
			return
		}

		claims, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			a.logger.Warn("token_verification_failed",
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", a.logger)
			return
		}

		ctx := request.WithClaims(r.Context(), claims)
		ctx = request.WithUser(ctx, claims.User())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
