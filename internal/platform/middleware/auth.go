package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"geoatlas/internal/identity"
)

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for tests that build contexts directly.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the authenticated principal from the context. The
// zero principal means unauthenticated.
func GetPrincipal(ctx context.Context) identity.Principal {
	p, ok := ctx.Value(ContextKeyPrincipal).(identity.Principal)
	if !ok {
		return identity.Principal{}
	}
	return p
}

// WithPrincipal injects a principal, for service tests that skip the chain.
func WithPrincipal(ctx context.Context, p identity.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// GrantResolver looks up the granted habilitation for a principal id.
type GrantResolver interface {
	GrantFor(ctx context.Context, principalID string) (*identity.Habilitation, error)
}

// principalClaims are the claims the external identity provider signs. The
// structures list is free text; the entity is derived from it, never trusted
// as a claim of its own.
type principalClaims struct {
	jwt.RegisteredClaims
	Name       string   `json:"name"`
	Structures []string `json:"structures"`
}

// RequireAuth validates the bearer token, derives the principal and attaches
// its granted habilitation. Requests without a valid token are rejected; role
// checks stay with the services.
func RequireAuth(signingKey string, grants GrantResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			var claims principalClaims
			_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(signingKey), nil
			})
			if err != nil {
				logger.WarnContext(r.Context(), "rejected token",
					"request_id", GetRequestID(r.Context()),
					"error", err.Error(),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			p := identity.Principal{
				ID:          claims.Subject,
				DisplayName: claims.Name,
				Entity:      identity.DeriveEntity(claims.Structures),
			}
			if grants != nil {
				grant, err := grants.GrantFor(r.Context(), p.ID)
				if err != nil {
					logger.ErrorContext(r.Context(), "habilitation lookup failed",
						"request_id", GetRequestID(r.Context()),
						"principal", p.ID,
						"error", err.Error(),
					)
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				p.Habilitation = grant
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
