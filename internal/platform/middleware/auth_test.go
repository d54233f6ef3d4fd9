package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoatlas/internal/identity"
)

const testSigningKey = "test-signing-key"

type fakeGrants struct {
	grants map[string]*identity.Habilitation
	err    error
}

func (f *fakeGrants) GrantFor(_ context.Context, principalID string) (*identity.Habilitation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.grants[principalID], nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return token
}

func authChain(grants GrantResolver) (http.Handler, *identity.Principal) {
	var captured identity.Principal
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(testSigningKey, grants, logger)(next), &captured
}

func TestRequireAuth(t *testing.T) {
	grants := &fakeGrants{grants: map[string]*identity.Habilitation{
		"user-1": {PrincipalID: "user-1", Role: "LEVEL_100"},
	}}

	t.Run("valid token resolves the principal and its grant", func(t *testing.T) {
		handler, captured := authChain(grants)
		token := signToken(t, jwt.MapClaims{
			"sub":        "user-1",
			"name":       "Morgan Le Goff",
			"structures": []string{"Agence de Rennes", "DR Bretagne"},
			"exp":        time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "user-1", captured.ID)
		assert.Equal(t, "Morgan Le Goff", captured.DisplayName)
		assert.Equal(t, "DR Bretagne", captured.Entity)
		require.NotNil(t, captured.Habilitation)
		assert.Equal(t, "LEVEL_100", captured.Habilitation.Role)
	})

	t.Run("principal without a grant is authenticated with no role", func(t *testing.T) {
		handler, captured := authChain(grants)
		token := signToken(t, jwt.MapClaims{
			"sub": "user-2",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, captured.Habilitation)
		assert.Empty(t, captured.Role())
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		handler, _ := authChain(grants)
		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token signed with another key is unauthorized", func(t *testing.T) {
		handler, _ := authChain(grants)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("other-key"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		handler, _ := authChain(grants)
		token := signToken(t, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("grant lookup failure is an internal error", func(t *testing.T) {
		handler, _ := authChain(&fakeGrants{err: errors.New("store down")})
		token := signToken(t, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
