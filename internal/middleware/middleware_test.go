package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"kantin-be/internal/user"
	"kantin-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("ValidToken", func(t *testing.T) {
		token, err := user.GenerateJWT(3, utils.RoleStaff, "kasir@kantin.id")
		require.NoError(t, err)

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := utils.GetUserIDFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, uint(3), id)
			assert.Equal(t, utils.RoleStaff, utils.GetUserRoleFromContext(r.Context()))
		})

		req := httptest.NewRequest("GET", "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		AuthMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)
	})

	t.Run("InvalidTokenIsAnonymous", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetUserIDFromContext(r.Context())
			assert.False(t, ok)
		})

		req := httptest.NewRequest("GET", "/api/menu", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		AuthMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)
	})
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Anonymous rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(w, httptest.NewRequest("POST", "/api/orders", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Authenticated passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/orders", nil)
		req = req.WithContext(utils.SetUserContext(req.Context(), 1, "budi@mail.com", utils.RoleCustomer))
		w := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestResolveRateTier(t *testing.T) {
	t.Run("AuthIsStrict", func(t *testing.T) {
		_, _, tier := resolveRateTier(httptest.NewRequest("POST", "/api/auth/login", nil))
		assert.Equal(t, "strict", tier)
	})

	t.Run("OrderMutationIsStrict", func(t *testing.T) {
		_, _, tier := resolveRateTier(httptest.NewRequest("POST", "/api/orders", nil))
		assert.Equal(t, "strict", tier)
	})

	t.Run("BrowsingIsGeneral", func(t *testing.T) {
		_, _, tier := resolveRateTier(httptest.NewRequest("GET", "/api/menu", nil))
		assert.Equal(t, "general", tier)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	// Strict tier allows a burst of 5; the 6th immediate call is rejected.
	var lastCode int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.1.2.3:4567"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		lastCode = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
