package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbadev/sigilo/pkg/models"
)

func protectedServer(ts *TokenService) *echo.Echo {
	e := echo.New()
	g := e.Group("", RequireAuth(ts))
	g.GET("/whoami", func(c echo.Context) error {
		claims := CallerClaims(c)
		return c.JSON(http.StatusOK, echo.Map{"code": claims.Code})
	})
	return e
}

func TestRequireAuthMissingToken(t *testing.T) {
	e := protectedServer(NewTokenService("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthBadFormat(t *testing.T) {
	e := protectedServer(NewTokenService("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthInvalidToken(t *testing.T) {
	e := protectedServer(NewTokenService("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAuthValidToken(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)
	e := protectedServer(ts)

	token, err := ts.CreateToken(&models.User{Code: "AR01492", Role: "agente"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AR01492")
}

func TestLoginLimiterBlocksBurst(t *testing.T) {
	h := NewAuthHandlers(NewTokenService("secret", time.Hour), nil, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, h.allow("10.0.0.1"), "attempt %d should pass", i+1)
	}
	assert.False(t, h.allow("10.0.0.1"))

	// Other addresses keep their own budget.
	assert.True(t, h.allow("10.0.0.2"))
}
