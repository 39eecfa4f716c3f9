package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbadev/sigilo/pkg/models"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)
	user := &models.User{Code: "A-1234", Role: "agente"}

	token, err := ts.CreateToken(user)
	require.NoError(t, err)

	claims, err := ts.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "A-1234", claims.Code)
	assert.Equal(t, "agente", claims.Role)
	assert.Equal(t, "sigilo", claims.Issuer)
}

func TestExpiredTokenRejected(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)
	ts.TokenDuration = -time.Minute

	token, err := ts.CreateToken(&models.User{Code: "A-1234", Role: "agente"})
	require.NoError(t, err)

	_, err = ts.ValidateToken(token)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.CreateToken(&models.User{Code: "A-1234", Role: "agente"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)
	_, err := ts.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}
