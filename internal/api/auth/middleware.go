package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ContextKey represents keys for context values
type ContextKey string

// UserContextKey holds the *Claims of the authenticated caller.
const UserContextKey ContextKey = "user"

// RequireAuth validates the Bearer token on every request. A missing token is
// 401; an invalid or expired one is 403, so callers can distinguish the two.
func RequireAuth(tokenService *TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn().Str("path", c.Path()).Msg("missing authorization header")
				return echo.NewHTTPError(401, "Token requerido")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(401, "Formato de autorización inválido")
			}

			claims, err := tokenService.ValidateToken(tokenParts[1])
			if err != nil {
				log.Warn().Err(err).Str("path", c.Path()).Msg("rejected token")
				return echo.NewHTTPError(403, "Token inválido o expirado")
			}

			c.Set(string(UserContextKey), claims)
			return next(c)
		}
	}
}

// CallerClaims returns the authenticated caller's claims, or nil outside an
// authenticated route.
func CallerClaims(c echo.Context) *Claims {
	claims, _ := c.Get(string(UserContextKey)).(*Claims)
	return claims
}
