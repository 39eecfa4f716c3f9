package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/arbadev/sigilo/pkg/models"
)

// AuthHandlers contains the authentication handler methods
type AuthHandlers struct {
	tokenService *TokenService
	db           *sql.DB

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	burst    int
}

// NewAuthHandlers creates a new authentication handlers instance. loginBurst
// bounds how many login attempts a single IP may make in a burst; attempts
// refill at one per second.
func NewAuthHandlers(tokenService *TokenService, db *sql.DB, loginBurst int) *AuthHandlers {
	if loginBurst <= 0 {
		loginBurst = 5
	}
	return &AuthHandlers{
		tokenService: tokenService,
		db:           db,
		limiters:     make(map[string]*rate.Limiter),
		burst:        loginBurst,
	}
}

// RegisterHandlers mounts the public auth routes.
func (h *AuthHandlers) RegisterHandlers(e *echo.Echo) {
	e.POST("/login", h.Login)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserInfo is the user payload of a login response (no sensitive data).
type UserInfo struct {
	Code  string `json:"code"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login authenticates by user code and password and returns a session token.
func (h *AuthHandlers) Login(c echo.Context) error {
	if !h.allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"ok": false, "message": "Demasiados intentos, espere un momento"})
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Cuerpo de petición inválido"})
	}

	user := &models.User{}
	err := h.db.QueryRowContext(c.Request().Context(), `
		SELECT code, email, password, role, status
		FROM users WHERE code = $1
	`, req.Username).Scan(&user.Code, &user.Email, &user.PasswordHash, &user.Role, &user.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "message": "Credenciales inválidas"})
	}
	if err != nil {
		log.Error().Err(err).Msg("login query failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error en el servidor"})
	}

	if user.Status != models.UserActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "message": "Usuario inactivo"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "message": "Credenciales inválidas"})
	}

	token, err := h.tokenService.CreateToken(user)
	if err != nil {
		log.Error().Err(err).Str("code", user.Code).Msg("token creation failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error en el servidor"})
	}

	log.Info().Str("code", user.Code).Str("role", user.Role).Msg("user logged in")
	return c.JSON(http.StatusOK, echo.Map{
		"ok":    true,
		"token": token,
		"user":  UserInfo{Code: user.Code, Email: user.Email, Role: user.Role},
	})
}

func (h *AuthHandlers) allow(ip string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	lim, ok := h.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(1), h.burst)
		h.limiters[ip] = lim
	}
	return lim.Allow()
}
