package users

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/arbadev/sigilo/internal/api/auth"
	"github.com/arbadev/sigilo/pkg/models"
)

// resetResponse is returned whether or not the email matches a user, so
// the endpoint cannot be used to enumerate accounts.
const resetResponse = "Si el usuario existe, recibirá un email con la nueva contraseña."

type Handlers struct {
	db     *sql.DB
	mailer Mailer
}

func NewHandlers(db *sql.DB, mailer Mailer) *Handlers {
	return &Handlers{db: db, mailer: mailer}
}

// RegisterHandlers mounts the authenticated user routes.
func (h *Handlers) RegisterHandlers(g *echo.Group) {
	g.GET("/users", h.list)
	g.GET("/users/role/:code", h.role)
	g.GET("/users/:code", h.get)
	g.POST("/users", h.create)
	g.PUT("/users/:code", h.update)
	g.PUT("/users/:code/password", h.updatePassword)
	g.DELETE("/users/:code", h.delete)
	g.GET("/user/:usercode", h.ownIncidents)
}

// RegisterPublicHandlers mounts the routes that must work without a token.
func (h *Handlers) RegisterPublicHandlers(e *echo.Echo) {
	e.POST("/users/resetpassword", h.resetPassword)
}

func (h *Handlers) list(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(),
		`SELECT code, email, role, status FROM users ORDER BY code`)
	if err != nil {
		log.Error().Err(err).Msg("list users")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener los usuarios"})
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Code, &u.Email, &u.Role, &u.Status); err != nil {
			log.Error().Err(err).Msg("scan user")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener los usuarios"})
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("list users")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener los usuarios"})
	}
	if len(users) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "No se encontraron usuarios"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "users": users})
}

func (h *Handlers) role(c echo.Context) error {
	var role string
	err := h.db.QueryRowContext(c.Request().Context(),
		`SELECT role FROM users WHERE code = $1`, c.Param("code")).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Usuario no encontrado"})
	}
	if err != nil {
		log.Error().Err(err).Msg("get user role")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener el rol del usuario"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "role": role})
}

func (h *Handlers) get(c echo.Context) error {
	u, err := h.fetch(c, c.Param("code"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Usuario no encontrado"})
	}
	if err != nil {
		log.Error().Err(err).Msg("get user")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener los detalles del usuario"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": u})
}

type createRequest struct {
	Code     string `json:"code"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (h *Handlers) create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Datos inválidos"})
	}
	if req.Code == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Código y contraseña son requeridos"})
	}
	if req.Status == "" {
		req.Status = models.UserActive
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("hash password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al crear el usuario"})
	}

	var u models.User
	err = h.db.QueryRowContext(c.Request().Context(), `
		INSERT INTO users (code, email, password, role, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING code, email, role, status`,
		req.Code, req.Email, string(hash), req.Role, req.Status,
	).Scan(&u.Code, &u.Email, &u.Role, &u.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Ya existe un usuario con ese código"})
		}
		log.Error().Err(err).Msg("create user")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al crear el usuario"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "user": u})
}

type updateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (h *Handlers) update(c echo.Context) error {
	code := c.Param("code")
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Datos inválidos"})
	}

	if _, err := h.fetch(c, code); errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Usuario no encontrado"})
	} else if err != nil {
		log.Error().Err(err).Msg("update user")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar los detalles del usuario"})
	}

	var u models.User
	var err error
	// An empty password in the request leaves the stored one untouched.
	if req.Password != "" {
		var hash []byte
		hash, err = bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("hash password")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar los detalles del usuario"})
		}
		err = h.db.QueryRowContext(c.Request().Context(), `
			UPDATE users SET email = $1, password = $2, role = $3, status = $4
			WHERE code = $5
			RETURNING code, email, role, status`,
			req.Email, string(hash), req.Role, req.Status, code,
		).Scan(&u.Code, &u.Email, &u.Role, &u.Status)
	} else {
		err = h.db.QueryRowContext(c.Request().Context(), `
			UPDATE users SET email = $1, role = $2, status = $3
			WHERE code = $4
			RETURNING code, email, role, status`,
			req.Email, req.Role, req.Status, code,
		).Scan(&u.Code, &u.Email, &u.Role, &u.Status)
	}
	if err != nil {
		log.Error().Err(err).Msg("update user")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar los detalles del usuario"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": u})
}

type passwordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) updatePassword(c echo.Context) error {
	code := c.Param("code")
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Datos inválidos"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Contraseña requerida"})
	}

	if _, err := h.fetch(c, code); errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Usuario no encontrado"})
	} else if err != nil {
		log.Error().Err(err).Msg("update password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar la contraseña del usuario"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("hash password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar la contraseña del usuario"})
	}

	var u models.User
	err = h.db.QueryRowContext(c.Request().Context(), `
		UPDATE users SET email = $1, password = $2
		WHERE code = $3
		RETURNING code, email, role, status`,
		req.Email, string(hash), code,
	).Scan(&u.Code, &u.Email, &u.Role, &u.Status)
	if err != nil {
		log.Error().Err(err).Msg("update password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar la contraseña del usuario"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": u})
}

func (h *Handlers) delete(c echo.Context) error {
	code := c.Param("code")
	res, err := h.db.ExecContext(c.Request().Context(), `DELETE FROM users WHERE code = $1`, code)
	if err != nil {
		log.Error().Err(err).Msg("delete user")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al eliminar el usuario"})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Usuario no encontrado"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "message": "Usuario eliminado correctamente"})
}

type resetRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) resetPassword(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Email requerido"})
	}

	var code, email string
	err := h.db.QueryRowContext(c.Request().Context(),
		`SELECT code, email FROM users WHERE email = $1`, req.Email).Scan(&code, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusOK, echo.Map{"ok": true, "message": resetResponse})
	}
	if err != nil {
		log.Error().Err(err).Msg("reset password lookup")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error en el reseteo de contraseña."})
	}

	newPassword, err := generatePassword(10)
	if err != nil {
		log.Error().Err(err).Msg("reset password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error en el reseteo de contraseña."})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("reset password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error en el reseteo de contraseña."})
	}

	if _, err := h.db.ExecContext(c.Request().Context(),
		`UPDATE users SET password = $1 WHERE code = $2`, string(hash), code); err != nil {
		log.Error().Err(err).Msg("reset password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error en el reseteo de contraseña."})
	}

	if err := h.mailer.SendPasswordReset(email, newPassword); err != nil {
		log.Error().Err(err).Str("to", email).Msg("send reset mail")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error en el reseteo de contraseña."})
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "message": resetResponse})
}

// ownIncidents lists the incidents created by the caller. Users can only
// query their own code.
func (h *Handlers) ownIncidents(c echo.Context) error {
	code := c.Param("usercode")
	claims := auth.CallerClaims(c)
	if claims == nil || claims.Code != code {
		return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "message": "No puedes ver estos datos"})
	}

	rows, err := h.db.QueryContext(c.Request().Context(), `
		SELECT code, creation_date, status, location, type, description
		FROM incidents WHERE creator_user_code = $1
		ORDER BY creation_date DESC`, code)
	if err != nil {
		log.Error().Err(err).Msg("list own incidents")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las incidencias del usuario"})
	}
	defer rows.Close()

	type incident struct {
		Code         int64     `json:"code"`
		CreationDate time.Time `json:"creation_date"`
		Status       string    `json:"status"`
		Location     string    `json:"location"`
		Type         string    `json:"type"`
		Description  string    `json:"description"`
	}
	data := []incident{}
	for rows.Next() {
		var in incident
		if err := rows.Scan(&in.Code, &in.CreationDate, &in.Status, &in.Location, &in.Type, &in.Description); err != nil {
			log.Error().Err(err).Msg("scan incident")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las incidencias del usuario"})
		}
		data = append(data, in)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("list own incidents")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las incidencias del usuario"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}

func (h *Handlers) fetch(c echo.Context, code string) (models.User, error) {
	var u models.User
	err := h.db.QueryRowContext(c.Request().Context(),
		`SELECT code, email, role, status FROM users WHERE code = $1`, code,
	).Scan(&u.Code, &u.Email, &u.Role, &u.Status)
	return u, err
}
