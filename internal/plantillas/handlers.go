package plantillas

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Handlers exposes the template CRUD over HTTP.
type Handlers struct {
	svc *Service
}

func NewHandlers(svc *Service) *Handlers { return &Handlers{svc: svc} }

// RegisterHandlers mounts the plantilla routes on the given group.
func (h *Handlers) RegisterHandlers(g *echo.Group) {
	g.GET("/plantillas", h.list)
	g.GET("/plantillas/:id", h.get)
	g.POST("/plantillas", h.create)
	g.PUT("/plantillas/:id", h.update)
	g.DELETE("/plantillas/:id", h.delete)
}

// PlantillaRequest is the create/update request body. Variables is absent on
// purpose: it is always derived from Content.
type PlantillaRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

func (h *Handlers) list(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("listing plantillas failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las plantillas"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "plantillas": items})
}

func (h *Handlers) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de plantilla inválido"})
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Plantilla no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Int64("plantilla_id", id).Msg("fetching plantilla failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener la plantilla"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "plantilla": p})
}

func (h *Handlers) create(c echo.Context) error {
	var req PlantillaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Cuerpo de petición inválido"})
	}
	if req.Name == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Faltan datos obligatorios"})
	}
	p, err := h.svc.Create(c.Request().Context(), req.Name, req.Description, req.Content)
	if errors.Is(err, ErrDuplicateName) {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Ya existe una plantilla con ese nombre"})
	}
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("creating plantilla failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al crear la plantilla"})
	}
	log.Info().Int64("plantilla_id", p.ID).Str("name", p.Name).Int("variables", len(p.Variables)).Msg("plantilla created")
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "plantilla": p})
}

func (h *Handlers) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de plantilla inválido"})
	}
	var req PlantillaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Cuerpo de petición inválido"})
	}
	if req.Name == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Faltan datos obligatorios"})
	}
	p, err := h.svc.Update(c.Request().Context(), id, req.Name, req.Description, req.Content)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Plantilla no encontrada"})
	}
	if errors.Is(err, ErrDuplicateName) {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Ya existe una plantilla con ese nombre"})
	}
	if err != nil {
		log.Error().Err(err).Int64("plantilla_id", id).Msg("updating plantilla failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar la plantilla"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "plantilla": p})
}

func (h *Handlers) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de plantilla inválido"})
	}
	err = h.svc.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrInUse) {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "La plantilla está en uso por una o más diligencias"})
	}
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Plantilla no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Int64("plantilla_id", id).Msg("deleting plantilla failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al eliminar la plantilla"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
