package diligencias

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	engine *Engine
}

func NewHandlers(engine *Engine) *Handlers { return &Handlers{engine: engine} }

// RegisterHandlers mounts the diligencia routes on the given group.
func (h *Handlers) RegisterHandlers(g *echo.Group) {
	g.GET("/atestados/:id/diligencias", h.list)
	g.POST("/atestados/:id/diligencias", h.create)
	g.PUT("/atestados/:id/diligencias/reorder", h.reorder)
	g.GET("/diligencias/:id", h.get)
	g.PUT("/diligencias/:id", h.update)
	g.DELETE("/diligencias/:id", h.delete)
}

// CreateRequest is the create-entry body. Values is a pointer so that an
// absent or null array can be told apart from an empty one and rejected.
type CreateRequest struct {
	TemplateID  int64        `json:"templateId"`
	Values      *[]ValuePair `json:"values"`
	PreviewText string       `json:"previewText"`
}

type UpdateRequest struct {
	Values      *[]ValuePair `json:"values"`
	PreviewText string       `json:"previewText"`
}

type ReorderRequest struct {
	DiligenciasOrder *[]Posicion `json:"diligenciasOrder"`
}

func (h *Handlers) list(c echo.Context) error {
	atestadoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de atestado inválido"})
	}
	items, err := h.engine.ListByAtestado(c.Request().Context(), atestadoID)
	if err != nil {
		log.Error().Err(err).Int64("atestado_id", atestadoID).Msg("listing diligencias failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las diligencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "diligencias": items})
}

func (h *Handlers) create(c echo.Context) error {
	atestadoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de atestado inválido"})
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Cuerpo de petición inválido"})
	}
	if req.TemplateID == 0 || req.Values == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Faltan templateId o values"})
	}

	d, err := h.engine.Create(c.Request().Context(), atestadoID, req.TemplateID, *req.Values, req.PreviewText)
	switch {
	case errors.Is(err, ErrAtestadoNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Atestado no encontrado"})
	case errors.Is(err, ErrPlantillaNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Plantilla no encontrada"})
	case err != nil:
		log.Error().Err(err).Int64("atestado_id", atestadoID).Msg("creating diligencia failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al crear la diligencia"})
	}
	log.Info().Int64("diligencia_id", d.ID).Int64("atestado_id", atestadoID).Int("orden", d.Orden).Msg("diligencia created")
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "diligencia": d})
}

func (h *Handlers) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de diligencia inválido"})
	}
	det, err := h.engine.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Diligencia no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Int64("diligencia_id", id).Msg("fetching diligencia failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener la diligencia"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "diligencia": det})
}

func (h *Handlers) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de diligencia inválido"})
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Cuerpo de petición inválido"})
	}
	if req.Values == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "values debe ser un array"})
	}

	d, err := h.engine.Update(c.Request().Context(), id, *req.Values, req.PreviewText)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Diligencia no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Int64("diligencia_id", id).Msg("updating diligencia failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar la diligencia"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "diligencia": d})
}

func (h *Handlers) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de diligencia inválido"})
	}
	err = h.engine.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Diligencia no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Int64("diligencia_id", id).Msg("deleting diligencia failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al eliminar la diligencia"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *Handlers) reorder(c echo.Context) error {
	atestadoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de atestado inválido"})
	}
	var req ReorderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Cuerpo de petición inválido"})
	}
	if req.DiligenciasOrder == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "diligenciasOrder debe ser un array"})
	}

	err = h.engine.Reorder(c.Request().Context(), atestadoID, *req.DiligenciasOrder)
	if errors.Is(err, ErrAtestadoNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Atestado no encontrado"})
	}
	if err != nil {
		log.Error().Err(err).Int64("atestado_id", atestadoID).Msg("reordering diligencias failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al reordenar las diligencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
