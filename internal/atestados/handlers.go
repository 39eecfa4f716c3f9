package atestados

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/arbadev/sigilo/internal/diligencias"
)

type Handlers struct {
	store   Store
	entries *diligencias.Engine
}

func NewHandlers(store Store, entries *diligencias.Engine) *Handlers {
	return &Handlers{store: store, entries: entries}
}

// RegisterHandlers mounts the atestado routes on the given group.
func (h *Handlers) RegisterHandlers(g *echo.Group) {
	g.GET("/atestados", h.list)
	g.POST("/atestados", h.create)
	g.GET("/atestados/stats/resumen", h.stats)
	g.GET("/atestados/:id", h.get)
	g.PUT("/atestados/:id", h.update)
	g.DELETE("/atestados/:id", h.delete)
}

type AtestadoRequest struct {
	Numero      string `json:"numero"`
	Fecha       string `json:"fecha"`
	Descripcion string `json:"descripcion"`
	Estado      string `json:"estado"`
}

func (h *Handlers) list(c echo.Context) error {
	items, err := h.store.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("listing atestados failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener los atestados"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "atestados": items})
}

func (h *Handlers) create(c echo.Context) error {
	var req AtestadoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Cuerpo de petición inválido"})
	}
	if req.Numero == "" || req.Fecha == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Faltan datos obligatorios"})
	}
	fecha, err := parseFecha(req.Fecha)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Fecha inválida"})
	}

	a := &Atestado{Numero: req.Numero, Fecha: fecha, Descripcion: req.Descripcion, Estado: req.Estado}
	err = h.store.Create(c.Request().Context(), a)
	if errors.Is(err, ErrDuplicateNumero) {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Ya existe un atestado con ese número"})
	}
	if err != nil {
		log.Error().Err(err).Str("numero", req.Numero).Msg("creating atestado failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al crear el atestado"})
	}
	log.Info().Int64("atestado_id", a.ID).Str("numero", a.Numero).Msg("atestado created")
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "atestado": a})
}

func (h *Handlers) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de atestado inválido"})
	}
	a, err := h.store.GetByID(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Atestado no encontrado"})
	}
	if err != nil {
		log.Error().Err(err).Int64("atestado_id", id).Msg("fetching atestado failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener el atestado"})
	}
	entries, err := h.entries.ListByAtestado(c.Request().Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("atestado_id", id).Msg("fetching diligencias for atestado failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las diligencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "atestado": a, "diligencias": entries})
}

func (h *Handlers) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de atestado inválido"})
	}
	var req AtestadoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Cuerpo de petición inválido"})
	}
	if req.Numero == "" || req.Fecha == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Faltan datos obligatorios"})
	}
	fecha, err := parseFecha(req.Fecha)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Fecha inválida"})
	}

	a := &Atestado{ID: id, Numero: req.Numero, Fecha: fecha, Descripcion: req.Descripcion, Estado: req.Estado}
	if a.Estado == "" {
		// An omitted estado keeps the stored one; only create defaults to
		// activo.
		current, err := h.store.GetByID(c.Request().Context(), id)
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Atestado no encontrado"})
		}
		if err != nil {
			log.Error().Err(err).Int64("atestado_id", id).Msg("fetching atestado failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar el atestado"})
		}
		a.Estado = current.Estado
	}
	err = h.store.Update(c.Request().Context(), a)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Atestado no encontrado"})
	}
	if errors.Is(err, ErrDuplicateNumero) {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Ya existe un atestado con ese número"})
	}
	if err != nil {
		log.Error().Err(err).Int64("atestado_id", id).Msg("updating atestado failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar el atestado"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "atestado": a})
}

func (h *Handlers) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "ID de atestado inválido"})
	}
	err = h.store.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Atestado no encontrado"})
	}
	if err != nil {
		log.Error().Err(err).Int64("atestado_id", id).Msg("deleting atestado failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al eliminar el atestado"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *Handlers) stats(c echo.Context) error {
	st, err := h.store.Stats(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("computing atestado stats failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las estadísticas"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "stats": st})
}

// parseFecha accepts both date-only and full timestamp inputs.
func parseFecha(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
