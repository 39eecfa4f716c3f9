package incidents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	store *Store
}

func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

func (h *Handlers) RegisterHandlers(g *echo.Group) {
	g.GET("/incidents", h.list)
	g.POST("/incidents", h.create)
	g.PUT("/incidents/:code", h.update)
	g.GET("/incidents/:code/details", h.details)
	g.GET("/incidents/:code/peoplecount", h.peopleCount)
	g.GET("/incidents/:code/vehiclescount", h.vehiclesCount)
	g.PUT("/incidents/:code/:usercode/close", h.close)
}

func (h *Handlers) list(c echo.Context) error {
	incidents, err := h.store.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("list incidents")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las incidencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "incidents": incidents})
}

type incidentRequest struct {
	Status          string    `json:"status"`
	Location        string    `json:"location"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	BrigadeField    bool      `json:"brigade_field"`
	CreatorUserCode string    `json:"creator_user_code"`
	ClosureUserCode string    `json:"closure_user_code"`
	People          []Person  `json:"people"`
	Vehicles        []Vehicle `json:"vehicles"`
	Images          []string  `json:"images"`
}

func (h *Handlers) create(c echo.Context) error {
	var req incidentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Datos inválidos"})
	}
	if req.Status == "" || req.Location == "" || req.Type == "" || req.Description == "" || req.CreatorUserCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Faltan datos obligatorios"})
	}

	inc, err := h.store.Create(c.Request().Context(), CreateInput{
		Status:          req.Status,
		Location:        req.Location,
		Type:            req.Type,
		Description:     req.Description,
		BrigadeField:    req.BrigadeField,
		CreatorUserCode: req.CreatorUserCode,
		People:          req.People,
		Vehicles:        req.Vehicles,
		Images:          req.Images,
	})
	if err != nil {
		log.Error().Err(err).Msg("create incident")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al crear la incidencia"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "message": "Incident created successfully", "incident": inc})
}

func (h *Handlers) update(c echo.Context) error {
	code, err := parseCode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Código inválido"})
	}

	var req incidentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Datos inválidos"})
	}

	err = h.store.Update(c.Request().Context(), code, UpdateInput{
		Status:          req.Status,
		Location:        req.Location,
		Type:            req.Type,
		Description:     req.Description,
		BrigadeField:    req.BrigadeField,
		ClosureUserCode: req.ClosureUserCode,
		People:          req.People,
		Vehicles:        req.Vehicles,
		Images:          req.Images,
	})
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Incidencia no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Int64("code", code).Msg("update incident")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar la incidencia"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "message": "Incidencia actualizada correctamente"})
}

func (h *Handlers) details(c echo.Context) error {
	code, err := parseCode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Código inválido"})
	}

	d, err := h.store.GetDetails(c.Request().Context(), code)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Incidencia no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Int64("code", code).Msg("incident details")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener detalles de la incidencia"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ok":       true,
		"incident": d.Incident,
		"people":   d.People,
		"vehicles": d.Vehicles,
		"images":   d.Images,
	})
}

func (h *Handlers) peopleCount(c echo.Context) error {
	code, err := parseCode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Código inválido"})
	}
	n, err := h.store.PeopleCount(c.Request().Context(), code)
	if err != nil {
		log.Error().Err(err).Int64("code", code).Msg("people count")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener el recuento"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "count": n})
}

func (h *Handlers) vehiclesCount(c echo.Context) error {
	code, err := parseCode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Código inválido"})
	}
	n, err := h.store.VehiclesCount(c.Request().Context(), code)
	if err != nil {
		log.Error().Err(err).Int64("code", code).Msg("vehicles count")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener el recuento"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "count": n})
}

func (h *Handlers) close(c echo.Context) error {
	code, err := parseCode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Código inválido"})
	}

	err = h.store.Close(c.Request().Context(), code, c.Param("usercode"))
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Incidencia no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Int64("code", code).Msg("close incident")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al cerrar la incidencia"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "message": "Incidencia cerrada correctamente"})
}

func parseCode(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("code"), 10, 64)
}
