// Package vehicles serves the vehicle registry and its incident cross
// references.
package vehicles

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type Vehicle struct {
	LicensePlate string `json:"license_plate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}

type Handlers struct {
	db *sql.DB
}

func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{db: db}
}

func (h *Handlers) RegisterHandlers(g *echo.Group) {
	g.GET("/vehicles", h.list)
	g.GET("/vehicles/:plate", h.get)
	g.GET("/vehicles/:plate/incidents", h.incidents)
	g.GET("/vehicles/:plate/people", h.relatedPeople)
	g.GET("/vehicles/rel/:plate", h.relatedVehicles)
}

func (h *Handlers) list(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(),
		`SELECT license_plate, brand, model, color FROM vehicles ORDER BY license_plate`)
	if err != nil {
		log.Error().Err(err).Msg("list vehicles")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener los vehículos"})
	}
	defer rows.Close()

	data := []Vehicle{}
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.LicensePlate, &v.Brand, &v.Model, &v.Color); err != nil {
			log.Error().Err(err).Msg("scan vehicle")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener los vehículos"})
		}
		data = append(data, v)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("list vehicles")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener los vehículos"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}

func (h *Handlers) get(c echo.Context) error {
	var v Vehicle
	err := h.db.QueryRowContext(c.Request().Context(),
		`SELECT license_plate, brand, model, color FROM vehicles WHERE license_plate = $1`,
		c.Param("plate"),
	).Scan(&v.LicensePlate, &v.Brand, &v.Model, &v.Color)
	if err == sql.ErrNoRows {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Vehículo no encontrado"})
	}
	if err != nil {
		log.Error().Err(err).Msg("get vehicle")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener el vehículo"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": v})
}

// incidents lists the incidents a vehicle appears in.
func (h *Handlers) incidents(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(), `
		SELECT i.code, i.creation_date, i.status
		FROM incidents i
		JOIN incidents_vehicles iv ON i.code = iv.incident_code
		WHERE iv.vehicle_license_plate = $1`, c.Param("plate"))
	if err != nil {
		log.Error().Err(err).Msg("vehicle incidents")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las incidencias"})
	}
	defer rows.Close()

	type row struct {
		IncidentCode int64     `json:"incident_code"`
		CreationDate time.Time `json:"creation_date"`
		Status       string    `json:"status"`
	}
	data := []row{}
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.IncidentCode, &r.CreationDate, &r.Status); err != nil {
			log.Error().Err(err).Msg("scan incident")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las incidencias"})
		}
		data = append(data, r)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("vehicle incidents")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las incidencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}

// relatedPeople lists people seen in the same incidents as the vehicle.
func (h *Handlers) relatedPeople(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(), `
		SELECT p.dni, p.first_name, p.last_name1, p.last_name2, ip.incident_code
		FROM incidents_people ip
		JOIN people p ON ip.person_dni = p.dni
		WHERE ip.incident_code IN (
			SELECT incident_code
			FROM incidents_vehicles
			WHERE vehicle_license_plate = $1
		)`, c.Param("plate"))
	if err != nil {
		log.Error().Err(err).Msg("vehicle people")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
	}
	defer rows.Close()

	type row struct {
		DNI          string `json:"dni"`
		FirstName    string `json:"first_name"`
		LastName1    string `json:"last_name1"`
		LastName2    string `json:"last_name2"`
		IncidentCode int64  `json:"incident_code"`
	}
	data := []row{}
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.DNI, &r.FirstName, &r.LastName1, &r.LastName2, &r.IncidentCode); err != nil {
			log.Error().Err(err).Msg("scan person")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
		}
		data = append(data, r)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("vehicle people")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
	}
	if len(data) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "No se encontraron coincidencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}

// relatedVehicles lists other vehicles seen in the same incidents.
func (h *Handlers) relatedVehicles(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(), `
		SELECT v.license_plate, v.brand, v.model, iv.incident_code
		FROM incidents_vehicles iv
		JOIN vehicles v ON iv.vehicle_license_plate = v.license_plate
		WHERE iv.incident_code IN (
			SELECT incident_code
			FROM incidents_vehicles
			WHERE vehicle_license_plate = $1
		)
		AND v.license_plate <> $1`, c.Param("plate"))
	if err != nil {
		log.Error().Err(err).Msg("related vehicles")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
	}
	defer rows.Close()

	type row struct {
		LicensePlate string `json:"license_plate"`
		Brand        string `json:"brand"`
		Model        string `json:"model"`
		IncidentCode int64  `json:"incident_code"`
	}
	data := []row{}
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.LicensePlate, &r.Brand, &r.Model, &r.IncidentCode); err != nil {
			log.Error().Err(err).Msg("scan vehicle")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
		}
		data = append(data, r)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("related vehicles")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
	}
	if len(data) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "No se encontraron coincidencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}
