// Package people serves the person registry and the cross references that
// link people to each other through shared incidents.
package people

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type Person struct {
	DNI         string `json:"dni"`
	FirstName   string `json:"first_name"`
	LastName1   string `json:"last_name1"`
	LastName2   string `json:"last_name2"`
	PhoneNumber string `json:"phone_number"`
}

type Handlers struct {
	db *sql.DB
}

func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{db: db}
}

func (h *Handlers) RegisterHandlers(g *echo.Group) {
	g.GET("/people", h.list)
	g.GET("/people/:dni", h.get)
	g.PUT("/people/:dni", h.update)
	g.GET("/people/:dni/incidents", h.incidents)
	g.GET("/people/rel/:dni", h.relatedPeople)
	g.GET("/people/rel/:dni/vehicles", h.relatedVehicles)
}

func (h *Handlers) list(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(),
		`SELECT dni, first_name, last_name1, last_name2, phone_number FROM people ORDER BY dni`)
	if err != nil {
		log.Error().Err(err).Msg("list people")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las personas"})
	}
	defer rows.Close()

	data := []Person{}
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.DNI, &p.FirstName, &p.LastName1, &p.LastName2, &p.PhoneNumber); err != nil {
			log.Error().Err(err).Msg("scan person")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las personas"})
		}
		data = append(data, p)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("list people")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las personas"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}

func (h *Handlers) get(c echo.Context) error {
	var p Person
	err := h.db.QueryRowContext(c.Request().Context(),
		`SELECT dni, first_name, last_name1, last_name2, phone_number FROM people WHERE dni = $1`,
		c.Param("dni"),
	).Scan(&p.DNI, &p.FirstName, &p.LastName1, &p.LastName2, &p.PhoneNumber)
	if err == sql.ErrNoRows {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Persona no encontrada"})
	}
	if err != nil {
		log.Error().Err(err).Msg("get person")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener la persona"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": p})
}

type updateRequest struct {
	FirstName   string `json:"first_name"`
	LastName1   string `json:"last_name1"`
	LastName2   string `json:"last_name2"`
	PhoneNumber string `json:"phone_number"`
}

func (h *Handlers) update(c echo.Context) error {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "message": "Datos inválidos"})
	}

	var p Person
	err := h.db.QueryRowContext(c.Request().Context(), `
		UPDATE people
		SET first_name = $1, last_name1 = $2, last_name2 = $3, phone_number = $4
		WHERE dni = $5
		RETURNING dni, first_name, last_name1, last_name2, phone_number`,
		req.FirstName, req.LastName1, req.LastName2, req.PhoneNumber, c.Param("dni"),
	).Scan(&p.DNI, &p.FirstName, &p.LastName1, &p.LastName2, &p.PhoneNumber)
	if err == sql.ErrNoRows {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "Persona no encontrada para actualizar"})
	}
	if err != nil {
		log.Error().Err(err).Msg("update person")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al actualizar la persona"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "message": "Persona actualizada", "data": p})
}

// incidents lists the incidents a person appears in.
func (h *Handlers) incidents(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(), `
		SELECT i.code, i.creation_date, i.status
		FROM incidents i
		JOIN incidents_people ip ON i.code = ip.incident_code
		WHERE ip.person_dni = $1`, c.Param("dni"))
	if err != nil {
		log.Error().Err(err).Msg("person incidents")
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
		log.Error().Err(err).Msg("person incidents")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener las incidencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}

// relatedPeople lists people that share at least one incident with the
// given person. An empty result is a 404, not an empty list.
func (h *Handlers) relatedPeople(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(), `
		SELECT p2.dni, p2.first_name, p2.last_name1, p2.last_name2
		FROM incidents_people ip1
		JOIN incidents_people ip2
			ON ip1.incident_code = ip2.incident_code
			AND ip1.person_dni <> ip2.person_dni
		JOIN people p2 ON p2.dni = ip2.person_dni
		WHERE ip1.person_dni = $1
		GROUP BY p2.dni, p2.first_name, p2.last_name1, p2.last_name2`, c.Param("dni"))
	if err != nil {
		log.Error().Err(err).Msg("related people")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
	}
	defer rows.Close()

	type row struct {
		CoincideCon string `json:"coincide_con"`
		FirstName   string `json:"first_name"`
		LastName1   string `json:"last_name1"`
		LastName2   string `json:"last_name2"`
	}
	data := []row{}
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.CoincideCon, &r.FirstName, &r.LastName1, &r.LastName2); err != nil {
			log.Error().Err(err).Msg("scan related person")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
		}
		data = append(data, r)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("related people")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener coincidencias"})
	}
	if len(data) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "No se encontraron coincidencias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}

// relatedVehicles lists vehicles seen in the same incidents as the person.
func (h *Handlers) relatedVehicles(c echo.Context) error {
	rows, err := h.db.QueryContext(c.Request().Context(), `
		SELECT v.license_plate, v.brand, v.model, v.color
		FROM incidents_people ip
		JOIN incidents_vehicles iv ON ip.incident_code = iv.incident_code
		JOIN vehicles v ON v.license_plate = iv.vehicle_license_plate
		WHERE ip.person_dni = $1
		GROUP BY v.license_plate, v.brand, v.model, v.color`, c.Param("dni"))
	if err != nil {
		log.Error().Err(err).Msg("related vehicles")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener vehículos coincidentes"})
	}
	defer rows.Close()

	type row struct {
		LicensePlate string `json:"license_plate"`
		Brand        string `json:"brand"`
		Model        string `json:"model"`
		Color        string `json:"color"`
	}
	data := []row{}
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.LicensePlate, &r.Brand, &r.Model, &r.Color); err != nil {
			log.Error().Err(err).Msg("scan related vehicle")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener vehículos coincidentes"})
		}
		data = append(data, r)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("related vehicles")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error al obtener vehículos coincidentes"})
	}
	if len(data) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "message": "No se encontraron vehículos coincidentes"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "data": data})
}
