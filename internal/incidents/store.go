package incidents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("incident: not found")

// Store runs incident persistence. Writes that touch link tables happen
// inside a single transaction.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateInput carries an incident row plus the people, vehicles and image
// URLs to attach to it.
type CreateInput struct {
	Status          string
	Location        string
	Type            string
	Description     string
	BrigadeField    bool
	CreatorUserCode string
	People          []Person
	Vehicles        []Vehicle
	Images          []string
}

// Create inserts the incident, upserts the referenced people and vehicles
// and writes the link rows, all in one transaction.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Incident, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var inc Incident
	var closure sql.NullString
	err = tx.QueryRowContext(ctx, `
		INSERT INTO incidents (creation_date, status, location, type, description, brigade_field, creator_user_code)
		VALUES (NOW(), $1, $2, $3, $4, $5, $6)
		RETURNING code, creation_date, status, location, type, description, brigade_field, creator_user_code, closure_user_code`,
		in.Status, in.Location, in.Type, in.Description, in.BrigadeField, in.CreatorUserCode,
	).Scan(&inc.Code, &inc.CreationDate, &inc.Status, &inc.Location, &inc.Type,
		&inc.Description, &inc.BrigadeField, &inc.CreatorUserCode, &closure)
	if err != nil {
		return nil, fmt.Errorf("insert incident: %w", err)
	}
	if closure.Valid {
		inc.ClosureUserCode = &closure.String
	}

	if err := linkPeople(ctx, tx, inc.Code, in.People); err != nil {
		return nil, err
	}
	if err := linkVehicles(ctx, tx, inc.Code, in.Vehicles); err != nil {
		return nil, err
	}
	for _, url := range in.Images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO incident_images (incident_code, url) VALUES ($1, $2)`,
			inc.Code, url); err != nil {
			return nil, fmt.Errorf("insert image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &inc, nil
}

// UpdateInput mirrors CreateInput for the update path. People and vehicle
// links are replaced wholesale. Images are replaced only when the slice is
// non-nil, matching the create/update asymmetry of the rest of the API.
type UpdateInput struct {
	Status          string
	Location        string
	Type            string
	Description     string
	BrigadeField    bool
	ClosureUserCode string
	People          []Person
	Vehicles        []Vehicle
	Images          []string
}

func (s *Store) Update(ctx context.Context, code int64, in UpdateInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var res sql.Result
	// The closing user is recorded only when the update actually closes
	// the incident.
	if in.Status == StatusClosed && in.ClosureUserCode != "" {
		res, err = tx.ExecContext(ctx, `
			UPDATE incidents
			SET status = $1, location = $2, type = $3, description = $4, brigade_field = $5, closure_user_code = $6
			WHERE code = $7`,
			in.Status, in.Location, in.Type, in.Description, in.BrigadeField, in.ClosureUserCode, code)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE incidents
			SET status = $1, location = $2, type = $3, description = $4, brigade_field = $5
			WHERE code = $6`,
			in.Status, in.Location, in.Type, in.Description, in.BrigadeField, code)
	}
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM incidents_people WHERE incident_code = $1`, code); err != nil {
		return fmt.Errorf("clear people links: %w", err)
	}
	if err := linkPeople(ctx, tx, code, in.People); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM incidents_vehicles WHERE incident_code = $1`, code); err != nil {
		return fmt.Errorf("clear vehicle links: %w", err)
	}
	if err := linkVehicles(ctx, tx, code, in.Vehicles); err != nil {
		return err
	}

	if in.Images != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM incident_images WHERE incident_code = $1`, code); err != nil {
			return fmt.Errorf("clear images: %w", err)
		}
		for _, url := range in.Images {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO incident_images (incident_code, url) VALUES ($1, $2)`,
				code, url); err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func linkPeople(ctx context.Context, tx *sql.Tx, code int64, people []Person) error {
	for _, p := range people {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO people (dni, first_name, last_name1, last_name2, phone_number)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (dni) DO NOTHING`,
			p.DNI, p.FirstName, p.LastName1, p.LastName2, p.PhoneNumber); err != nil {
			return fmt.Errorf("upsert person %s: %w", p.DNI, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO incidents_people (incident_code, person_dni) VALUES ($1, $2)`,
			code, p.DNI); err != nil {
			return fmt.Errorf("link person %s: %w", p.DNI, err)
		}
	}
	return nil
}

func linkVehicles(ctx context.Context, tx *sql.Tx, code int64, vehicles []Vehicle) error {
	for _, v := range vehicles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vehicles (license_plate, brand, model, color)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (license_plate) DO NOTHING`,
			v.LicensePlate, v.Brand, v.Model, v.Color); err != nil {
			return fmt.Errorf("upsert vehicle %s: %w", v.LicensePlate, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO incidents_vehicles (incident_code, vehicle_license_plate) VALUES ($1, $2)`,
			code, v.LicensePlate); err != nil {
			return fmt.Errorf("link vehicle %s: %w", v.LicensePlate, err)
		}
	}
	return nil
}

// Details is an incident with everything attached to it.
type Details struct {
	Incident Incident  `json:"incident"`
	People   []Person  `json:"people"`
	Vehicles []Vehicle `json:"vehicles"`
	Images   []Image   `json:"images"`
}

func (s *Store) List(ctx context.Context) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, creation_date, status, location, type, description, brigade_field, creator_user_code, closure_user_code
		FROM incidents ORDER BY creation_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	out := []Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inc)
	}
	return out, rows.Err()
}

func (s *Store) GetDetails(ctx context.Context, code int64) (*Details, error) {
	var inc Incident
	var closure sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT code, creation_date, status, location, type, description, brigade_field, creator_user_code, closure_user_code
		FROM incidents WHERE code = $1`, code,
	).Scan(&inc.Code, &inc.CreationDate, &inc.Status, &inc.Location, &inc.Type,
		&inc.Description, &inc.BrigadeField, &inc.CreatorUserCode, &closure)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	if closure.Valid {
		inc.ClosureUserCode = &closure.String
	}

	d := &Details{Incident: inc, People: []Person{}, Vehicles: []Vehicle{}, Images: []Image{}}

	peopleRows, err := s.db.QueryContext(ctx, `
		SELECT p.dni, p.first_name, p.last_name1, p.last_name2, p.phone_number
		FROM people p
		JOIN incidents_people ip ON p.dni = ip.person_dni
		WHERE ip.incident_code = $1`, code)
	if err != nil {
		return nil, fmt.Errorf("get incident people: %w", err)
	}
	defer peopleRows.Close()
	for peopleRows.Next() {
		var p Person
		if err := peopleRows.Scan(&p.DNI, &p.FirstName, &p.LastName1, &p.LastName2, &p.PhoneNumber); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		d.People = append(d.People, p)
	}
	if err := peopleRows.Err(); err != nil {
		return nil, err
	}

	vehicleRows, err := s.db.QueryContext(ctx, `
		SELECT v.license_plate, v.brand, v.model, v.color
		FROM vehicles v
		JOIN incidents_vehicles iv ON v.license_plate = iv.vehicle_license_plate
		WHERE iv.incident_code = $1`, code)
	if err != nil {
		return nil, fmt.Errorf("get incident vehicles: %w", err)
	}
	defer vehicleRows.Close()
	for vehicleRows.Next() {
		var v Vehicle
		if err := vehicleRows.Scan(&v.LicensePlate, &v.Brand, &v.Model, &v.Color); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		d.Vehicles = append(d.Vehicles, v)
	}
	if err := vehicleRows.Err(); err != nil {
		return nil, err
	}

	imageRows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_code, url FROM incident_images WHERE incident_code = $1`, code)
	if err != nil {
		return nil, fmt.Errorf("get incident images: %w", err)
	}
	defer imageRows.Close()
	for imageRows.Next() {
		var img Image
		if err := imageRows.Scan(&img.ID, &img.IncidentCode, &img.URL); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		d.Images = append(d.Images, img)
	}
	return d, imageRows.Err()
}

// Close marks the incident closed and records who closed it.
func (s *Store) Close(ctx context.Context, code int64, userCode string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE incidents SET status = $1, closure_user_code = $2 WHERE code = $3`,
		StatusClosed, userCode, code)
	if err != nil {
		return fmt.Errorf("close incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PeopleCount(ctx context.Context, code int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incidents_people WHERE incident_code = $1`, code).Scan(&n)
	return n, err
}

func (s *Store) VehiclesCount(ctx context.Context, code int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incidents_vehicles WHERE incident_code = $1`, code).Scan(&n)
	return n, err
}

func scanIncident(rows *sql.Rows) (*Incident, error) {
	var inc Incident
	var closure sql.NullString
	if err := rows.Scan(&inc.Code, &inc.CreationDate, &inc.Status, &inc.Location, &inc.Type,
		&inc.Description, &inc.BrigadeField, &inc.CreatorUserCode, &closure); err != nil {
		return nil, fmt.Errorf("scan incident: %w", err)
	}
	if closure.Valid {
		inc.ClosureUserCode = &closure.String
	}
	return &inc, nil
}
