package plantillas

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Create(ctx context.Context, p *Plantilla) error {
	varsJSON, err := json.Marshal(ensureSliceNotNil(p.Variables))
	if err != nil {
		return err
	}
	err = s.db.QueryRowContext(ctx, `
        INSERT INTO plantillas (name, description, content, variables, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING id, created_at, updated_at
    `, p.Name, p.Description, p.Content, varsJSON).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isPQError(err, pqUniqueViolation) {
		return ErrDuplicateName
	}
	return err
}

func (s *PostgresStore) Update(ctx context.Context, p *Plantilla) error {
	varsJSON, err := json.Marshal(ensureSliceNotNil(p.Variables))
	if err != nil {
		return err
	}
	err = s.db.QueryRowContext(ctx, `
        UPDATE plantillas
        SET name=$1, description=$2, content=$3, variables=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING created_at, updated_at
    `, p.Name, p.Description, p.Content, varsJSON, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isPQError(err, pqUniqueViolation) {
		return ErrDuplicateName
	}
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Plantilla, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, name, coalesce(description,''), content, variables, created_at, updated_at
        FROM plantillas WHERE id=$1
    `, id)
	return scanPlantilla(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Plantilla, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, coalesce(description,''), content, variables, created_at, updated_at
        FROM plantillas ORDER BY name ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	// Always return a non-nil slice so JSON encodes as [] instead of null
	out := make([]*Plantilla, 0)
	for rows.Next() {
		p, err := scanPlantilla(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plantillas WHERE id=$1`, id)
	if isPQError(err, pqForeignKeyViolation) {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM plantillas WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) InUse(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM diligencias WHERE plantilla_id=$1)`, id).Scan(&used)
	return used, err
}

func scanPlantilla(scanner interface{ Scan(dest ...any) error }) (*Plantilla, error) {
	var p Plantilla
	var varsJSON []byte
	if err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.Content, &varsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(varsJSON) > 0 {
		if err := json.Unmarshal(varsJSON, &p.Variables); err != nil {
			return nil, err
		}
	}
	if p.Variables == nil {
		p.Variables = []string{}
	}
	return &p, nil
}

func isPQError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func ensureSliceNotNil(slice []string) []string {
	if slice == nil {
		return []string{}
	}
	return slice
}
