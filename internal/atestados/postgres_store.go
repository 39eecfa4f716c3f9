package atestados

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Create(ctx context.Context, a *Atestado) error {
	if a.Estado == "" {
		a.Estado = EstadoActivo
	}
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO atestados (numero, fecha, descripcion, estado, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING id, created_at, updated_at
    `, a.Numero, a.Fecha, a.Descripcion, a.Estado).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if isPQError(err, pqUniqueViolation) {
		return ErrDuplicateNumero
	}
	return err
}

func (s *PostgresStore) Update(ctx context.Context, a *Atestado) error {
	err := s.db.QueryRowContext(ctx, `
        UPDATE atestados
        SET numero=$1, fecha=$2, descripcion=$3, estado=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING created_at, updated_at
    `, a.Numero, a.Fecha, a.Descripcion, a.Estado, a.ID).Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isPQError(err, pqUniqueViolation) {
		return ErrDuplicateNumero
	}
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Atestado, error) {
	var a Atestado
	err := s.db.QueryRowContext(ctx, `
        SELECT a.id, a.numero, a.fecha, coalesce(a.descripcion,''), a.estado, a.created_at, a.updated_at,
               (SELECT COUNT(*) FROM diligencias d WHERE d.atestado_id = a.id)
        FROM atestados a WHERE a.id=$1
    `, id).Scan(&a.ID, &a.Numero, &a.Fecha, &a.Descripcion, &a.Estado, &a.CreatedAt, &a.UpdatedAt, &a.TotalDiligencias)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Atestado, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT a.id, a.numero, a.fecha, coalesce(a.descripcion,''), a.estado, a.created_at, a.updated_at,
               COUNT(d.id)
        FROM atestados a
        LEFT JOIN diligencias d ON d.atestado_id = a.id
        GROUP BY a.id
        ORDER BY a.fecha DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*Atestado, 0)
	for rows.Next() {
		var a Atestado
		if err := rows.Scan(&a.ID, &a.Numero, &a.Fecha, &a.Descripcion, &a.Estado, &a.CreatedAt, &a.UpdatedAt, &a.TotalDiligencias); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Delete removes the atestado; its diligencias and their valores go with it
// via ON DELETE CASCADE.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM atestados WHERE id=$1`, id)
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
		`SELECT EXISTS(SELECT 1 FROM atestados WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE estado = $1),
               COUNT(*) FILTER (WHERE estado = $2)
        FROM atestados
    `, EstadoActivo, EstadoCerrado).Scan(&st.Total, &st.Activos, &st.Cerrados)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func isPQError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
