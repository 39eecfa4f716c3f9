package diligencias

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Create(ctx context.Context, d *Diligencia, valores []ValorVariable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
        INSERT INTO diligencias (atestado_id, plantilla_id, texto_final, orden, created_at, updated_at)
        VALUES ($1, $2, $3,
                (SELECT COALESCE(MAX(orden), 0) + 1 FROM diligencias WHERE atestado_id = $1),
                NOW(), NOW())
        RETURNING id, orden, created_at, updated_at
    `, d.AtestadoID, d.PlantillaID, d.TextoFinal).Scan(&d.ID, &d.Orden, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert diligencia: %w", err)
	}

	for _, v := range valores {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO diligencia_valores (diligencia_id, variable, valor)
            VALUES ($1, $2, $3)
        `, d.ID, v.Variable, v.Valor); err != nil {
			return fmt.Errorf("insert valor %q: %w", v.Variable, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) UpdateTexto(ctx context.Context, id int64, textoFinal string, valores []ValorVariable) (*Diligencia, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var d Diligencia
	err = tx.QueryRowContext(ctx, `
        UPDATE diligencias
        SET texto_final=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING id, atestado_id, plantilla_id, texto_final, orden, created_at, updated_at
    `, textoFinal, id).Scan(&d.ID, &d.AtestadoID, &d.PlantillaID, &d.TextoFinal, &d.Orden, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update diligencia: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM diligencia_valores WHERE diligencia_id=$1`, id); err != nil {
		return nil, fmt.Errorf("delete valores: %w", err)
	}
	for _, v := range valores {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO diligencia_valores (diligencia_id, variable, valor)
            VALUES ($1, $2, $3)
        `, id, v.Variable, v.Valor); err != nil {
			return nil, fmt.Errorf("insert valor %q: %w", v.Variable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Detalle, error) {
	var det Detalle
	err := s.db.QueryRowContext(ctx, `
        SELECT d.id, d.atestado_id, d.plantilla_id, d.texto_final, d.orden, d.created_at, d.updated_at,
               p.name, p.content
        FROM diligencias d
        JOIN plantillas p ON p.id = d.plantilla_id
        WHERE d.id=$1
    `, id).Scan(&det.ID, &det.AtestadoID, &det.PlantillaID, &det.TextoFinal, &det.Orden,
		&det.CreatedAt, &det.UpdatedAt, &det.PlantillaNombre, &det.PlantillaContent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	det.Valores = []ValorVariable{}
	if err := s.loadValores(ctx, map[int64]*Detalle{det.ID: &det}); err != nil {
		return nil, err
	}
	return &det, nil
}

func (s *PostgresStore) ListByAtestado(ctx context.Context, atestadoID int64) ([]*Detalle, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT d.id, d.atestado_id, d.plantilla_id, d.texto_final, d.orden, d.created_at, d.updated_at,
               p.name, p.content
        FROM diligencias d
        JOIN plantillas p ON p.id = d.plantilla_id
        WHERE d.atestado_id=$1
        ORDER BY d.orden ASC, d.created_at ASC
    `, atestadoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Detalle, 0)
	byID := make(map[int64]*Detalle)
	for rows.Next() {
		var det Detalle
		if err := rows.Scan(&det.ID, &det.AtestadoID, &det.PlantillaID, &det.TextoFinal, &det.Orden,
			&det.CreatedAt, &det.UpdatedAt, &det.PlantillaNombre, &det.PlantillaContent); err != nil {
			return nil, err
		}
		det.Valores = []ValorVariable{}
		out = append(out, &det)
		byID[det.ID] = &det
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadValores(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diligencias WHERE id=$1`, id)
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

func (s *PostgresStore) Reorder(ctx context.Context, atestadoID int64, positions []Posicion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, pos := range positions {
		// Rows matching the id but not the atestado are skipped on purpose.
		if _, err := tx.ExecContext(ctx, `
            UPDATE diligencias SET orden=$1, updated_at=NOW()
            WHERE id=$2 AND atestado_id=$3
        `, pos.Orden, pos.ID, atestadoID); err != nil {
			return fmt.Errorf("update orden for %d: %w", pos.ID, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) loadValores(ctx context.Context, byID map[int64]*Detalle) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT diligencia_id, variable, valor
        FROM diligencia_valores
        WHERE diligencia_id = ANY($1)
    `, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var v ValorVariable
		if err := rows.Scan(&id, &v.Variable, &v.Valor); err != nil {
			return err
		}
		if det, ok := byID[id]; ok {
			det.Valores = append(det.Valores, v)
		}
	}
	return rows.Err()
}
