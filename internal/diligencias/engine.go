package diligencias

import (
	"context"
	"fmt"
)

// AtestadoChecker reports whether a case file exists.
type AtestadoChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// PlantillaChecker reports whether a template exists.
type PlantillaChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Engine implements diligencia semantics on top of a Store: referential
// checks against atestados and plantillas, the value-pair persistence policy,
// and reordering.
type Engine struct {
	store      Store
	atestados  AtestadoChecker
	plantillas PlantillaChecker
}

func NewEngine(store Store, atestados AtestadoChecker, plantillas PlantillaChecker) *Engine {
	return &Engine{store: store, atestados: atestados, plantillas: plantillas}
}

// Create persists a new entry at the end of the atestado's sequence.
// TextoFinal stores previewText verbatim; rendering is the caller's job.
// Pairs where either side is empty are silently dropped.
func (e *Engine) Create(ctx context.Context, atestadoID, plantillaID int64, values []ValuePair, previewText string) (*Diligencia, error) {
	ok, err := e.atestados.Exists(ctx, atestadoID)
	if err != nil {
		return nil, fmt.Errorf("check atestado: %w", err)
	}
	if !ok {
		return nil, ErrAtestadoNotFound
	}
	ok, err = e.plantillas.Exists(ctx, plantillaID)
	if err != nil {
		return nil, fmt.Errorf("check plantilla: %w", err)
	}
	if !ok {
		return nil, ErrPlantillaNotFound
	}

	valores := make([]ValorVariable, 0, len(values))
	for _, v := range values {
		if v.Variable == "" || v.Value == "" {
			continue
		}
		valores = append(valores, ValorVariable{Variable: v.Variable, Valor: v.Value})
	}

	d := &Diligencia{
		AtestadoID:  atestadoID,
		PlantillaID: plantillaID,
		TextoFinal:  previewText,
	}
	if err := e.store.Create(ctx, d, valores); err != nil {
		return nil, err
	}
	return d, nil
}

// Update rewrites texto_final and replaces the value set wholesale. Unlike
// Create, pairs with an empty value are kept and stored with valor "". This
// asymmetry matches the system being replicated; callers depend on both
// behaviors, so neither side may be "fixed" to match the other.
func (e *Engine) Update(ctx context.Context, id int64, values []ValuePair, previewText string) (*Diligencia, error) {
	valores := make([]ValorVariable, 0, len(values))
	for _, v := range values {
		if v.Variable == "" {
			continue
		}
		valores = append(valores, ValorVariable{Variable: v.Variable, Valor: v.Value})
	}
	return e.store.UpdateTexto(ctx, id, previewText, valores)
}

func (e *Engine) Get(ctx context.Context, id int64) (*Detalle, error) {
	return e.store.GetByID(ctx, id)
}

func (e *Engine) ListByAtestado(ctx context.Context, atestadoID int64) ([]*Detalle, error) {
	return e.store.ListByAtestado(ctx, atestadoID)
}

func (e *Engine) Delete(ctx context.Context, id int64) error {
	return e.store.Delete(ctx, id)
}

// Reorder applies the given positions within one atestado. Positions whose id
// belongs to another atestado are skipped without error. The resulting orden
// values are not validated for uniqueness or contiguity.
func (e *Engine) Reorder(ctx context.Context, atestadoID int64, positions []Posicion) error {
	ok, err := e.atestados.Exists(ctx, atestadoID)
	if err != nil {
		return fmt.Errorf("check atestado: %w", err)
	}
	if !ok {
		return ErrAtestadoNotFound
	}
	return e.store.Reorder(ctx, atestadoID, positions)
}
