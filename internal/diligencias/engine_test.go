package diligencias_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbadev/sigilo/internal/atestados"
	"github.com/arbadev/sigilo/internal/diligencias"
	"github.com/arbadev/sigilo/internal/plantillas"
)

type fixture struct {
	engine     *diligencias.Engine
	store      *diligencias.InMemoryStore
	atestados  *atestados.InMemoryStore
	plantillas *plantillas.InMemoryStore
	atestadoID int64
	templateID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	as := atestados.NewInMemoryStore()
	a := &atestados.Atestado{Numero: "2024-001", Fecha: time.Now()}
	require.NoError(t, as.Create(ctx, a))

	ps := plantillas.NewInMemoryStore()
	p := &plantillas.Plantilla{
		Name:      "Traffic",
		Content:   "Driver {nombre} plate {plate}",
		Variables: plantillas.Extract("Driver {nombre} plate {plate}"),
	}
	require.NoError(t, ps.Create(ctx, p))

	store := diligencias.NewInMemoryStore()
	return &fixture{
		engine:     diligencias.NewEngine(store, as, ps),
		store:      store,
		atestados:  as,
		plantillas: ps,
		atestadoID: a.ID,
		templateID: p.ID,
	}
}

func TestCreateAssignsSequentialOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "uno")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Orden)

	second, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "dos")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Orden)

	third, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "tres")
	require.NoError(t, err)
	assert.Equal(t, 3, third.Orden)
}

func TestOrdenGapsAreNotCompacted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "uno")
	require.NoError(t, err)
	second, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "dos")
	require.NoError(t, err)
	third, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "tres")
	require.NoError(t, err)

	// Deleting the middle entry leaves a gap; the next orden still comes
	// from the remaining max.
	require.NoError(t, f.engine.Delete(ctx, second.ID))
	fourth, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "cuatro")
	require.NoError(t, err)
	assert.Equal(t, third.Orden+1, fourth.Orden)

	items, err := f.engine.ListByAtestado(ctx, f.atestadoID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int{1, 3, 4}, []int{items[0].Orden, items[1].Orden, items[2].Orden})
}

func TestCreateUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Create(ctx, 999, f.templateID, []diligencias.ValuePair{}, "x")
	assert.ErrorIs(t, err, diligencias.ErrAtestadoNotFound)

	_, err = f.engine.Create(ctx, f.atestadoID, 999, []diligencias.ValuePair{}, "x")
	assert.ErrorIs(t, err, diligencias.ErrPlantillaNotFound)
}

func TestCreateDropsEmptyPairsUpdateKeepsThem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.engine.Create(ctx, f.atestadoID, f.templateID,
		[]diligencias.ValuePair{{Variable: "x", Value: ""}}, "texto")
	require.NoError(t, err)

	det, err := f.engine.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, det.Valores, "create must drop pairs with an empty value")

	// The same pair on update is kept, with valor defaulted to "".
	_, err = f.engine.Update(ctx, d.ID, []diligencias.ValuePair{{Variable: "x", Value: ""}}, "texto")
	require.NoError(t, err)

	det, err = f.engine.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, det.Valores, 1)
	assert.Equal(t, diligencias.ValorVariable{Variable: "x", Valor: ""}, det.Valores[0])
}

func TestCreateDropsPairsWithEmptyVariable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.engine.Create(ctx, f.atestadoID, f.templateID,
		[]diligencias.ValuePair{{Variable: "", Value: "orphan"}, {Variable: "nombre", Value: "Juan"}}, "t")
	require.NoError(t, err)

	det, err := f.engine.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, det.Valores, 1)
	assert.Equal(t, "nombre", det.Valores[0].Variable)
}

func TestUpdateReplacesValuesWholesale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.engine.Create(ctx, f.atestadoID, f.templateID,
		[]diligencias.ValuePair{{Variable: "nombre", Value: "Juan"}, {Variable: "plate", Value: "ABC-123"}}, "t1")
	require.NoError(t, err)

	updated, err := f.engine.Update(ctx, d.ID, []diligencias.ValuePair{{Variable: "nombre", Value: "Ana"}}, "t2")
	require.NoError(t, err)
	assert.Equal(t, "t2", updated.TextoFinal)

	det, err := f.engine.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, det.Valores, 1)
	assert.Equal(t, diligencias.ValorVariable{Variable: "nombre", Valor: "Ana"}, det.Valores[0])
}

func TestUpdateMissingEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Update(context.Background(), 404, []diligencias.ValuePair{}, "x")
	assert.ErrorIs(t, err, diligencias.ErrNotFound)
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.engine.Create(ctx, f.atestadoID, f.templateID,
		[]diligencias.ValuePair{{Variable: "nombre", Value: "Juan"}}, "P")
	require.NoError(t, err)

	det, err := f.engine.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "P", det.TextoFinal)
	require.Len(t, det.Valores, 1)
	assert.Equal(t, diligencias.ValorVariable{Variable: "nombre", Valor: "Juan"}, det.Valores[0])
}

func TestReorder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "a")
	require.NoError(t, err)
	b, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "b")
	require.NoError(t, err)

	err = f.engine.Reorder(ctx, f.atestadoID, []diligencias.Posicion{{ID: a.ID, Orden: 2}, {ID: b.ID, Orden: 1}})
	require.NoError(t, err)

	items, err := f.engine.ListByAtestado(ctx, f.atestadoID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}

func TestReorderSkipsForeignEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &atestados.Atestado{Numero: "2024-002", Fecha: time.Now()}
	require.NoError(t, f.atestados.Create(ctx, other))

	mine, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "mine")
	require.NoError(t, err)
	foreign, err := f.engine.Create(ctx, other.ID, f.templateID, []diligencias.ValuePair{}, "foreign")
	require.NoError(t, err)

	// The foreign id is ignored; the call still succeeds.
	err = f.engine.Reorder(ctx, f.atestadoID, []diligencias.Posicion{{ID: mine.ID, Orden: 5}, {ID: foreign.ID, Orden: 9}})
	require.NoError(t, err)

	det, err := f.engine.Get(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, det.Orden, "foreign entry must keep its orden")

	det, err = f.engine.Get(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, det.Orden)
}

func TestReorderUnknownAtestado(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Reorder(context.Background(), 999, []diligencias.Posicion{})
	assert.ErrorIs(t, err, diligencias.ErrAtestadoNotFound)
}

func TestDeleteMissingEntry(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.engine.Delete(context.Background(), 404), diligencias.ErrNotFound)
}

func TestDeleteAtestadoCascadesToEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.atestados.DeleteHook = f.store.DeleteByAtestado

	first, err := f.engine.Create(ctx, f.atestadoID, f.templateID,
		[]diligencias.ValuePair{{Variable: "nombre", Value: "Juan"}}, "uno")
	require.NoError(t, err)
	second, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{}, "dos")
	require.NoError(t, err)

	require.NoError(t, f.atestados.Delete(ctx, f.atestadoID))

	items, err := f.engine.ListByAtestado(ctx, f.atestadoID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = f.engine.Get(ctx, first.ID)
	assert.ErrorIs(t, err, diligencias.ErrNotFound)
	_, err = f.engine.Get(ctx, second.ID)
	assert.ErrorIs(t, err, diligencias.ErrNotFound)
}

func TestScenarioTrafficAccident(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	preview := "Driver Juan Pérez plate ABC-123 had an accident"
	d, err := f.engine.Create(ctx, f.atestadoID, f.templateID, []diligencias.ValuePair{
		{Variable: "nombre", Value: "Juan Pérez"},
		{Variable: "plate", Value: "ABC-123"},
	}, preview)
	require.NoError(t, err)

	items, err := f.engine.ListByAtestado(ctx, f.atestadoID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, d.ID, items[0].ID)
	assert.Equal(t, 1, items[0].Orden)
	assert.Equal(t, preview, items[0].TextoFinal)
	assert.Len(t, items[0].Valores, 2)
}
