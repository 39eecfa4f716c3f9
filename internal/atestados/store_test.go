package atestados

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRejectsDuplicateNumero(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &Atestado{Numero: "2024-001", Fecha: time.Now()}))

	err := store.Create(ctx, &Atestado{Numero: "2024-001", Fecha: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateNumero)
}

func TestCreateDefaultsEstado(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	a := &Atestado{Numero: "2024-001", Fecha: time.Now()}
	require.NoError(t, store.Create(ctx, a))

	got, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, EstadoActivo, got.Estado)
}

func TestListOrdersByFechaDesc(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	old := &Atestado{Numero: "2024-001", Fecha: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)}
	recent := &Atestado{Numero: "2024-002", Fecha: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Create(ctx, old))
	require.NoError(t, store.Create(ctx, recent))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-002", list[0].Numero)
	assert.Equal(t, "2024-001", list[1].Numero)
}

func TestUpdateMissingAtestado(t *testing.T) {
	store := NewInMemoryStore()
	err := store.Update(context.Background(), &Atestado{ID: 99, Numero: "2024-001"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsCountsByEstado(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &Atestado{Numero: "2024-001", Fecha: time.Now()}))
	require.NoError(t, store.Create(ctx, &Atestado{Numero: "2024-002", Fecha: time.Now()}))
	closed := &Atestado{Numero: "2024-003", Fecha: time.Now(), Estado: EstadoCerrado}
	require.NoError(t, store.Create(ctx, closed))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Activos)
	assert.Equal(t, 1, stats.Cerrados)
}

func TestDeleteMissingAtestado(t *testing.T) {
	store := NewInMemoryStore()
	err := store.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
