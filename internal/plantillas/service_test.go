package plantillas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStoresExtractedVariables(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, "Trafico", "accidentes", "Driver {nombre} plate {plate}")
	require.NoError(t, err)
	assert.Equal(t, []string{"nombre", "plate"}, p.Variables)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"nombre", "plate"}, got.Variables)
}

func TestUpdateRecomputesVariables(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, "Trafico", "", "Driver {nombre}")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, "Trafico", "", "At {lugar} on {fecha}")
	require.NoError(t, err)
	assert.Equal(t, []string{"lugar", "fecha"}, updated.Variables)
}

func TestUpdateMissingPlantilla(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	_, err := svc.Update(context.Background(), 99, "x", "", "y")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateName(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, "Trafico", "", "a")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Trafico", "", "b")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestDeleteGuardedWhileInUse(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Trafico", "", "{nombre}")
	require.NoError(t, err)

	store.SetInUse(p.ID, true)
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrInUse)

	store.SetInUse(p.ID, false)
	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrderedByName(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	ctx := context.Background()

	for _, name := range []string{"Robo", "Accidente", "Denuncia"} {
		_, err := svc.Create(ctx, name, "", "text")
		require.NoError(t, err)
	}
	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Accidente", items[0].Name)
	assert.Equal(t, "Denuncia", items[1].Name)
	assert.Equal(t, "Robo", items[2].Name)
}
