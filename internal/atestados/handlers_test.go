package atestados

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpdateServer(t *testing.T) (*echo.Echo, *InMemoryStore) {
	t.Helper()
	e := echo.New()
	store := NewInMemoryStore()
	// The get route needs the diligencia engine; update does not.
	NewHandlers(store, nil).RegisterHandlers(e.Group(""))
	return e, store
}

func putJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestUpdateWithoutEstadoKeepsStoredEstado(t *testing.T) {
	e, store := newUpdateServer(t)
	ctx := context.Background()

	a := &Atestado{Numero: "2024-001", Fecha: time.Now(), Estado: EstadoCerrado}
	require.NoError(t, store.Create(ctx, a))

	rec := putJSON(e, "/atestados/1",
		`{"numero":"2024-001-bis","fecha":"2024-02-01","descripcion":"revisado"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, EstadoCerrado, got.Estado, "an estado-less update must not reopen a closed atestado")
	assert.Equal(t, "2024-001-bis", got.Numero)
}

func TestUpdateWithEstadoChangesIt(t *testing.T) {
	e, store := newUpdateServer(t)
	ctx := context.Background()

	a := &Atestado{Numero: "2024-001", Fecha: time.Now()}
	require.NoError(t, store.Create(ctx, a))

	rec := putJSON(e, "/atestados/1",
		`{"numero":"2024-001","fecha":"2024-02-01","estado":"cerrado"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, EstadoCerrado, got.Estado)
}

func TestUpdateMissingAtestadoReturns404(t *testing.T) {
	e, _ := newUpdateServer(t)

	rec := putJSON(e, "/atestados/99",
		`{"numero":"2024-009","fecha":"2024-02-01"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
