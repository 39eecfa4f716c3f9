package plantillas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*echo.Echo, *InMemoryStore) {
	t.Helper()
	e := echo.New()
	store := NewInMemoryStore()
	NewHandlers(NewService(store)).RegisterHandlers(e.Group(""))
	return e, store
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreatePlantillaExtractsVariables(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/plantillas",
		`{"name":"Citación","description":"","content":"Se cita a {nombre} con DNI {dni}"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		OK        bool      `json:"ok"`
		Plantilla Plantilla `json:"plantilla"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, []string{"nombre", "dni"}, resp.Plantilla.Variables)
}

func TestCreatePlantillaMissingFields(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/plantillas", `{"name":"","content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":false`)
}

func TestCreatePlantillaDuplicateName(t *testing.T) {
	e, _ := newTestServer(t)

	first := doJSON(e, http.MethodPost, "/plantillas", `{"name":"Acta","content":"Texto"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(e, http.MethodPost, "/plantillas", `{"name":"Acta","content":"Otro texto"}`)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Contains(t, second.Body.String(), "Ya existe una plantilla")
}

func TestGetPlantillaNotFound(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/plantillas/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPlantillaBadID(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/plantillas/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletePlantillaInUse(t *testing.T) {
	e, store := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/plantillas", `{"name":"Acta","content":"Texto {x}"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Plantilla Plantilla `json:"plantilla"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	store.SetInUse(resp.Plantilla.ID, true)

	del := doJSON(e, http.MethodDelete, "/plantillas/1", "")
	assert.Equal(t, http.StatusBadRequest, del.Code)
	assert.Contains(t, del.Body.String(), "en uso")

	got, err := store.GetByID(context.Background(), resp.Plantilla.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acta", got.Name)
}
