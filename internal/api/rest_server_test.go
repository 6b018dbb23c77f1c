package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
	"github.com/annel0/blockmodeler/internal/world/block"
)

func newTestServer(t *testing.T) (*RestServer, *world.Diagram) {
	t.Helper()
	d := world.NewDiagram(block.DefaultCatalog(), vec.Cube(10), world.WithLogger(logging.Discard()))
	err := d.WithTransaction(func(tx *world.Transaction) error {
		if err := tx.Place(vec.Vec3{X: 1, Y: 0, Z: 0}, 1, block.NoOrientation); err != nil {
			return err
		}
		return tx.Place(vec.Vec3{X: 2, Y: 0, Z: 0}, 1, block.NoOrientation)
	})
	require.NoError(t, err)

	rs := NewRestServer(Config{
		Oracle:   d,
		Registry: prometheus.NewRegistry(),
		Logger:   logging.Discard(),
	})
	return rs, d
}

func get(t *testing.T, rs *RestServer, path string) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	rs.Handler().ServeHTTP(rec, req)

	var resp GenericResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestRestServer_Block(t *testing.T) {
	rs, _ := newTestServer(t)

	rec, resp := get(t, rs, "/api/v1/blocks/1/0/0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "stone", data["name"])
	assert.Equal(t, true, data["exists"])

	rec, resp = get(t, rs, "/api/v1/blocks/5/5/5")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)

	rec, _ = get(t, rs, "/api/v1/blocks/a/0/0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, rs, "/api/v1/blocks/10/0/0")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "позиция вне границ")
}

func TestRestServer_ExistsAndMask(t *testing.T) {
	rs, _ := newTestServer(t)

	_, resp := get(t, rs, "/api/v1/blocks/1/0/0/exists")
	assert.Equal(t, true, resp.Data.(map[string]interface{})["exists"])

	rec, resp := get(t, rs, "/api/v1/blocks/1/0/0/mask")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, vec.FaceRight.Bit(), data["mask"])
	assert.Equal(t, []interface{}{"right"}, data["faces"])
}

func TestRestServer_Geometry(t *testing.T) {
	rs, _ := newTestServer(t)

	rec, resp := get(t, rs, "/api/v1/blocks/1/0/0/geometry")
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]interface{})
	polygons := data["polygons"].([]interface{})
	assert.Len(t, polygons, 5, "общая грань с соседом скрыта")
	for _, p := range polygons {
		assert.NotEqual(t, "right", p.(map[string]interface{})["face"])
	}

	_, resp = get(t, rs, "/api/v1/blocks/7/7/7/geometry")
	assert.Empty(t, resp.Data.(map[string]interface{})["polygons"])
}

func TestRestServer_DiagramAndBlocks(t *testing.T) {
	rs, d := newTestServer(t)

	_, resp := get(t, rs, "/api/v1/diagram")
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 2, data["blocks"])
	assert.EqualValues(t, 1, data["undo"])
	assert.NotEmpty(t, data["digest"])

	_, resp = get(t, rs, "/api/v1/blocks?y=0")
	assert.Len(t, resp.Data, 2)

	_, resp = get(t, rs, "/api/v1/blocks?y=3")
	assert.Empty(t, resp.Data)

	rec, _ := get(t, rs, "/api/v1/blocks?y=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Сервер читает актуальное состояние диаграммы
	require.NoError(t, d.Undo())
	_, resp = get(t, rs, "/api/v1/blocks")
	assert.Empty(t, resp.Data)
}

func TestRestServer_MaterialsAndCatalog(t *testing.T) {
	rs, _ := newTestServer(t)

	_, resp := get(t, rs, "/api/v1/materials")
	data := resp.Data.(map[string]interface{})
	materials := data["materials"].([]interface{})
	require.Len(t, materials, 1)
	assert.EqualValues(t, 2, materials[0].(map[string]interface{})["count"])

	_, resp = get(t, rs, "/api/v1/catalog")
	assert.Len(t, resp.Data, block.DefaultCatalog().Len())
}

func TestRestServer_HealthAndMetrics(t *testing.T) {
	rs, _ := newTestServer(t)

	rec, _ := get(t, rs, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	get(t, rs, "/api/v1/blocks/a/0/0")

	rec, _ = get(t, rs, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "modeler_api_http_request_duration_seconds")
	assert.Contains(t, body, `modeler_api_http_request_errors_total{method="GET",path="/api/v1/blocks/:x/:y/:z",status="400"} 1`)
}

func TestRestServer_CORSPreflight(t *testing.T) {
	rs, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/diagram", nil)
	rec := httptest.NewRecorder()
	rs.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "42с", formatUptime(42*time.Second))
	assert.Equal(t, "2м 5с", formatUptime(125*time.Second))
	assert.Equal(t, "1ч 0м 1с", formatUptime(time.Hour+time.Second))
	assert.Equal(t, "1д 2ч 0м 0с", formatUptime(26*time.Hour))
}
