package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-prefs/internal/engine"
	"github.com/celerix-dev/celerix-prefs/pkg/schema"
)

func setupTestRouter(token string) (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	store := engine.NewMemStore(nil, nil)
	h := &Handler{Store: store}
	r := gin.New()
	r.Use(Tracing())

	g := r.Group("/api", RequireToken(token))
	h.Register(g)
	return r, h
}

func do(r http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetSuites(t *testing.T) {
	r, h := setupTestRouter("")

	w := do(r, http.MethodGet, "/api/suites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	require.NoError(t, h.Store.Set("s1", "k1", "v1"))
	w = do(r, http.MethodGet, "/api/suites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["s1"]`, w.Body.String())
}

func TestSetGetDelete(t *testing.T) {
	r, _ := setupTestRouter("")

	w := do(r, http.MethodPut, "/api/suites/app/keys/window", map[string]any{"w": 800})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/suites/app/keys/window", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entry schema.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "app", entry.Suite)
	assert.Equal(t, "window", entry.Key)
	assert.Equal(t, map[string]any{"w": float64(800)}, entry.Value)

	w = do(r, http.MethodGet, "/api/suites/app", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap schema.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "app", snap.Suite)
	assert.Contains(t, snap.Entries, "window")
	assert.False(t, snap.ExportedAt.IsZero())

	w = do(r, http.MethodDelete, "/api/suites/app/keys/window", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/suites/app/keys/window", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetNullRemoves(t *testing.T) {
	r, h := setupTestRouter("")
	require.NoError(t, h.Store.Set("app", "k", "v"))

	req := httptest.NewRequest(http.MethodPut, "/api/suites/app/keys/k", bytes.NewBufferString("null"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := h.Store.Get("app", "k")
	assert.Error(t, err)
}

func TestSetInvalidJSON(t *testing.T) {
	r, _ := setupTestRouter("")

	req := httptest.NewRequest(http.MethodPut, "/api/suites/app/keys/k", bytes.NewBufferString("{bad"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSuiteMissing(t *testing.T) {
	r, _ := setupTestRouter("")

	w := do(r, http.MethodGet, "/api/suites/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMove(t *testing.T) {
	r, h := setupTestRouter("")
	require.NoError(t, h.Store.Set("src", "k1", "v1"))

	w := do(r, http.MethodPost, "/api/move", schema.MoveRequest{Src: "src", Dst: "dst", Key: "k1"})
	require.Equal(t, http.StatusOK, w.Code)

	val, err := h.Store.Get("dst", "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	w = do(r, http.MethodPost, "/api/move", schema.MoveRequest{Src: "src", Dst: "dst", Key: "k1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMove_InvalidInput(t *testing.T) {
	r, _ := setupTestRouter("")

	w := do(r, http.MethodPost, "/api/move", map[string]string{"src": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireToken(t *testing.T) {
	r, _ := setupTestRouter("s3cret")

	w := do(r, http.MethodGet, "/api/suites", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/suites", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/suites", nil, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetKeepsLargeIntegers(t *testing.T) {
	r, h := setupTestRouter("")

	req := httptest.NewRequest(http.MethodPut, "/api/suites/app/keys/id", bytes.NewBufferString("9007199254740993"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	val, err := h.Store.Get("app", "id")
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), val)

	w = do(r, http.MethodGet, "/api/suites/app/keys/id", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"value":9007199254740993`)
}
