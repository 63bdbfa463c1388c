package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"novelbit/api/models"
	"novelbit/config"
	"novelbit/fingerprint"
	"novelbit/novelbit"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:api_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	n, err := novelbit.New(
		novelbit.WithStorageConn(db),
		novelbit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	require.NoError(t, n.Storage.Build(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRouter(ctx, n, cfg, time.Now()), db
}

func do(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// fmt15 mimics clients that send fingerprints with 15 decimals.
func fmt15(v float64) string { return strconv.FormatFloat(v, 'f', 15, 64) }

func saveBody(path, text string) map[string]any {
	a := fingerprint.Compute(path)
	d := fingerprint.Compute(text)
	return map[string]any{
		"attributeText":   path,
		"attributeBitMax": a.Max,
		"attributeBitMin": a.Min,
		"text":            text,
		"dataBitMax":      d.Max,
		"dataBitMin":      d.Min,
		"metadata":        map[string]any{"novelTitle": "Novel"},
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	w := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.HealthResponse](t, w)
	assert.True(t, res.OK)
	assert.Equal(t, "sqlite", res.Storage)
}

func TestFingerprintEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := do(t, r, http.MethodPost, "/api/fingerprint", map[string]string{"text": "가나다"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.FingerprintResponse](t, w)
	assert.InDelta(t, 0.055, res.Max, 1e-9)
	assert.InDelta(t, 8.25, res.Min, 1e-9)
	assert.Equal(t, 3, res.Length)
	assert.True(t, res.Valid)

	w = do(t, r, http.MethodPost, "/api/fingerprint/batch", map[string][]string{"texts": {"AB", ""}})
	require.Equal(t, http.StatusOK, w.Code)
	batch := decode[models.FingerprintBatchResponse](t, w)
	require.Len(t, batch.Results, 2)
	assert.InDelta(t, 5.39, batch.Results[0].Max, 1e-9)
	assert.Equal(t, fingerprint.DefaultBase/100, batch.Results[1].Max)
}

func TestOversizeInput(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	long := strings.Repeat("a", novelbit.DefaultMaxRunes+1)

	w := do(t, r, http.MethodPost, "/api/fingerprint", map[string]string{"text": long})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/fingerprint/batch", map[string][]string{"texts": {"ok", long}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/fingerprint/batch", map[string][]string{"texts": make([]string, 101)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/fingerprint/batch", map[string][]string{"texts": make([]string, 100)})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/attributes/autosave", map[string]any{"attributeText": "A", "text": long})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/attributes/search?q="+long, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDataLifecycle(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	path := "Novel → Chapter 1 → Characters"
	body := saveBody(path, "Mina, a courier")

	w := do(t, r, http.MethodPost, "/api/attributes/data", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[models.SaveDataResponse](t, w)
	assert.True(t, saved.OK)
	assert.False(t, saved.Duplicate)
	assert.NotEmpty(t, saved.Record.UUID)

	w = do(t, r, http.MethodPost, "/api/attributes/data", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.SaveDataResponse](t, w).Duplicate)

	attr := fingerprint.Compute(path)
	q := url.Values{"bitMax": {fmt15(attr.Max)}, "bitMin": {fmt15(attr.Min)}}
	w = do(t, r, http.MethodGet, "/api/attributes/data?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.DataListResponse](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Mina, a courier", list.Items[0].Data.Text)
	assert.Equal(t, path, list.Items[0].Attribute.Text)
	assert.Equal(t, "Novel", list.Items[0].Metadata["novelTitle"])
	assert.NotZero(t, list.Items[0].T)

	w = do(t, r, http.MethodGet, "/api/attributes/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[models.AttributesResponse](t, w)
	require.Equal(t, 1, all.Count)
	assert.Equal(t, path, all.Attributes[0].Text)

	q.Set("text", "Mina, a courier")
	w = do(t, r, http.MethodGet, "/api/attributes/verify?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.VerifyResponse](t, w).Exists)

	data := fingerprint.Compute("Mina, a courier")
	del := map[string]any{
		"attributeBitMax": attr.Max, "attributeBitMin": attr.Min,
		"dataBitMax": data.Max + 1, "dataBitMin": data.Min,
	}
	w = do(t, r, http.MethodPost, "/api/attributes/data/delete", del)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[models.DeleteResponse](t, w).DeletedCount)

	del["dataBitMax"] = data.Max + 1e-12
	w = do(t, r, http.MethodPost, "/api/attributes/data/delete", del)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.DeleteResponse](t, w).DeletedCount)

	w = do(t, r, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.StatsResponse](t, w)
	assert.Equal(t, 1, stats.Attributes)
	assert.Equal(t, 0, stats.Records)
	assert.Equal(t, 1, stats.EmptyAttributes)

	w = do(t, r, http.MethodPost, "/api/attributes/delete", map[string]any{"attributeText": path})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.DeleteResponse](t, w)
	assert.Equal(t, 1, res.DeletedCount)
	require.NotNil(t, res.DeletedAttributes)
	assert.Equal(t, 1, *res.DeletedAttributes)

	w = do(t, r, http.MethodPost, "/api/attributes/delete", map[string]any{"attributeBitMax": attr.Max, "attributeBitMin": attr.Min})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[models.DeleteResponse](t, w).DeletedCount)
}

func TestDeleteCollidingPaths(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	ch3, ch4 := "Novel → Chapter 3", "Novel → Chapter 4"
	attr := fingerprint.Compute(ch3)
	require.True(t, attr.Equal(fingerprint.Compute(ch4).Fingerprint))

	for _, path := range []string{ch3, ch4} {
		w := do(t, r, http.MethodPost, "/api/attributes/data", saveBody(path, "x"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.False(t, decode[models.SaveDataResponse](t, w).Duplicate, path)
	}

	data := fingerprint.Compute("x")
	w := do(t, r, http.MethodPost, "/api/attributes/data/delete", map[string]any{
		"attributeText":   ch3,
		"attributeBitMax": attr.Max, "attributeBitMin": attr.Min,
		"dataBitMax": data.Max, "dataBitMin": data.Min,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.DeleteResponse](t, w).DeletedCount)

	w = do(t, r, http.MethodPost, "/api/attributes/delete", map[string]any{
		"attributeText":   ch3,
		"attributeBitMax": attr.Max, "attributeBitMin": attr.Min,
	})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.DeleteResponse](t, w)
	require.NotNil(t, res.DeletedAttributes)
	assert.Equal(t, 1, *res.DeletedAttributes)

	w = do(t, r, http.MethodGet, "/api/attributes/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[models.AttributesResponse](t, w)
	require.Equal(t, 1, all.Count)
	assert.Equal(t, ch4, all.Attributes[0].Text)

	w = do(t, r, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.StatsResponse](t, w).Records)
}

func TestSearchEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	for _, p := range []string{"Chapter 2", "Chapter 1: Intro", "Chapter 1"} {
		w := do(t, r, http.MethodPost, "/api/attributes/data", saveBody(p, "body of "+p))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := do(t, r, http.MethodGet, "/api/attributes/search?q="+url.QueryEscape("Chapter 1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.SearchResponse](t, w)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "Chapter 1", res.Attributes[0].Text)
	assert.Equal(t, "Chapter 1: Intro", res.Attributes[1].Text)

	w = do(t, r, http.MethodGet, "/api/attributes/search?keywords=intro,+missing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[models.SearchResponse](t, w)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "Chapter 1: Intro", res.Attributes[0].Text)

	w = do(t, r, http.MethodGet, "/api/attributes/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidInput(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	cases := []struct {
		method, target string
		body           any
	}{
		{http.MethodGet, "/api/attributes/data?bitMin=1", nil},
		{http.MethodGet, "/api/attributes/data?bitMax=1&bitMin=1&limit=-3", nil},
		{http.MethodPost, "/api/attributes/data", map[string]any{"attributeText": "a"}},
		{http.MethodPost, "/api/attributes/data/delete", map[string]any{"attributeBitMax": 1}},
		{http.MethodPost, "/api/attributes/delete", map[string]any{}},
		{http.MethodPost, "/api/attributes/data", map[string]any{
			"attributeText": "a", "attributeBitMax": 500, "attributeBitMin": 1,
			"text": "x", "dataBitMax": 1, "dataBitMin": 1,
		}},
	}
	for _, tc := range cases {
		w := do(t, r, tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tc.method, tc.target)
		res := decode[models.ErrorResponse](t, w)
		assert.False(t, res.OK)
		require.NotNil(t, res.Error)
		assert.Equal(t, models.ErrCodeInvalidInput, res.Error.Code)
	}
}

func TestStorageUnavailable(t *testing.T) {
	r, db := newTestRouter(t, testConfig())
	_ = db.Close()

	w := do(t, r, http.MethodGet, "/api/attributes/all", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	res := decode[models.ErrorResponse](t, w)
	assert.Equal(t, models.ErrCodeStorageUnavailable, res.Error.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	r, _ := newTestRouter(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/attributes/all", nil).Code)
	w := do(t, r, http.MethodGet, "/api/attributes/all", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, models.ErrCodeRateLimited, decode[models.ErrorResponse](t, w).Error.Code)

	// health is outside the limiter
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/health", nil).Code)
}

func TestAutosaveEndpoint(t *testing.T) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:api_autosave_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	n, err := novelbit.New(
		novelbit.WithStorageConn(db),
		novelbit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	require.NoError(t, n.Storage.Build(context.Background()))
	r := NewRouter(context.Background(), n, testConfig(), time.Now())

	path := "Novel → Chapter 2"
	w := do(t, r, http.MethodPost, "/api/attributes/autosave", map[string]any{
		"attributeText": path, "text": "draft", "metadata": map[string]any{"chapter": 2},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.True(t, decode[models.AutosaveResponse](t, w).Queued)

	w = do(t, r, http.MethodPost, "/api/attributes/autosave", map[string]any{"attributeText": path})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, n.Shutdown(context.Background()))

	fp := fingerprint.Compute(path).Fingerprint
	w = do(t, r, http.MethodGet, "/api/attributes/data?bitMax="+fmt15(fp.Max)+"&bitMin="+fmt15(fp.Min), nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.DataListResponse](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "draft", list.Items[0].Data.Text)

	// closed after shutdown
	w = do(t, r, http.MethodPost, "/api/attributes/autosave", map[string]any{"attributeText": path, "text": "late"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.ErrCodeQueueFull, decode[models.ErrorResponse](t, w).Error.Code)
}
