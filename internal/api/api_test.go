package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/service"
	"github.com/Veraticus/weightbot/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var errBackendDown = errors.New("backend down")

type downBackend struct{ *feedback.MemoryBackend }

func (downBackend) UpsertFeedback(context.Context, model.FeedbackEntry) error {
	return errBackendDown
}

func newTestServer(t *testing.T, backend service.FeedbackBackend, opts Options) *Server {
	t.Helper()
	if backend == nil {
		backend = feedback.NewMemoryBackend()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC) }
	pipeline := engine.NewPipeline(nil, nil, engine.WithPipelineClock(now), engine.WithLogger(logger))
	store := feedback.NewStore(backend, logger, feedback.WithClock(now))
	return NewServer(pipeline, store, logger, opts)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	router := newTestServer(t, nil, Options{Version: "1.2.3"}).Router()

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestEstimate(t *testing.T) {
	router := newTestServer(t, nil, Options{}).Router()

	w := doJSON(t, router, http.MethodPost, "/api/v1/estimate", engine.Request{
		ProductCode: "K1",
		ProductName: "2L 전기 주전자",
		SpecText:    "박스 32x28x30cm",
		OptionNames: []string{"기본", "화이트 800W"},
		AllowanceCm: 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out engine.Output
	decode(t, w, &out)
	assert.Equal(t, model.CategoryKettle, out.Category)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "K1-01", out.Rows[0].OptionCode)
	assert.InDelta(t, 1.44, out.Rows[0].NetKg, 1e-9)
	assert.InDelta(t, 1.68, out.Rows[1].NetKg, 1e-9)
	assert.Equal(t, "34.0x32.0x30.0", out.Rows[0].BoxCm)
}

func TestEstimateRejectsBadInput(t *testing.T) {
	router := newTestServer(t, nil, Options{}).Router()

	tests := []struct {
		body any
		name string
	}{
		{name: "malformed json", body: "{not json"},
		{name: "negative option count", body: map[string]any{"product_name": "주전자", "option_count": -1}},
		{name: "too many options", body: map[string]any{"product_name": "주전자", "option_count": engine.MaxOptions + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/estimate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestClassify(t *testing.T) {
	router := newTestServer(t, nil, Options{}).Router()

	w := doJSON(t, router, http.MethodPost, "/api/v1/classify", ClassifyRequest{Text: "2L 전기 주전자"})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "kettle", body["category"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/classify", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedbackFlow(t *testing.T) {
	router := newTestServer(t, nil, Options{}).Router()

	w := doJSON(t, router, http.MethodPost, "/api/v1/feedback", FeedbackRequest{
		OptionKey: "K1-01",
		Category:  "kettle",
		Predicted: 1.44,
		Actual:    1.64,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entry model.FeedbackEntry
	decode(t, w, &entry)
	assert.InDelta(t, 0.2, entry.Delta, 1e-9)

	w = doJSON(t, router, http.MethodPost, "/api/v1/feedback", FeedbackRequest{
		OptionKey:   "S1-01",
		ProductName: "러닝 신발 270mm",
		Predicted:   0.8,
		Actual:      0.7,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &entry)
	assert.Equal(t, model.CategoryShoes, entry.Category)

	w = doJSON(t, router, http.MethodGet, "/api/v1/feedback", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Entries []model.FeedbackEntry `json:"entries"`
		Count   int                   `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Entries, 2)
	assert.Equal(t, "K1-01", list.Entries[0].OptionKey)

	w = doJSON(t, router, http.MethodGet, "/api/v1/feedback/deltas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deltas struct {
		Deltas map[string]float64 `json:"deltas"`
	}
	decode(t, w, &deltas)
	assert.InDelta(t, 0.2, deltas.Deltas["kettle"], 1e-9)

	// Later estimates carry the correction.
	w = doJSON(t, router, http.MethodPost, "/api/v1/estimate", engine.Request{
		ProductName: "2L 전기 주전자",
		SpecText:    "박스 32x28x30cm",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var out engine.Output
	decode(t, w, &out)
	require.Len(t, out.Rows, 1)
	assert.InDelta(t, 1.64, out.Rows[0].NetKg, 1e-9)
	assert.InDelta(t, 0.2, out.Rows[0].DeltaApplied, 1e-9)
}

func TestDeltasFromSeededDatabase(t *testing.T) {
	db := testutil.SetupTestStore(t, testutil.CategoryDeltas(map[model.Category]float64{
		model.CategoryKettle:  3.0,
		model.CategoryThermos: -0.1,
	})...)
	router := newTestServer(t, db.Storage, Options{}).Router()

	w := doJSON(t, router, http.MethodGet, "/api/v1/feedback/deltas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Deltas   map[string]float64 `json:"deltas"`
		MaxDelta float64            `json:"max_delta"`
	}
	decode(t, w, &body)
	assert.InDelta(t, feedback.MaxDelta, body.MaxDelta, 1e-9)
	assert.InDelta(t, 2.0, body.Deltas["kettle"], 1e-9, "clamped to the bound")
	assert.InDelta(t, -0.1, body.Deltas["thermos"], 1e-9)

	w = doJSON(t, router, http.MethodPost, "/api/v1/estimate", engine.Request{ProductName: "2L 전기 주전자"})
	require.Equal(t, http.StatusOK, w.Code)
	var out engine.Output
	decode(t, w, &out)
	require.Len(t, out.Rows, 1)
	assert.InDelta(t, 3.44, out.Rows[0].NetKg, 1e-9)
}

func TestFeedbackErrors(t *testing.T) {
	tests := []struct {
		backend  service.FeedbackBackend
		body     any
		name     string
		wantCode int
	}{
		{
			name:     "non positive actual",
			body:     FeedbackRequest{OptionKey: "K1-01", Category: "kettle", Predicted: 1.4},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing option key",
			body:     map[string]any{"predicted": 1, "actual": 2},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown category",
			body:     FeedbackRequest{OptionKey: "K1-01", Category: "spaceship", Predicted: 1, Actual: 2},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "storage failure",
			backend:  downBackend{feedback.NewMemoryBackend()},
			body:     FeedbackRequest{OptionKey: "K1-01", Category: "kettle", Predicted: 1, Actual: 2},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestServer(t, tt.backend, Options{}).Router()
			w := doJSON(t, router, http.MethodPost, "/api/v1/feedback", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router := newTestServer(t, nil, Options{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "trace-42", w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	router := newTestServer(t, nil, Options{RateLimit: 0.001, Burst: 1}).Router()

	w := doJSON(t, router, http.MethodPost, "/api/v1/classify", ClassifyRequest{Text: "주전자"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/classify", ClassifyRequest{Text: "주전자"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Health stays outside the limiter.
	w = doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	router := newTestServer(t, nil, Options{AllowedOrigins: []string{"https://ops.example.com"}}).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
