package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/metrics"
	"github.com/insightdelivered/statement-extractor/internal/store"
)

func setupTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	registry := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector("test")
	require.NoError(t, collector.Register(registry))

	st := store.NewMemoryStore()
	h := &Handler{Store: st, Metrics: collector, Log: logging.NewNoOpLogger()}
	return NewApp(h, ServerOptions{Gatherer: registry}), st
}

func fixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../parser/testdata/jrmartin_statement.txt")
	require.NoError(t, err)
	return string(data)
}

func postJSON(t *testing.T, app *fiber.App, body any) (*http.Response, ExtractResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/extract", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return doExtract(t, app, req)
}

func doExtract(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, ExtractResponse) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %q", body["status"])
	}
	if body["engine"] != "fiber" {
		t.Fatalf("expected engine fiber, got %q", body["engine"])
	}
}

func TestExtractJSONText(t *testing.T) {
	app, st := setupTestApp(t)

	resp, out := postJSON(t, app, map[string]any{
		"text":     fixture(t),
		"mode":     "bank",
		"filename": "jrmartin.pdf",
		"debug":    true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)
	assert.True(t, out.Success)
	assert.Equal(t, "text", out.Source)
	assert.Equal(t, 5, out.Count)
	require.NotNil(t, out.Statement)
	assert.Len(t, out.Statement.Transactions, 5)
	assert.Equal(t, "5234.09", out.Statement.Summary.OpeningBalance.StringFixed(2))
	assert.NotEmpty(t, out.Statement.DebugLines)
	assert.NotEmpty(t, out.RawText)

	id, err := uuid.Parse(out.ID)
	require.NoError(t, err)
	rec, err := st.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "jrmartin.pdf", rec.Filename)
}

func TestExtractAutoMode(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, out := postJSON(t, app, map[string]any{"text": fixture(t)})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)
	assert.EqualValues(t, "bank", out.Mode)
	assert.Empty(t, out.RawText)
	assert.Empty(t, out.Statement.DebugLines)
}

func TestExtractRejectsBadRequests(t *testing.T) {
	app, _ := setupTestApp(t)

	t.Run("empty text", func(t *testing.T) {
		resp, out := postJSON(t, app, map[string]any{"text": "   "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, out.Success)
		assert.Contains(t, out.Error, "text")
	})

	t.Run("unknown mode", func(t *testing.T) {
		resp, out := postJSON(t, app, map[string]any{"text": "anything", "mode": "loan"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, out.Error, "Unknown mode")
	})

	t.Run("no file", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("mode", "bank"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/extract", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		resp, out := doExtract(t, app, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, out.Error, "No file uploaded")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		req := uploadRequest(t, "statement.docx", "hello", "bank")
		resp, out := doExtract(t, app, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, out.Success)
	})
}

func uploadRequest(t *testing.T, filename, content, mode string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("mode", mode))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtractTextUpload(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, out := doExtract(t, app, uploadRequest(t, "march.txt", fixture(t), "bank"))
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)
	assert.True(t, out.Success)
	assert.Equal(t, 5, out.Count)
	assert.NotEmpty(t, out.ID)
}

func TestStatementsEndpoints(t *testing.T) {
	app, _ := setupTestApp(t)

	_, first := postJSON(t, app, map[string]any{"text": fixture(t), "mode": "bank", "filename": "a.pdf"})
	_, second := postJSON(t, app, map[string]any{"text": fixture(t), "mode": "bank", "filename": "b.pdf"})
	require.NotEmpty(t, first.ID)
	require.NotEmpty(t, second.ID)

	t.Run("list", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/statements?limit=10", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Success    bool               `json:"success"`
			Total      int                `json:"total"`
			Statements []statementSummary `json:"statements"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, 2, body.Total)
		assert.Len(t, body.Statements, 2)
		assert.Equal(t, "2272.45", body.Statements[0].TotalCredits)
	})

	t.Run("get", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/statements/"+first.ID, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			ID        string `json:"id"`
			Filename  string `json:"filename"`
			Statement struct {
				Transactions []json.RawMessage `json:"transactions"`
			} `json:"statement"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, first.ID, body.ID)
		assert.Equal(t, "a.pdf", body.Filename)
		assert.Len(t, body.Statement.Transactions, 5)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/statements/not-a-uuid", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/statements/"+uuid.NewString(), nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestStorageDisabled(t *testing.T) {
	app := NewApp(&Handler{Log: logging.NewNoOpLogger()}, ServerOptions{})

	resp, out := postJSON(t, app, map[string]any{"text": fixture(t), "mode": "bank"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out.ID)

	listResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/statements", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, listResp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)
	postJSON(t, app, map[string]any{"text": fixture(t), "mode": "bank"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_extractions_total{mode="bank",source="text"} 1`)
}
