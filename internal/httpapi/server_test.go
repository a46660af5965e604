package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"sales-stats/internal/artifact"
	"sales-stats/internal/dataset"
	"sales-stats/internal/metrics"
)

type fixture struct {
	dir      string
	source   string
	artifact string
	handler  http.Handler
	metrics  *metrics.Metrics
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		source:   filepath.Join(dir, "dados.csv"),
		artifact: filepath.Join(dir, "stats.json"),
		metrics:  metrics.New(),
	}
	store := artifact.NewStore(f.artifact, zerolog.Nop())
	loader := dataset.NewLoader(dataset.Options{}, zerolog.Nop())
	f.handler = NewServer(store, loader, Options{SourcePath: f.source, HistogramBins: 3}, f.metrics, zerolog.Nop()).Handler()
	return f
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func detail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body should be JSON: %v (%s)", err, rr.Body.String())
	}
	return body.Detail
}

func TestHealth(t *testing.T) {
	f := setup(t)
	rr := f.do(http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id header missing")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	f := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	if rr.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("request id should be echoed, got %q", rr.Header().Get("X-Request-Id"))
	}
}

func TestStatsNotComputed(t *testing.T) {
	f := setup(t)
	rr := f.do(http.MethodGet, "/stats", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if !strings.Contains(detail(t, rr), "not computed") {
		t.Fatalf("unexpected detail %q", detail(t, rr))
	}
}

func TestStatsCorrupt(t *testing.T) {
	cases := map[string]string{
		"broken json":           "{broken",
		"missing receita_total": `{"qtd_total":6,"preco_medio":6.67,"desafio_fp":{"soma_quadrados":52,"contagem":2,"media_inteira":26}}`,
		"missing preco_medio":   `{"qtd_total":6,"receita_total":40.00,"desafio_fp":{"soma_quadrados":52,"contagem":2,"media_inteira":26}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			f.write(t, f.artifact, content)
			rr := f.do(http.MethodGet, "/stats", "")
			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rr.Code)
			}
			if !strings.Contains(detail(t, rr), "corrupt") {
				t.Fatalf("unexpected detail %q", detail(t, rr))
			}
		})
	}
}

func TestStatsVerbatim(t *testing.T) {
	f := setup(t)
	content := "{\n  \"qtd_total\": 6,\n  \"receita_total\": 40.00,\n  \"preco_medio\": 6.67,\n  \"desafio_fp\": {\n    \"soma_quadrados\": 52,\n    \"contagem\": 2,\n    \"media_inteira\": 26\n  }\n}\n"
	f.write(t, f.artifact, content)

	rr := f.do(http.MethodGet, "/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != content {
		t.Fatalf("artifact should be returned verbatim, got %s", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestSoma(t *testing.T) {
	f := setup(t)
	rr := f.do(http.MethodPost, "/soma", `{"x": 1.5, "y": 2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp somaResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Resultado != 3.5 {
		t.Fatalf("expected 3.5, got %v", resp.Resultado)
	}
}

func TestSomaInvalid(t *testing.T) {
	f := setup(t)
	for _, body := range []string{`{"x": 1}`, `{"x": "a", "y": 2}`, `not json`} {
		rr := f.do(http.MethodPost, "/soma", body)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("body %s: expected 422, got %d", body, rr.Code)
		}
	}
}

func TestSomaWrongMethod(t *testing.T) {
	f := setup(t)
	rr := f.do(http.MethodGet, "/soma", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestPriceChart(t *testing.T) {
	f := setup(t)

	rr := f.do(http.MethodGet, "/charts/prices.png", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing source should 404, got %d", rr.Code)
	}

	f.write(t, f.source, "produto\nA\n")
	rr = f.do(http.MethodGet, "/charts/prices.png", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("schema error should 422, got %d", rr.Code)
	}

	f.write(t, f.source, "preco,qtd\n1,1\n2,2\n9,1\n")
	rr = f.do(http.MethodGet, "/charts/prices.png", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "image/png" || !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("response should be a PNG")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := setup(t)
	f.do(http.MethodGet, "/health", "")

	rr := f.do(http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `salesstats_http_requests_total{code="200",route="GET /health"} 1`) {
		t.Fatalf("health request should be counted:\n%s", rr.Body.String())
	}
}
