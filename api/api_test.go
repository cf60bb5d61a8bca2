package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"reviewlens/compare"
	"reviewlens/extraction"
	"reviewlens/orchestrator"
	"reviewlens/store"
	"reviewlens/types"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubSearch struct{ urls []string }

func (s *stubSearch) Search(context.Context, string) ([]string, error) { return s.urls, nil }

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, url string) (*extraction.Document, error) {
	return &extraction.Document{URL: url, Text: "review text"}, nil
}

type stubSynth struct{}

func (stubSynth) Analyze(context.Context, string) (*types.AnalysisResult, error) {
	return &types.AnalysisResult{
		Sentiment: types.Sentiment{Score: 8.0, Label: "positive"},
		Pros:      []string{"fast"},
		Cons:      []string{"pricey"},
	}, nil
}

func newTestRouter(s store.Store) *gin.Engine {
	orch := orchestrator.New(orchestrator.Config{
		Store:       s,
		Discovery:   &stubSearch{urls: []string{"https://a.example/r"}},
		Extractor:   stubExtractor{},
		Synthesizer: stubSynth{},
		RunTimeout:  5 * time.Second,
	})
	return NewRouter(Deps{
		Store:        s,
		Orchestrator: orch,
		Compare:      compare.NewEngine(s),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	envelope, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("missing error envelope in %q", w.Body.String())
	}
	kind, _ := envelope["kind"].(string)
	return kind
}

func TestCreateProduct(t *testing.T) {
	r := newTestRouter(store.NewMemoryStore())

	w := doJSON(t, r, http.MethodPost, "/api/v1/products",
		map[string]any{"product_name": "iPhone 15 Pro", "metadata": map[string]string{"category": "phone"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["product_id"] != "iphone-15-pro" || body["status"] != "pending" {
		t.Fatalf("body = %v", body)
	}

	// Same name again returns the existing record, not a duplicate.
	w = doJSON(t, r, http.MethodPost, "/api/v1/products", map[string]any{"product_name": "iPhone 15 Pro"})
	if w.Code != http.StatusOK {
		t.Fatalf("repeat create status = %d; want 200", w.Code)
	}
}

func TestCreateProductValidation(t *testing.T) {
	r := newTestRouter(store.NewMemoryStore())

	for _, body := range []map[string]any{
		{},
		{"product_name": "   "},
		{"product_name": "!!!"},
	} {
		w := doJSON(t, r, http.MethodPost, "/api/v1/products", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status = %d; want 400", body, w.Code)
		}
		if kind := errorKind(t, w); kind != "validation" {
			t.Fatalf("body %v: error kind = %q; want validation", body, kind)
		}
	}
}

func TestGetProductNotFound(t *testing.T) {
	r := newTestRouter(store.NewMemoryStore())

	w := doJSON(t, r, http.MethodGet, "/api/v1/products/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
	if kind := errorKind(t, w); kind != "not_found" {
		t.Fatalf("error kind = %q; want not_found", kind)
	}
}

func TestListProducts(t *testing.T) {
	s := store.NewMemoryStore()
	r := newTestRouter(s)

	for _, name := range []string{"Pixel 9", "iPhone 15 Pro"} {
		if w := doJSON(t, r, http.MethodPost, "/api/v1/products", map[string]any{"product_name": name}); w.Code != http.StatusCreated {
			t.Fatalf("create %s: %d", name, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"].(float64) != 2 {
		t.Fatalf("count = %v; want 2", body["count"])
	}
}

func TestAnalyzeAcceptedAndConflict(t *testing.T) {
	s := store.NewMemoryStore()
	r := newTestRouter(s)
	ctx := context.Background()

	if w := doJSON(t, r, http.MethodPost, "/api/v1/products", map[string]any{"product_name": "Pixel 9"}); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	// Pin the product in processing so the conflict path is deterministic.
	if _, err := s.CompareAndSetStatus(ctx, "pixel-9", types.StatusPending, types.StatusProcessing); err != nil {
		t.Fatalf("CAS: %v", err)
	}
	w := doJSON(t, r, http.MethodPost, "/api/v1/products/pixel-9/analyze", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d; want 409", w.Code)
	}
	if kind := errorKind(t, w); kind != "conflict" {
		t.Fatalf("error kind = %q; want conflict", kind)
	}

	// Release it and the request is accepted.
	if _, err := s.CompareAndSetStatus(ctx, "pixel-9", types.StatusProcessing, types.StatusPending); err != nil {
		t.Fatalf("CAS: %v", err)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/products/pixel-9/analyze", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d; want 202: %s", w.Code, w.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	r := newTestRouter(store.NewMemoryStore())

	if w := doJSON(t, r, http.MethodPost, "/api/v1/products", map[string]any{"product_name": "Pixel 9"}); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/products/pixel-9/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["stage"] != "pending" || body["current_step"] != "Waiting to start analysis" {
		t.Fatalf("body = %v", body)
	}
}

func TestCompareEndpoint(t *testing.T) {
	s := store.NewMemoryStore()
	r := newTestRouter(s)
	ctx := context.Background()

	for _, id := range []string{"alpha", "beta"} {
		p := &types.Product{ID: id, Name: id, Status: types.StatusCompleted, CreatedAt: time.Now().UTC()}
		if err := s.PutProduct(ctx, p); err != nil {
			t.Fatalf("PutProduct: %v", err)
		}
		score := 8.0
		if id == "beta" {
			score = 5.0
		}
		analysis := &types.AnalysisResult{
			ProductID: id,
			Sentiment: types.Sentiment{Score: score, Label: "positive"},
			Pros:      []string{"good"},
			Cons:      []string{"bad"},
		}
		if err := s.PutAnalysis(ctx, analysis); err != nil {
			t.Fatalf("PutAnalysis: %v", err)
		}
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/compare", map[string]any{"product_ids": []string{"alpha"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("single product compare status = %d; want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/compare", map[string]any{"product_ids": []string{"alpha", "beta"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["overall_winner"] != "alpha" {
		t.Fatalf("winner = %v; want alpha", body["overall_winner"])
	}
	id, _ := body["comparison_id"].(string)
	if id == "" {
		t.Fatalf("missing comparison id in %v", body)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/compare/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get comparison status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/compare/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown comparison status = %d; want 404", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(store.NewMemoryStore())
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
