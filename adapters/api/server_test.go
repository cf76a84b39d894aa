package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gopersist/adapters/rng"
	"gopersist/app"
	"gopersist/domain/core"
	"gopersist/domain/series"
	"gopersist/internal/testkit"
)

func newTestServer(t *testing.T) (*Server, core.DatasetID, *testkit.InMemoryLedger) {
	t.Helper()
	repo := testkit.NewInMemoryExpression()
	dataset := core.DatasetID("api-test")
	g := rng.New(11)
	for i := 0; i < 6; i++ {
		repo.Add(dataset, series.TimeSeries{
			Gene:     core.GeneKey(fmt.Sprintf("D%02d", i)),
			Category: "disease",
			Values:   testkit.AR2Series(1.1, -0.3, 200, 1.0, g),
		})
		repo.Add(dataset, series.TimeSeries{
			Gene:     core.GeneKey(fmt.Sprintf("C%02d", i)),
			Category: "control",
			Values:   testkit.AR2Series(0.1, 0.0, 200, 1.0, g),
		})
	}

	ledger := testkit.NewInMemoryLedger()
	screenSvc := app.NewScreenService(repo, ledger, nil, app.ScreenConfig{
		BaseSeed:        42,
		NPermutations:   49,
		CaseCategory:    "disease",
		ControlCategory: "control",
		SaveResults:     true,
	})
	phaseSvc := app.NewPhaseService(repo, nil, app.PhaseConfig{Period: 24, MinR2: 0.3})
	return NewServer(screenSvc, phaseSvc, ledger, nil), dataset, ledger
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
}

func TestServer_Fit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"gene":   "TP53",
		"values": []float64{1, 2, 1.5, 2.5, 2, 3, 2.5, 3.5, 3, 4},
	})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fit", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("fit = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp fitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Gene != "TP53" {
		t.Errorf("gene = %q", resp.Gene)
	}
	if resp.Stability == "" {
		t.Errorf("stability missing: %+v", resp)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/fit", bytes.NewReader([]byte("{"))))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", rec.Code)
	}
}

func TestServer_ScreenAndRuns(t *testing.T) {
	srv, dataset, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"dataset": string(dataset)})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/screen", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("screen = %d, body %s", rec.Code, rec.Body.String())
	}

	var screenResp struct {
		RunID string `json:"run_id"`
		Genes []struct {
			Gene string `json:"gene"`
		} `json:"genes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &screenResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(screenResp.Genes) != 12 {
		t.Errorf("genes = %d, want 12", len(screenResp.Genes))
	}

	// The saved run is retrievable through the runs endpoints.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?dataset="+string(dataset), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list runs = %d", rec.Code)
	}
	var listResp struct {
		RunIDs []string `json:"run_ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.RunIDs) != 1 || listResp.RunIDs[0] != screenResp.RunID {
		t.Fatalf("run list = %v, want [%s]", listResp.RunIDs, screenResp.RunID)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/"+screenResp.RunID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get run = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/no-such-run", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing run = %d, want 404", rec.Code)
	}
}

func TestServer_ScreenErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/screen", bytes.NewReader([]byte(`{}`))))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty dataset = %d, want 400", rec.Code)
	}

	body, _ := json.Marshal(map[string]string{"dataset": "unknown"})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/screen", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown dataset = %d, want 404", rec.Code)
	}
}

func TestServer_Phase(t *testing.T) {
	srv, _, _ := newTestServer(t)
	repoDataset := "phase-api"

	// Phase endpoint over a dataset the repo does not know returns 404.
	body, _ := json.Marshal(map[string]string{"dataset": repoDataset})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/phase", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown dataset = %d, want 404", rec.Code)
	}
}
