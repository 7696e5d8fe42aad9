package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/quotecalc/internal/db"
	"github.com/Simplici0/quotecalc/internal/graph"
	"github.com/Simplici0/quotecalc/internal/migrations"
	"github.com/Simplici0/quotecalc/internal/orchestrator"
	"github.com/Simplici0/quotecalc/internal/pricing"
	"github.com/Simplici0/quotecalc/internal/quote"
	"github.com/Simplici0/quotecalc/internal/seed"
	"github.com/Simplici0/quotecalc/internal/store"
)

type quoteResponse struct {
	Quote quote.Quote `json:"quote"`
	Stale bool        `json:"stale"`
	State string      `json:"state"`
}

func newTestServer(t *testing.T) *server {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	if err := migrations.Up(context.Background(), database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(database, seed.Config{CPIRate: pricing.DefaultCPIRate}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// The debounce never elapses in tests; work runs through /quote/flush.
	srv, err := newServer(store.NewSQLite(database), pricing.DefaultTerms(), orchestrator.WithDebounce(time.Hour))
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	t.Cleanup(func() {
		srv.detach()
		srv.orch.Flush()
	})
	return srv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestComponentUpdateRejectsInvalidParams(t *testing.T) {
	h := newTestServer(t).routes()

	rr := do(t, h, http.MethodPut, "/components/equipment", `{"params": {"device_count": -3}}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decode[struct {
		Fields []fieldError `json:"fields"`
	}](t, rr)
	if len(body.Fields) != 1 || body.Fields[0].Field != "device_count" || body.Fields[0].Component != "equipment" {
		t.Fatalf("unexpected field errors: %+v", body.Fields)
	}
}

func TestComponentRoutesRejectUnknownComponent(t *testing.T) {
	h := newTestServer(t).routes()

	if rr := do(t, h, http.MethodPut, "/components/teleporter", `{"enabled": true}`); rr.Code != http.StatusNotFound {
		t.Fatalf("PUT expected status 404, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/components/teleporter/recalculate", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("recalculate expected status 404, got %d", rr.Code)
	}
}

func TestUpdateThenFlushPublishesQuote(t *testing.T) {
	h := newTestServer(t).routes()

	rr := do(t, h, http.MethodPut, "/components/equipment", `{"enabled": true, "params": {"device_count": 2}}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}

	before := decode[quoteResponse](t, do(t, h, http.MethodGet, "/quote", ""))
	if before.State != orchestrator.Scheduled.String() || before.Quote.Summary.ComponentCount != 0 {
		t.Fatalf("before flush: state=%s count=%d", before.State, before.Quote.Summary.ComponentCount)
	}

	rr = do(t, h, http.MethodPost, "/quote/flush", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	after := decode[quoteResponse](t, rr)
	if after.State != orchestrator.Idle.String() {
		t.Fatalf("state=%s, want idle", after.State)
	}
	if after.Quote.Summary.ComponentCount != 1 || after.Quote.Summary.OneTime != 900 {
		t.Fatalf("unexpected summary: %+v", after.Quote.Summary)
	}
	if len(after.Quote.Lines) != 1 || after.Quote.Lines[0].Name != "Equipment" {
		t.Fatalf("unexpected lines: %+v", after.Quote.Lines)
	}
}

func TestValidateReportsDisabledDependencies(t *testing.T) {
	h := newTestServer(t).routes()

	rr := do(t, h, http.MethodPost, "/validate", `{"components": ["support"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	report := decode[graph.Report](t, rr)
	if !report.Valid || len(report.Issues) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	for _, issue := range report.Issues {
		if issue.Kind != graph.KindDisabledDependency {
			t.Fatalf("unexpected issue kind: %+v", issue)
		}
	}
}

func TestSaveListAndReadQuote(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()

	if rr := do(t, h, http.MethodPost, "/quotes", `{"title": "Clinic"}`); rr.Code != http.StatusConflict {
		t.Fatalf("saving an empty quote: expected status 409, got %d", rr.Code)
	}

	do(t, h, http.MethodPut, "/components/equipment", `{"enabled": true, "params": {"device_count": 2}}`)
	do(t, h, http.MethodPost, "/quote/flush", "")

	rr := do(t, h, http.MethodPost, "/quotes", `{"title": "Clinic", "notes": "east wing"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	saved := decode[struct {
		ID int64 `json:"id"`
	}](t, rr)

	list := decode[struct {
		Quotes []store.SavedQuote `json:"quotes"`
	}](t, do(t, h, http.MethodGet, "/quotes?q=east", ""))
	if len(list.Quotes) != 1 || list.Quotes[0].ID != saved.ID || list.Quotes[0].ThreeYear != 900 {
		t.Fatalf("unexpected quotes list: %+v", list.Quotes)
	}

	if rr := do(t, h, http.MethodGet, "/quotes/999", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for a missing quote, got %d", rr.Code)
	}

	detail := decode[struct {
		Quote quote.Quote `json:"quote"`
	}](t, do(t, h, http.MethodGet, "/quotes/1", ""))
	if detail.Quote.Summary.ThreeYear != 900 {
		t.Fatalf("unexpected saved summary: %+v", detail.Quote.Summary)
	}
}

func TestHandleQuoteTextReturnsPlainText(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()

	do(t, h, http.MethodPut, "/components/equipment", `{"enabled": true, "params": {"device_count": 2}}`)
	do(t, h, http.MethodPost, "/quote/flush", "")
	if rr := do(t, h, http.MethodPost, "/quotes", `{"title": "Clinic"}`); rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/quotes/1/text", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	srv.handleQuoteText(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, expected := range []string{"Components:", "- Equipment: one-time 900.00", "Three-year total: 900.00"} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func TestQuoteXLSXDownload(t *testing.T) {
	h := newTestServer(t).routes()

	do(t, h, http.MethodPut, "/components/equipment", `{"enabled": true, "params": {"device_count": 2}}`)
	do(t, h, http.MethodPost, "/quote/flush", "")

	rr := do(t, h, http.MethodGet, "/quote.xlsx", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Lines", "A2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "equipment" {
		t.Fatalf("first line=%q, want equipment", got)
	}
}

func TestClearSessionResetsQuote(t *testing.T) {
	h := newTestServer(t).routes()

	do(t, h, http.MethodPut, "/components/equipment", `{"enabled": true, "params": {"device_count": 2}}`)
	do(t, h, http.MethodPost, "/quote/flush", "")

	if rr := do(t, h, http.MethodDelete, "/session", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}

	got := decode[quoteResponse](t, do(t, h, http.MethodGet, "/quote", ""))
	if got.Quote.Summary.ComponentCount != 0 || len(got.Quote.Lines) != 0 {
		t.Fatalf("quote after clear: %+v", got.Quote)
	}

	components := decode[[]componentView](t, do(t, h, http.MethodGet, "/components", ""))
	for _, c := range components {
		if c.Enabled || c.Result != nil {
			t.Fatalf("component %s survived clear: %+v", c.ID, c)
		}
	}
}
