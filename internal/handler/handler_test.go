package handler

import (
	"bytes"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"budget-engine/internal/budget"
	"budget-engine/internal/config"
	"budget-engine/internal/model"
	"budget-engine/internal/ratecard"
	"budget-engine/internal/store"
)

func testSettings() model.Settings {
	s := model.DefaultSettings()
	s.Year = 2025
	s.TrackVacation = false
	s.TrackManagement = false
	return s
}

func newTestServer(path string) *Server {
	settings := testSettings()
	return New(budget.NewSession(settings), ratecard.New("", 0), settings, path)
}

func do(s *Server, method, uri string, body []byte) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	s.Handle(ctx)
	return ctx
}

const addBatch = `{"mutations":[
	{"mutation_id":"1","mutation_definition_name":"set_total_budget","mutation_properties":{"total_budget":100000}},
	{"mutation_id":"2","mutation_definition_name":"add_record","mutation_properties":{"name":"Ada","hourly_rate":"100","acquisition_hours":10}}
]}`

func TestCalculate(t *testing.T) {
	s := newTestServer("")
	ctx := do(s, fasthttp.MethodPost, "/calculate", []byte(addBatch))
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var resp model.CalculationResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if len(resp.CalculationResult.Mutations) != 2 {
		t.Fatalf("expected 2 processed mutations, got %d", len(resp.CalculationResult.Mutations))
	}
	if got := resp.CalculationResult.Aggregates.TotalAcquisitionCosts; got != 1000 {
		t.Fatalf("expected acquisition total 1000, got %v", got)
	}
}

func TestCalculateRejectsBadRequests(t *testing.T) {
	s := newTestServer("")
	cases := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", fasthttp.MethodGet, "", fasthttp.StatusMethodNotAllowed},
		{"invalid json", fasthttp.MethodPost, "{", fasthttp.StatusBadRequest},
		{"no mutations", fasthttp.MethodPost, `{"mutations":[]}`, fasthttp.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := do(s, tc.method, "/calculate", []byte(tc.body))
			if ctx.Response.StatusCode() != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, ctx.Response.StatusCode())
			}
		})
	}
}

func TestPutDocumentIsAtomic(t *testing.T) {
	s := newTestServer("")
	do(s, fasthttp.MethodPost, "/calculate", []byte(addBatch))

	ctx := do(s, fasthttp.MethodPut, "/document", []byte(`{"employees":[]}`))
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400 for missing total_budget, got %d", ctx.Response.StatusCode())
	}
	if s.session.Len() != 1 || s.session.TotalBudget() != 100000 {
		t.Fatalf("expected session unchanged after bad load")
	}

	ctx = do(s, fasthttp.MethodPut, "/document", []byte(`{"total_budget":5000,"employees":[
		{"Name":"Bob","Hourly Rate (CHF)":"50","Acquisition (h)":4,"Acquisition Costs (CHF)":123456}
	]}`))
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	recs := s.session.Records()
	if len(recs) != 1 || recs[0].AcquisitionCosts != 200 {
		t.Fatalf("expected recomputed acquisition costs 200, got %+v", recs)
	}
	if got := s.session.Aggregates().RemainingBudget; got != 4800 {
		t.Fatalf("expected remaining 4800, got %v", got)
	}
}

func TestViewFilterAndSort(t *testing.T) {
	s := newTestServer("")
	do(s, fasthttp.MethodPost, "/calculate", []byte(`{"mutations":[
		{"mutation_id":"1","mutation_definition_name":"add_record","mutation_properties":{"name":"Zoe","hourly_rate":"50"}},
		{"mutation_id":"2","mutation_definition_name":"add_record","mutation_properties":{"name":"Ada","hourly_rate":"90"}},
		{"mutation_id":"3","mutation_definition_name":"add_record","mutation_properties":{"name":"Max","hourly_rate":"70"}}
	]}`))

	ctx := do(s, fasthttp.MethodGet, "/view?sort=name&order=asc", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var rows []row
	if err := json.Unmarshal(ctx.Response.Body(), &rows); err != nil {
		t.Fatalf("decoding rows: %v", err)
	}
	if len(rows) != 3 || rows[0].Name != "Ada" || rows[2].Name != "Zoe" {
		t.Fatalf("unexpected order: %+v", rows)
	}
	if rows[0].ID == "" {
		t.Fatalf("expected row ids in view")
	}

	ctx = do(s, fasthttp.MethodGet, "/view?filter.name=A", nil)
	rows = nil
	if err := json.Unmarshal(ctx.Response.Body(), &rows); err != nil {
		t.Fatalf("decoding rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Ada" || rows[1].Name != "Max" {
		t.Fatalf("expected Ada and Max in canonical order, got %+v", rows)
	}

	if recs := s.session.Records(); recs[0].Name != "Zoe" {
		t.Fatalf("expected canonical order untouched, got %s first", recs[0].Name)
	}

	ctx = do(s, fasthttp.MethodGet, "/view?filter.nope=x", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", ctx.Response.StatusCode())
	}
}

func TestReadEndpoints(t *testing.T) {
	s := newTestServer("")
	do(s, fasthttp.MethodPost, "/calculate", []byte(addBatch))

	for _, uri := range []string{"/document", "/flow", "/rates", "/export.xlsx"} {
		ctx := do(s, fasthttp.MethodGet, uri, nil)
		if ctx.Response.StatusCode() != fasthttp.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", uri, ctx.Response.StatusCode(), ctx.Response.Body())
		}
		if len(ctx.Response.Body()) == 0 {
			t.Fatalf("%s: expected a body", uri)
		}
	}

	ctx := do(s, fasthttp.MethodGet, "/export.xlsx", nil)
	if !bytes.HasPrefix(ctx.Response.Body(), []byte("PK")) {
		t.Fatalf("expected a zip archive from /export.xlsx")
	}

	ctx = do(s, fasthttp.MethodGet, "/missing", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}
}

func TestChangesArePersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.json")
	s := newTestServer(path)
	do(s, fasthttp.MethodPost, "/calculate", []byte(addBatch))

	doc, err := store.Load(path, testSettings())
	if err != nil {
		t.Fatalf("loading saved document: %v", err)
	}
	if doc.TotalBudget != 100000 || len(doc.Employees) != 1 {
		t.Fatalf("unexpected saved document: %+v", doc)
	}
}

func TestOpenLoadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.json")
	doc := model.Document{TotalBudget: 7000, Settings: testSettings(), Employees: []model.Employee{
		{Name: "Ada", HourlyRate: "10", AcquisitionHours: 100},
	}}
	if err := store.Save(path, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	s, err := Open(&config.Config{BudgetFile: path})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	recs := s.session.Records()
	if len(recs) != 1 || recs[0].AcquisitionCosts != 1000 {
		t.Fatalf("expected loaded and recomputed record, got %+v", recs)
	}

	fresh, err := Open(&config.Config{BudgetFile: filepath.Join(t.TempDir(), "new.json")})
	if err != nil {
		t.Fatalf("open of missing file failed: %v", err)
	}
	if fresh.session.Len() != 0 {
		t.Fatalf("expected empty session for missing file")
	}
}
