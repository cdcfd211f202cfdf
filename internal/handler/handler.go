package handler

import (
	"log"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"budget-engine/internal/budget"
	"budget-engine/internal/engine"
	"budget-engine/internal/export"
	"budget-engine/internal/flow"
	"budget-engine/internal/model"
	"budget-engine/internal/ratecard"
	"budget-engine/internal/schema"
	"budget-engine/internal/store"
	"budget-engine/internal/view"
)

// Server serves one budget session over HTTP. Requests are serialized on
// the session.
type Server struct {
	mu       sync.Mutex
	session  *budget.Session
	rates    *ratecard.Catalog
	defaults model.Settings
	// path, when set, receives the document after every change.
	path string
}

func New(session *budget.Session, rates *ratecard.Catalog, defaults model.Settings, path string) *Server {
	return &Server{session: session, rates: rates, defaults: defaults, path: path}
}

type row struct {
	ID string `json:"id"`
	model.Employee
}

type documentResponse struct {
	model.Document
	Aggregates model.Aggregates `json:"aggregates"`
}

type ratesResponse struct {
	Known  []string                `json:"known"`
	ByRole map[model.Role][]string `json:"by_role"`
}

func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	switch path := string(ctx.Path()); path {
	case "/calculate":
		if method != fasthttp.MethodPost {
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.handleCalculation(ctx)
	case "/document":
		switch method {
		case fasthttp.MethodGet:
			s.handleGetDocument(ctx)
		case fasthttp.MethodPut:
			s.handlePutDocument(ctx)
		default:
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		}
	case "/view", "/flow", "/rates", "/export.xlsx":
		if method != fasthttp.MethodGet {
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		switch path {
		case "/view":
			s.handleView(ctx)
		case "/flow":
			s.handleFlow(ctx)
		case "/rates":
			s.handleRates(ctx)
		default:
			s.handleExport(ctx)
		}
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
	}
}

func (s *Server) handleCalculation(ctx *fasthttp.RequestCtx) {
	var req model.CalculationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Mutations) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "At least one mutation is required")
		return
	}

	s.mu.Lock()
	resp := engine.Process(s.session, &req)
	changed := string(resp.CalculationResult.Patch) != "[]"
	if changed {
		s.persist()
	}
	s.mu.Unlock()

	meta := resp.CalculationMetadata
	log.Printf("calculation %s: outcome=%s mutations=%d messages=%d duration=%dms",
		meta.CalculationID, meta.CalculationOutcome, len(req.Mutations),
		len(resp.CalculationResult.Messages), meta.CalculationDurationMs)

	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleGetDocument(ctx *fasthttp.RequestCtx) {
	s.mu.Lock()
	resp := documentResponse{Document: s.session.Document(), Aggregates: s.session.Aggregates()}
	s.mu.Unlock()
	if resp.Employees == nil {
		resp.Employees = []model.Employee{}
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

// handlePutDocument replaces the whole document. A body that does not
// decode leaves the session untouched.
func (s *Server) handlePutDocument(ctx *fasthttp.RequestCtx) {
	doc, err := store.Decode(ctx.PostBody(), s.defaults)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.session.Replace(doc)
	s.persist()
	resp := documentResponse{Document: s.session.Document(), Aggregates: s.session.Aggregates()}
	s.mu.Unlock()

	log.Printf("document replaced: employees=%d", len(resp.Employees))
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleView(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	q := view.Query{Filters: map[schema.Key]string{}}

	order, err := view.ParseOrder(string(args.Peek("order")))
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if sortBy := string(args.Peek("sort")); sortBy != "" {
		f, ok := schema.LookupColumn(sortBy)
		if !ok {
			writeError(ctx, fasthttp.StatusBadRequest, "Unknown sort field: "+sortBy)
			return
		}
		q.Sort = f.Key
		q.Order = order
		if q.Order == view.None {
			q.Order = view.Ascending
		}
	}

	var badFilter string
	args.VisitAll(func(key, value []byte) {
		name, ok := strings.CutPrefix(string(key), "filter.")
		if !ok || badFilter != "" {
			return
		}
		f, found := schema.LookupColumn(name)
		if !found {
			badFilter = name
			return
		}
		q.Filters[f.Key] = string(value)
	})
	if badFilter != "" {
		writeError(ctx, fasthttp.StatusBadRequest, "Unknown filter field: "+badFilter)
		return
	}

	s.mu.Lock()
	records := s.session.Records()
	s.mu.Unlock()

	rows, err := q.Apply(records)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	out := make([]row, len(rows))
	for i, e := range rows {
		out[i] = row{ID: e.ID, Employee: e}
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) handleFlow(ctx *fasthttp.RequestCtx) {
	s.mu.Lock()
	doc := s.session.Document()
	s.mu.Unlock()
	writeJSON(ctx, fasthttp.StatusOK, flow.Build(doc))
}

func (s *Server) handleRates(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, ratesResponse{
		Known:  s.rates.Known(),
		ByRole: s.rates.Rates(model.Roles...),
	})
}

func (s *Server) handleExport(ctx *fasthttp.RequestCtx) {
	s.mu.Lock()
	doc := s.session.Document()
	agg := s.session.Aggregates()
	s.mu.Unlock()

	ctx.SetContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="budget.xlsx"`)
	if err := export.Write(ctx, doc, agg); err != nil {
		ctx.ResetBody()
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
	}
}

// persist must be called with s.mu held.
func (s *Server) persist() {
	if s.path == "" {
		return
	}
	start := time.Now()
	if err := store.Save(s.path, s.session.Document()); err != nil {
		log.Printf("saving %s failed: %v", s.path, err)
		return
	}
	log.Printf("saved %s in %s", s.path, time.Since(start))
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(data)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	data, _ := json.Marshal(model.ErrorResponse{
		Status:  status,
		Message: message,
	})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(data)
}
