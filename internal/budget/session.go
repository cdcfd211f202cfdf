// Package budget owns a planning document and keeps every derived column and
// document total consistent with the raw input after each add, edit or
// delete. A Session is not safe for concurrent use; callers serialize access.
package budget

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"budget-engine/internal/model"
	"budget-engine/internal/schema"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownField   = errors.New("unknown field")
	ErrNotEditable    = errors.New("field is computed and cannot be edited")
	// ErrRejected reports an edit that was refused; the record is unchanged.
	ErrRejected = errors.New("edit rejected")
)

// Change describes what an edit recomputed.
type Change struct {
	RecordID string
	Field    schema.Key
	// Recomputed lists the derived fields of RecordID that were recomputed,
	// in evaluation order, limited to the fields in scope.
	Recomputed []schema.Key
	// OtherRecords lists records whose document-wide fields were recomputed.
	OtherRecords []string
}

type Session struct {
	doc        model.Document
	aggregates model.Aggregates
	newID      func() string
}

// NewSession starts an empty document with the given settings.
func NewSession(settings model.Settings) *Session {
	s := &Session{
		doc:   model.Document{Settings: settings, Employees: []model.Employee{}},
		newID: uuid.NewString,
	}
	s.refreshAggregates()
	return s
}

func (s *Session) context() deriveContext {
	return deriveContext{settings: s.doc.Settings, managers: countManagers(s.doc.Settings, s.doc.Employees)}
}

func (s *Session) refreshAggregates() {
	s.aggregates = computeAggregates(s.doc.TotalBudget, s.doc.Settings, s.doc.Employees)
}

// recomputeAll re-derives every record from scratch.
func (s *Session) recomputeAll() {
	c := s.context()
	for i := range s.doc.Employees {
		deriveAll(c, &s.doc.Employees[i])
	}
	s.refreshAggregates()
}

// recomputeDocumentWide re-derives the document-wide fields, and whatever
// depends on them, on every record except skip.
func (s *Session) recomputeDocumentWide(skip string) []string {
	var wide []schema.Key
	for _, k := range schema.Computed() {
		if f, _ := schema.Lookup(k); f.DocumentWide {
			wide = append(wide, k)
		}
	}
	keys := append(wide, schema.Downstream(wide...)...)
	keys = topoFilter(keys)
	c := s.context()
	var touched []string
	for i := range s.doc.Employees {
		e := &s.doc.Employees[i]
		if e.ID == skip {
			continue
		}
		before := *e
		derive(c, e, keys)
		if before.ManagementCosts != e.ManagementCosts || before.PublicFunds != e.PublicFunds {
			touched = append(touched, e.ID)
		}
	}
	return touched
}

// topoFilter returns keys deduplicated and in topological order.
func topoFilter(keys []schema.Key) []schema.Key {
	want := make(map[schema.Key]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []schema.Key
	for _, k := range schema.Order() {
		if want[k] {
			out = append(out, k)
		}
	}
	return out
}

func (s *Session) find(id string) int {
	for i := range s.doc.Employees {
		if s.doc.Employees[i].ID == id {
			return i
		}
	}
	return -1
}

// coerce normalizes a record. Hourly rate text is kept as is; a rate that
// does not parse costs nothing.
func coerce(e *model.Employee) {
	if strings.TrimSpace(string(e.Role)) == "" {
		e.Role = model.DefaultRole
	} else {
		e.Role = schema.ParseRole(string(e.Role))
	}
	e.HourlyRate = model.HourlyRate(e.HourlyRate.String())
	e.EmploymentPercentage = clampPercentage(e.EmploymentPercentage)
	e.ResearchPercentage = clampPercentage(e.ResearchPercentage)
	if e.AcquisitionHours < 0 || math.IsNaN(e.AcquisitionHours) || math.IsInf(e.AcquisitionHours, 0) {
		e.AcquisitionHours = 0
	}
	if e.Birthdate != nil && e.Birthdate.IsZero() {
		e.Birthdate = nil
	}
}

func clampPercentage(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AddRecord coerces input, derives every computed field and appends the
// record. Derived values present on input are ignored.
func (s *Session) AddRecord(input model.Employee) model.Employee {
	e := input.Clone()
	e.ID = s.newID()
	coerce(&e)
	// New input follows the edit rule for rates.
	if f, _ := schema.Lookup(schema.HourlyRate); f.Set(&e, string(e.HourlyRate)) != nil {
		e.HourlyRate = ""
	}
	s.doc.Employees = append(s.doc.Employees, e)
	if s.doc.TrackManagement && e.IsManagement {
		s.recomputeAll()
	} else {
		deriveAll(s.context(), &s.doc.Employees[len(s.doc.Employees)-1])
		s.refreshAggregates()
	}
	return s.doc.Employees[len(s.doc.Employees)-1].Clone()
}

// UpdateField parses raw into field key of record id and recomputes what
// depends on it. A non-integer hourly rate returns ErrRejected and leaves the
// document unchanged.
func (s *Session) UpdateField(id string, key schema.Key, raw string) (Change, error) {
	f, ok := schema.Lookup(key)
	if !ok {
		return Change{}, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if !f.Editable() {
		return Change{}, fmt.Errorf("%w: %s", ErrNotEditable, key)
	}
	idx := s.find(id)
	if idx < 0 {
		return Change{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	candidate := s.doc.Employees[idx].Clone()
	if err := f.Set(&candidate, raw); err != nil {
		if errors.Is(err, schema.ErrInvalidValue) {
			return Change{}, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return Change{}, err
	}
	s.doc.Employees[idx] = candidate

	keys := schema.Downstream(key)
	derive(s.context(), &s.doc.Employees[idx], keys)

	change := Change{RecordID: id, Field: key}
	documentWide := false
	for _, k := range keys {
		kf, _ := schema.Lookup(k)
		if !kf.InScope(s.doc.Settings) {
			continue
		}
		change.Recomputed = append(change.Recomputed, k)
		documentWide = documentWide || kf.DocumentWide
	}
	if documentWide {
		change.OtherRecords = s.recomputeDocumentWide(id)
	}
	s.refreshAggregates()
	return change, nil
}

// DeleteRecord removes the record and recomputes the totals.
func (s *Session) DeleteRecord(id string) error {
	idx := s.find(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	wasManager := s.doc.TrackManagement && s.doc.Employees[idx].IsManagement
	s.doc.Employees = append(s.doc.Employees[:idx], s.doc.Employees[idx+1:]...)
	if wasManager {
		s.recomputeDocumentWide("")
	}
	s.refreshAggregates()
	return nil
}

func (s *Session) SetTotalBudget(v float64) model.Aggregates {
	s.doc.TotalBudget = v
	s.refreshAggregates()
	return s.aggregates
}

// SetSettings replaces the document constants and recomputes every record.
func (s *Session) SetSettings(settings model.Settings) model.Aggregates {
	s.doc.Settings = settings
	s.recomputeAll()
	return s.aggregates
}

// Replace adopts doc wholesale, assigning fresh record ids and recomputing
// every derived value. Derived values stored in doc are not trusted.
func (s *Session) Replace(doc model.Document) {
	employees := make([]model.Employee, 0, len(doc.Employees))
	for _, e := range doc.Employees {
		e = e.Clone()
		e.ID = s.newID()
		coerce(&e)
		employees = append(employees, e)
	}
	s.doc = model.Document{TotalBudget: doc.TotalBudget, Settings: doc.Settings, Employees: employees}
	s.recomputeAll()
}

func (s *Session) Aggregates() model.Aggregates {
	agg := s.aggregates
	if agg.TotalManagementCosts != nil {
		v := *agg.TotalManagementCosts
		agg.TotalManagementCosts = &v
	}
	if agg.TotalVacationCosts != nil {
		v := *agg.TotalVacationCosts
		agg.TotalVacationCosts = &v
	}
	return agg
}

func (s *Session) TotalBudget() float64 { return s.doc.TotalBudget }

func (s *Session) Settings() model.Settings { return s.doc.Settings }

func (s *Session) Len() int { return len(s.doc.Employees) }

// Record returns a copy of the record with the given id.
func (s *Session) Record(id string) (model.Employee, bool) {
	idx := s.find(id)
	if idx < 0 {
		return model.Employee{}, false
	}
	return s.doc.Employees[idx].Clone(), true
}

// Records returns copies of all records in canonical (insertion) order.
func (s *Session) Records() []model.Employee {
	out := make([]model.Employee, len(s.doc.Employees))
	for i := range s.doc.Employees {
		out[i] = s.doc.Employees[i].Clone()
	}
	return out
}

// Document returns a deep copy of the current document.
func (s *Session) Document() model.Document {
	return model.Document{
		TotalBudget: s.doc.TotalBudget,
		Settings:    s.doc.Settings,
		Employees:   s.Records(),
	}
}
