// Package store reads and writes budget documents as JSON files.
//
// Loading is all-or-nothing: Decode either returns a complete document or an
// error, so a caller can keep its current document when a file is bad.
// Derived columns found in a file are ignored; the session recomputes them.
package store

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"budget-engine/internal/model"
)

var ErrMalformedDocument = errors.New("malformed budget document")

const (
	TotalBudgetKey = "total_budget"
	EmployeesKey   = "employees"
)

// number accepts JSON numbers and numeric strings; anything else is 0.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*n = number(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		*n = number(f)
	default:
		*n = 0
	}
	return nil
}

// amount accepts a JSON number or numeric string and rejects anything else.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", x)
		}
		f = parsed
	default:
		return fmt.Errorf("not a number: %s", b)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a finite number: %s", b)
	}
	*a = amount(f)
	return nil
}

// flag accepts booleans, numbers and "true"/"false" style strings.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*f = flag(x)
	case float64:
		*f = x != 0
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(x))
		*f = flag(parsed)
	default:
		*f = false
	}
	return nil
}

// rateText keeps an hourly rate as text; numbers are written without a
// fractional part when they have none.
type rateText string

func (r *rateText) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*r = rateText(strings.TrimSpace(x))
	case float64:
		*r = rateText(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		*r = ""
	}
	return nil
}

// date holds an ISO-8601 date; strings that are not dates leave it absent.
type date struct {
	value *model.Date
}

func (d *date) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		d.value = nil
		return nil
	}
	parsed, err := model.ParseDate(s)
	if err != nil {
		d.value = nil
		return nil
	}
	d.value = &parsed
	return nil
}

type wireEmployee struct {
	Name                 string   `json:"Name"`
	Role                 string   `json:"Role"`
	HourlyRate           rateText `json:"Hourly Rate (CHF)"`
	EmploymentPercentage number   `json:"Employment (%)"`
	ResearchPercentage   number   `json:"Research (%)"`
	AcquisitionHours     number   `json:"Acquisition (h)"`
	IsManagement         flag     `json:"Management"`
	Birthdate            date     `json:"Birthdate"`
	IsExternallyFunded   flag     `json:"ILV"`
}

type wireDocument struct {
	TotalBudget              *amount         `json:"total_budget"`
	Employees                *[]wireEmployee `json:"employees"`
	Year                     *int            `json:"year"`
	AnnualWorkingTime        *number         `json:"annualWorkingTime"`
	AdministrationPercentage *number         `json:"administrationPercentage"`
	HoursPerDay              *number         `json:"hoursPerDay"`
	ManagementAllowance      *number         `json:"managementAllowance"`
	TrackVacation            *bool           `json:"trackVacation"`
	TrackManagement          *bool           `json:"trackManagement"`
}

// Decode parses a document. Settings missing from data are taken from
// defaults; a missing total budget or employee list is an error.
func Decode(data []byte, defaults model.Settings) (model.Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if w.TotalBudget == nil {
		return model.Document{}, fmt.Errorf("%w: missing %q", ErrMalformedDocument, TotalBudgetKey)
	}
	if w.Employees == nil {
		return model.Document{}, fmt.Errorf("%w: missing %q", ErrMalformedDocument, EmployeesKey)
	}

	s := defaults
	if w.Year != nil {
		s.Year = *w.Year
	}
	if w.AnnualWorkingTime != nil {
		s.AnnualWorkingHours = float64(*w.AnnualWorkingTime)
	}
	if w.AdministrationPercentage != nil {
		s.AdministrationPercentage = float64(*w.AdministrationPercentage)
	}
	if w.HoursPerDay != nil {
		s.HoursPerDay = float64(*w.HoursPerDay)
	}
	if w.ManagementAllowance != nil {
		s.ManagementAllowance = float64(*w.ManagementAllowance)
	}
	if w.TrackVacation != nil {
		s.TrackVacation = *w.TrackVacation
	}
	if w.TrackManagement != nil {
		s.TrackManagement = *w.TrackManagement
	}

	doc := model.Document{
		TotalBudget: float64(*w.TotalBudget),
		Settings:    s,
		Employees:   make([]model.Employee, 0, len(*w.Employees)),
	}
	for _, we := range *w.Employees {
		doc.Employees = append(doc.Employees, model.Employee{
			Name:                 we.Name,
			Role:                 model.Role(we.Role),
			HourlyRate:           model.HourlyRate(we.HourlyRate),
			EmploymentPercentage: float64(we.EmploymentPercentage),
			ResearchPercentage:   float64(we.ResearchPercentage),
			AcquisitionHours:     float64(we.AcquisitionHours),
			IsManagement:         bool(we.IsManagement),
			Birthdate:            we.Birthdate.value,
			IsExternallyFunded:   bool(we.IsExternallyFunded),
		})
	}
	return doc, nil
}

// Encode writes doc as indented JSON, derived columns included.
func Encode(doc model.Document) ([]byte, error) {
	if doc.Employees == nil {
		doc.Employees = []model.Employee{}
	}
	return json.MarshalIndent(doc, "", "  ")
}
