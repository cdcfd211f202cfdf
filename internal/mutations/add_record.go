package mutations

import (
	"fmt"

	"budget-engine/internal/budget"
	"budget-engine/internal/formula"
	"budget-engine/internal/model"
	"budget-engine/internal/schema"
)

// addRecordProps mirrors the pending input row; omitted fields keep the
// input defaults.
type addRecordProps struct {
	Name                 *string  `json:"name"`
	Role                 *string  `json:"role"`
	HourlyRate           *text    `json:"hourly_rate"`
	EmploymentPercentage *float64 `json:"employment_percentage"`
	ResearchPercentage   *float64 `json:"research_percentage"`
	AcquisitionHours     *float64 `json:"acquisition_hours"`
	IsManagement         *bool    `json:"is_management"`
	IsExternallyFunded   *bool    `json:"is_externally_funded"`
	Birthdate            *string  `json:"birthdate"`
}

func (p addRecordProps) employee() model.Employee {
	e := model.NewEmployeeInput()
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Role != nil {
		e.Role = schema.ParseRole(*p.Role)
	}
	if p.HourlyRate != nil {
		e.HourlyRate = model.HourlyRate(*p.HourlyRate)
	}
	if p.EmploymentPercentage != nil {
		e.EmploymentPercentage = *p.EmploymentPercentage
	}
	if p.ResearchPercentage != nil {
		e.ResearchPercentage = *p.ResearchPercentage
	}
	if p.AcquisitionHours != nil {
		e.AcquisitionHours = *p.AcquisitionHours
	}
	if p.IsManagement != nil {
		e.IsManagement = *p.IsManagement
	}
	if p.IsExternallyFunded != nil {
		e.IsExternallyFunded = *p.IsExternallyFunded
	}
	if p.Birthdate != nil {
		if d, err := model.ParseDate(*p.Birthdate); err == nil {
			e.Birthdate = &d
		}
	}
	return e
}

type AddRecordHandler struct{}

func (h *AddRecordHandler) Validate(s *budget.Session, mutation *model.Mutation) []model.CalculationMessage {
	var props addRecordProps
	if msg := decodeProps(mutation, &props); msg != nil {
		return []model.CalculationMessage{*msg}
	}

	var msgs []model.CalculationMessage
	if props.HourlyRate != nil && *props.HourlyRate != "" {
		if v, ok := formula.ParseInt(string(*props.HourlyRate)); !ok || v < 0 {
			return append(msgs, model.CalculationMessage{
				Level:   model.LevelCritical,
				Code:    "INVALID_HOURLY_RATE",
				Message: fmt.Sprintf("Hourly rate %q is not a non-negative integer", *props.HourlyRate),
			})
		}
	}
	if props.Role != nil && !schema.ParseRole(*props.Role).Known() {
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelWarning,
			Code:    "UNKNOWN_ROLE",
			Message: fmt.Sprintf("Role %q is not a known role and is stored as entered", *props.Role),
		})
	}
	if props.Birthdate != nil && *props.Birthdate != "" {
		if _, err := model.ParseDate(*props.Birthdate); err != nil {
			msgs = append(msgs, model.CalculationMessage{
				Level:   model.LevelWarning,
				Code:    "INVALID_BIRTHDATE",
				Message: fmt.Sprintf("Birthdate %q is not an ISO-8601 date and is ignored", *props.Birthdate),
			})
		}
	}
	return msgs
}

func (h *AddRecordHandler) Apply(s *budget.Session, mutation *model.Mutation) (Result, []model.CalculationMessage) {
	var props addRecordProps
	decodeProps(mutation, &props)

	e := s.AddRecord(props.employee())
	var changed []string
	for _, f := range schema.Columns(s.Settings()) {
		changed = append(changed, string(f.Key))
	}
	return Result{RecordID: e.ID, ChangedFields: changed}, overspent(s)
}
