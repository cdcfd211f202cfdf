package mutations

import (
	"fmt"
	"math"

	"budget-engine/internal/budget"
	"budget-engine/internal/model"
)

type setTotalBudgetProps struct {
	TotalBudget float64 `json:"total_budget"`
}

type SetTotalBudgetHandler struct{}

func (h *SetTotalBudgetHandler) Validate(s *budget.Session, mutation *model.Mutation) []model.CalculationMessage {
	var props setTotalBudgetProps
	if msg := decodeProps(mutation, &props); msg != nil {
		return []model.CalculationMessage{*msg}
	}
	if props.TotalBudget < 0 || math.IsNaN(props.TotalBudget) || math.IsInf(props.TotalBudget, 0) {
		return []model.CalculationMessage{{
			Level:   model.LevelCritical,
			Code:    "NEGATIVE_BUDGET",
			Message: fmt.Sprintf("Total budget must be a non-negative amount, got %v", props.TotalBudget),
		}}
	}
	return nil
}

func (h *SetTotalBudgetHandler) Apply(s *budget.Session, mutation *model.Mutation) (Result, []model.CalculationMessage) {
	var props setTotalBudgetProps
	decodeProps(mutation, &props)

	s.SetTotalBudget(props.TotalBudget)
	return Result{ChangedFields: []string{"total_budget"}}, overspent(s)
}

// updateSettingsProps holds the settings to change; omitted ones are kept.
type updateSettingsProps struct {
	Year                     *int     `json:"year"`
	AnnualWorkingHours       *float64 `json:"annualWorkingTime"`
	AdministrationPercentage *float64 `json:"administrationPercentage"`
	HoursPerDay              *float64 `json:"hoursPerDay"`
	ManagementAllowance      *float64 `json:"managementAllowance"`
	TrackVacation            *bool    `json:"trackVacation"`
	TrackManagement          *bool    `json:"trackManagement"`
}

func (p updateSettingsProps) apply(s model.Settings) (model.Settings, []string) {
	var changed []string
	if p.Year != nil {
		s.Year = *p.Year
		changed = append(changed, "year")
	}
	if p.AnnualWorkingHours != nil {
		s.AnnualWorkingHours = *p.AnnualWorkingHours
		changed = append(changed, "annualWorkingTime")
	}
	if p.AdministrationPercentage != nil {
		s.AdministrationPercentage = *p.AdministrationPercentage
		changed = append(changed, "administrationPercentage")
	}
	if p.HoursPerDay != nil {
		s.HoursPerDay = *p.HoursPerDay
		changed = append(changed, "hoursPerDay")
	}
	if p.ManagementAllowance != nil {
		s.ManagementAllowance = *p.ManagementAllowance
		changed = append(changed, "managementAllowance")
	}
	if p.TrackVacation != nil {
		s.TrackVacation = *p.TrackVacation
		changed = append(changed, "trackVacation")
	}
	if p.TrackManagement != nil {
		s.TrackManagement = *p.TrackManagement
		changed = append(changed, "trackManagement")
	}
	return s, changed
}

type UpdateSettingsHandler struct{}

func (h *UpdateSettingsHandler) Validate(s *budget.Session, mutation *model.Mutation) []model.CalculationMessage {
	var props updateSettingsProps
	if msg := decodeProps(mutation, &props); msg != nil {
		return []model.CalculationMessage{*msg}
	}

	var msgs []model.CalculationMessage
	negative := func(name string, v *float64) {
		if v != nil && *v < 0 {
			msgs = append(msgs, model.CalculationMessage{
				Level:   model.LevelCritical,
				Code:    "INVALID_SETTING",
				Message: fmt.Sprintf("%s must not be negative", name),
			})
		}
	}
	negative("annualWorkingTime", props.AnnualWorkingHours)
	negative("administrationPercentage", props.AdministrationPercentage)
	negative("hoursPerDay", props.HoursPerDay)
	negative("managementAllowance", props.ManagementAllowance)
	if props.AdministrationPercentage != nil && *props.AdministrationPercentage > 100 {
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelCritical,
			Code:    "INVALID_SETTING",
			Message: "administrationPercentage must not exceed 100",
		})
	}
	return msgs
}

func (h *UpdateSettingsHandler) Apply(s *budget.Session, mutation *model.Mutation) (Result, []model.CalculationMessage) {
	var props updateSettingsProps
	decodeProps(mutation, &props)

	settings, changed := props.apply(s.Settings())
	s.SetSettings(settings)
	return Result{ChangedFields: changed}, overspent(s)
}
