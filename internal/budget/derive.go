package budget

import (
	"budget-engine/internal/formula"
	"budget-engine/internal/model"
	"budget-engine/internal/schema"
)

// deriveContext carries the document-wide inputs of the formulas.
type deriveContext struct {
	settings model.Settings
	managers int
}

func (c deriveContext) isManagement(e *model.Employee) bool {
	return c.settings.TrackManagement && e.IsManagement
}

func hourlyRate(e *model.Employee) float64 {
	return formula.ParseNumericOrDefault(e.HourlyRate.String())
}

type deriveFunc func(c deriveContext, e *model.Employee)

var derivers = map[schema.Key]deriveFunc{
	schema.VacationDays: func(c deriveContext, e *model.Employee) {
		e.VacationDays = 0
		if c.settings.TrackVacation && e.Birthdate != nil {
			e.VacationDays = formula.VacationDays(&e.Birthdate.Time, c.settings.Year)
		}
	},
	schema.AnnualWorkingHours: func(c deriveContext, e *model.Employee) {
		e.AnnualWorkingHours = formula.AnnualWorkingHours(
			c.settings.AnnualWorkingHours, e.EmploymentPercentage, e.VacationDays, c.settings.HoursPerDay)
	},
	schema.ResearchHours: func(c deriveContext, e *model.Employee) {
		e.ResearchHours = formula.ResearchHours(e.AnnualWorkingHours, e.ResearchPercentage)
	},
	schema.AdministrationHours: func(c deriveContext, e *model.Employee) {
		e.AdministrationHours = formula.AdministrationHours(
			c.isManagement(e), e.AnnualWorkingHours, c.settings.AdministrationPercentage)
	},
	schema.VacationHours: func(c deriveContext, e *model.Employee) {
		e.VacationHours = 0
		if c.settings.TrackVacation {
			e.VacationHours = formula.AnnualVacationHours(e.VacationDays, e.EmploymentPercentage, c.settings.HoursPerDay)
		}
	},
	schema.AcquisitionCosts: func(c deriveContext, e *model.Employee) {
		e.AcquisitionCosts = formula.Cost(hourlyRate(e), e.AcquisitionHours)
	},
	schema.AdministrationCosts: func(c deriveContext, e *model.Employee) {
		e.AdministrationCosts = formula.Cost(hourlyRate(e), e.AdministrationHours)
	},
	schema.VacationCosts: func(c deriveContext, e *model.Employee) {
		e.VacationCosts = 0
		if c.settings.TrackVacation {
			e.VacationCosts = formula.VacationCost(e.IsExternallyFunded, hourlyRate(e), e.VacationHours)
		}
	},
	schema.ManagementCosts: func(c deriveContext, e *model.Employee) {
		e.ManagementCosts = 0
		if c.settings.TrackManagement {
			e.ManagementCosts = formula.ManagementShare(c.settings.ManagementAllowance, c.managers, e.IsManagement)
		}
	},
	schema.PublicFunds: func(c deriveContext, e *model.Employee) {
		e.PublicFunds = formula.PublicFunds(e.AcquisitionCosts, e.AdministrationCosts, e.VacationCosts, e.ManagementCosts)
	},
}

func init() {
	for _, k := range schema.Computed() {
		if _, ok := derivers[k]; !ok {
			panic("budget: no deriver for computed field " + string(k))
		}
	}
}

// derive recomputes keys on e. keys must be in topological order.
func derive(c deriveContext, e *model.Employee, keys []schema.Key) {
	for _, k := range keys {
		if fn, ok := derivers[k]; ok {
			fn(c, e)
		}
	}
}

func deriveAll(c deriveContext, e *model.Employee) {
	derive(c, e, schema.Computed())
}

func countManagers(s model.Settings, employees []model.Employee) int {
	if !s.TrackManagement {
		return 0
	}
	n := 0
	for i := range employees {
		if employees[i].IsManagement {
			n++
		}
	}
	return n
}

func computeAggregates(totalBudget float64, s model.Settings, employees []model.Employee) model.Aggregates {
	var agg model.Aggregates
	var management, vacation float64
	for i := range employees {
		e := &employees[i]
		agg.TotalAcquisitionCosts += e.AcquisitionCosts
		agg.TotalAdministrationCosts += e.AdministrationCosts
		agg.TotalPublicFunds += e.PublicFunds
		management += e.ManagementCosts
		vacation += e.VacationCosts
	}
	expenses := []float64{agg.TotalAcquisitionCosts, agg.TotalAdministrationCosts}
	if s.TrackManagement {
		agg.TotalManagementCosts = &management
		expenses = append(expenses, management)
	}
	if s.TrackVacation {
		agg.TotalVacationCosts = &vacation
		expenses = append(expenses, vacation)
	}
	agg.RemainingBudget = formula.RemainingBudget(totalBudget, expenses...)
	return agg
}
