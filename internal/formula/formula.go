// Package formula holds the pure cost and working-time formulas used to
// derive an employee's planning figures. No function here panics or returns
// an error; unusable numeric input is treated as zero.
package formula

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseNumericOrDefault parses s as a float and returns 0 for empty,
// non-numeric, NaN or infinite input.
func ParseNumericOrDefault(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseInt reports whether s is an integer and returns its value.
func ParseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}

func percentage(value, pct float64) float64 {
	return value * pct / 100
}

// AnnualWorkingHours scales the base hours, minus vacation, by the
// employment percentage. Pass vacationDays=0 when vacation is not tracked.
func AnnualWorkingHours(baseAnnualHours, employmentPct float64, vacationDays int, hoursPerDay float64) float64 {
	working := baseAnnualHours - float64(vacationDays)*hoursPerDay
	return percentage(working, employmentPct)
}

// AnnualVacationHours converts vacation days into hours at the employment
// percentage.
func AnnualVacationHours(vacationDays int, employmentPct, hoursPerDay float64) float64 {
	return percentage(float64(vacationDays)*hoursPerDay, employmentPct)
}

// VacationDays returns the statutory vacation days for someone born on
// birthdate during the planning year. The bands are
// age<=20: 28, 21-44: 25, 45-55: 28, >55: 33.
func VacationDays(birthdate *time.Time, planningYear int) int {
	if birthdate == nil || birthdate.IsZero() {
		return 0
	}
	age := planningYear - birthdate.Year()
	switch {
	case age <= 20:
		return 28
	case age <= 44:
		return 25
	case age <= 55:
		return 28
	default:
		return 33
	}
}

func ResearchHours(annualWorkingHours, researchPct float64) float64 {
	return percentage(annualWorkingHours, researchPct)
}

// AdministrationHours is zero for management; they are paid from the
// management allowance instead.
func AdministrationHours(isManagement bool, annualWorkingHours, administrationPct float64) float64 {
	if isManagement {
		return 0
	}
	return percentage(annualWorkingHours, administrationPct)
}

func Cost(hourlyRate, hours float64) float64 {
	if math.IsNaN(hourlyRate) || math.IsInf(hourlyRate, 0) || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0
	}
	return hourlyRate * hours
}

// CostOf is Cost over raw text input.
func CostOf(hourlyRate, hours string) float64 {
	return Cost(ParseNumericOrDefault(hourlyRate), ParseNumericOrDefault(hours))
}

// VacationCost is zero for externally funded (ILV) positions.
func VacationCost(isExternallyFunded bool, hourlyRate, vacationHours float64) float64 {
	if isExternallyFunded {
		return 0
	}
	return Cost(hourlyRate, vacationHours)
}

// ManagementShare splits the allowance equally across all management records.
func ManagementShare(allowance float64, managementCount int, isManagement bool) float64 {
	if managementCount <= 0 || !isManagement {
		return 0
	}
	return allowance / float64(managementCount)
}

// PublicFunds sums the cost components in scope for the current settings.
func PublicFunds(components ...float64) float64 {
	var total float64
	for _, c := range components {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		total += c
	}
	return total
}

// RemainingBudget may go negative; overspending is reported, not prevented.
func RemainingBudget(totalBudget float64, expenses ...float64) float64 {
	return totalBudget - PublicFunds(expenses...)
}

// Utilization returns spent as a percentage of budget, or 0 without a budget.
func Utilization(spent, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return spent / budget * 100
}
