package model

import "time"

// Settings are the document-wide constants every derived field may read.
type Settings struct {
	Year                     int     `json:"year" toml:"year" yaml:"year"`
	AnnualWorkingHours       float64 `json:"annualWorkingTime" toml:"annual_working_hours" yaml:"annual_working_hours"`
	AdministrationPercentage float64 `json:"administrationPercentage" toml:"administration_percentage" yaml:"administration_percentage"`
	HoursPerDay              float64 `json:"hoursPerDay" toml:"hours_per_day" yaml:"hours_per_day"`
	ManagementAllowance      float64 `json:"managementAllowance" toml:"management_allowance" yaml:"management_allowance"`
	TrackVacation            bool    `json:"trackVacation" toml:"track_vacation" yaml:"track_vacation"`
	TrackManagement          bool    `json:"trackManagement" toml:"track_management" yaml:"track_management"`
}

const (
	DefaultAnnualWorkingHours       = 2120
	DefaultAdministrationPercentage = 2
	DefaultHoursPerDay              = 8.4
)

func DefaultSettings() Settings {
	return Settings{
		Year:                     time.Now().Year(),
		AnnualWorkingHours:       DefaultAnnualWorkingHours,
		AdministrationPercentage: DefaultAdministrationPercentage,
		HoursPerDay:              DefaultHoursPerDay,
		TrackVacation:            true,
		TrackManagement:          true,
	}
}

// Document is the persisted planning session.
type Document struct {
	TotalBudget float64 `json:"total_budget"`
	Settings
	Employees []Employee `json:"employees"`
}

// Aggregates are the document-wide totals. Management and vacation totals are
// nil when the settings leave them out of scope.
type Aggregates struct {
	TotalAcquisitionCosts    float64  `json:"totalAcquisitionCosts"`
	TotalAdministrationCosts float64  `json:"totalAdministrationCosts"`
	TotalManagementCosts     *float64 `json:"totalManagementCosts,omitempty"`
	TotalVacationCosts       *float64 `json:"totalVacationCosts,omitempty"`
	TotalPublicFunds         float64  `json:"totalPublicFunds"`
	RemainingBudget          float64  `json:"remainingBudget"`
}
