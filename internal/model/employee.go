package model

import "strings"

type Role string

const (
	RoleLecturer          Role = "Lecturer"
	RoleScientificStaff   Role = "Scientific Staff"
	RoleResearchAssistant Role = "Research Assistant"
)

// Roles lists the canonical role tags in display order.
var Roles = []Role{RoleLecturer, RoleScientificStaff, RoleResearchAssistant}

const DefaultRole = RoleScientificStaff

func (r Role) Known() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// HourlyRate is kept as the text the user typed. An empty rate is valid and
// costs nothing; non-empty text must parse as an integer when edited.
type HourlyRate string

func (r HourlyRate) String() string { return strings.TrimSpace(string(r)) }

// Employee is one planning row. Fields after IsExternallyFunded are derived
// and rewritten by the budget session on every relevant edit.
type Employee struct {
	ID                   string     `json:"-"`
	Name                 string     `json:"Name"`
	Role                 Role       `json:"Role"`
	HourlyRate           HourlyRate `json:"Hourly Rate (CHF)"`
	EmploymentPercentage float64    `json:"Employment (%)"`
	ResearchPercentage   float64    `json:"Research (%)"`
	AcquisitionHours     float64    `json:"Acquisition (h)"`
	IsManagement         bool       `json:"Management"`
	Birthdate            *Date      `json:"Birthdate"`
	IsExternallyFunded   bool       `json:"ILV"`

	VacationDays        int     `json:"Vacation (d)"`
	AnnualWorkingHours  float64 `json:"Annual Working Time (h)"`
	ResearchHours       float64 `json:"Research (h)"`
	AdministrationHours float64 `json:"Administration (h)"`
	VacationHours       float64 `json:"Vacation (h)"`
	AcquisitionCosts    float64 `json:"Acquisition Costs (CHF)"`
	AdministrationCosts float64 `json:"Administration Costs (CHF)"`
	VacationCosts       float64 `json:"Vacation Costs (CHF)"`
	ManagementCosts     float64 `json:"Management Costs (CHF)"`
	PublicFunds         float64 `json:"Public Funds (CHF)"`
}

// NewEmployeeInput returns the pending input buffer in its reset state.
func NewEmployeeInput() Employee {
	return Employee{
		Role:                 DefaultRole,
		EmploymentPercentage: 80,
		ResearchPercentage:   50,
	}
}

// Clone returns a copy that shares no memory with e.
func (e Employee) Clone() Employee {
	if e.Birthdate != nil {
		d := *e.Birthdate
		e.Birthdate = &d
	}
	return e
}
