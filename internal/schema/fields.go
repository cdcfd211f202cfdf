package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"budget-engine/internal/formula"
	"budget-engine/internal/model"
)

const (
	Name                 Key = "name"
	Role                 Key = "role"
	HourlyRate           Key = "hourlyRate"
	EmploymentPercentage Key = "employmentPercentage"
	ResearchPercentage   Key = "researchPercentage"
	AcquisitionHours     Key = "acquisitionHours"
	IsManagement         Key = "isManagement"
	Birthdate            Key = "birthdate"
	IsExternallyFunded   Key = "isExternallyFunded"

	VacationDays        Key = "vacationDays"
	AnnualWorkingHours  Key = "annualWorkingHours"
	ResearchHours       Key = "researchHours"
	AdministrationHours Key = "administrationHours"
	VacationHours       Key = "vacationHours"
	AcquisitionCosts    Key = "acquisitionCosts"
	AdministrationCosts Key = "administrationCosts"
	VacationCosts       Key = "vacationCosts"
	ManagementCosts     Key = "managementCosts"
	PublicFunds         Key = "publicFunds"
)

func floatField(get func(e *model.Employee) float64) func(e *model.Employee) (float64, bool) {
	return func(e *model.Employee) (float64, bool) { return get(e), true }
}

func flagText(v bool) string { return strconv.FormatBool(v) }

func flagDisplay(v bool) string {
	if v {
		return "yes"
	}
	return ""
}

// computed builds the descriptor of a derived float column.
func computed(key Key, scope Scope, column, label string, deps []Key, get func(e *model.Employee) float64, display func(float64) string) Field {
	return Field{
		Key:       key,
		Kind:      KindComputed,
		Scope:     scope,
		Column:    column,
		Label:     label,
		DependsOn: deps,
		text:      func(e *model.Employee) string { return formatFloat(get(e)) },
		display:   func(e *model.Employee) string { return display(get(e)) },
		numeric:   floatField(get),
	}
}

var fields = []Field{
	{
		Key:    Name,
		Kind:   KindText,
		Column: "Name",
		Label:  "Name",
		set: func(e *model.Employee, raw string) error {
			e.Name = raw
			return nil
		},
		text: func(e *model.Employee) string { return e.Name },
	},
	{
		Key:    Role,
		Kind:   KindEnum,
		Column: "Role",
		Label:  "Role",
		set: func(e *model.Employee, raw string) error {
			e.Role = ParseRole(raw)
			return nil
		},
		text:    func(e *model.Employee) string { return string(e.Role) },
		display: func(e *model.Employee) string { return RoleLabel(e.Role) },
	},
	{
		Key:    HourlyRate,
		Kind:   KindInteger,
		Column: "Hourly Rate (CHF)",
		Label:  "Hourly Rate (CHF)",
		set: func(e *model.Employee, raw string) error {
			raw = strings.TrimSpace(raw)
			if raw != "" {
				v, ok := formula.ParseInt(raw)
				if !ok {
					return fmt.Errorf("%w: hourly rate %q is not an integer", ErrInvalidValue, raw)
				}
				if v < 0 {
					return fmt.Errorf("%w: hourly rate %q is negative", ErrInvalidValue, raw)
				}
			}
			e.HourlyRate = model.HourlyRate(raw)
			return nil
		},
		text: func(e *model.Employee) string { return e.HourlyRate.String() },
		numeric: func(e *model.Employee) (float64, bool) {
			v, err := strconv.ParseFloat(e.HourlyRate.String(), 64)
			if err != nil || math.IsNaN(v) {
				return math.NaN(), false
			}
			return v, true
		},
	},
	{
		Key:    EmploymentPercentage,
		Kind:   KindPercentage,
		Column: "Employment (%)",
		Label:  "Employment (%)",
		set: func(e *model.Employee, raw string) error {
			e.EmploymentPercentage = parsePercentage(raw)
			return nil
		},
		text:    func(e *model.Employee) string { return formatFloat(e.EmploymentPercentage) },
		numeric: floatField(func(e *model.Employee) float64 { return e.EmploymentPercentage }),
	},
	{
		Key:    ResearchPercentage,
		Kind:   KindPercentage,
		Column: "Research (%)",
		Label:  "Research (%)",
		set: func(e *model.Employee, raw string) error {
			e.ResearchPercentage = parsePercentage(raw)
			return nil
		},
		text:    func(e *model.Employee) string { return formatFloat(e.ResearchPercentage) },
		numeric: floatField(func(e *model.Employee) float64 { return e.ResearchPercentage }),
	},
	{
		Key:    AcquisitionHours,
		Kind:   KindNumber,
		Column: "Acquisition (h)",
		Label:  "Acquisition (h)",
		set: func(e *model.Employee, raw string) error {
			e.AcquisitionHours = math.Max(0, parseNumber(raw))
			return nil
		},
		text:    func(e *model.Employee) string { return formatFloat(e.AcquisitionHours) },
		numeric: floatField(func(e *model.Employee) float64 { return e.AcquisitionHours }),
	},
	{
		Key:    IsManagement,
		Kind:   KindFlag,
		Scope:  ScopeManagement,
		Column: "Management",
		Label:  "Management",
		set: func(e *model.Employee, raw string) error {
			e.IsManagement = parseFlag(raw)
			return nil
		},
		text:    func(e *model.Employee) string { return flagText(e.IsManagement) },
		display: func(e *model.Employee) string { return flagDisplay(e.IsManagement) },
	},
	{
		Key:    Birthdate,
		Kind:   KindDate,
		Scope:  ScopeVacation,
		Column: "Birthdate",
		Label:  "Birthdate",
		set: func(e *model.Employee, raw string) error {
			d, err := model.ParseDate(raw)
			if err != nil {
				e.Birthdate = nil
				return nil
			}
			e.Birthdate = &d
			return nil
		},
		text: func(e *model.Employee) string {
			if e.Birthdate == nil {
				return ""
			}
			return e.Birthdate.String()
		},
	},
	{
		Key:    IsExternallyFunded,
		Kind:   KindFlag,
		Scope:  ScopeVacation,
		Column: "ILV",
		Label:  "ILV",
		set: func(e *model.Employee, raw string) error {
			e.IsExternallyFunded = parseFlag(raw)
			return nil
		},
		text:    func(e *model.Employee) string { return flagText(e.IsExternallyFunded) },
		display: func(e *model.Employee) string { return flagDisplay(e.IsExternallyFunded) },
	},
	{
		Key:       VacationDays,
		Kind:      KindComputed,
		Scope:     ScopeVacation,
		Column:    "Vacation (d)",
		Label:     "Vacation (d)",
		DependsOn: []Key{Birthdate},
		text:      func(e *model.Employee) string { return strconv.Itoa(e.VacationDays) },
		numeric:   floatField(func(e *model.Employee) float64 { return float64(e.VacationDays) }),
	},
	computed(AnnualWorkingHours, ScopeAlways, "Annual Working Time (h)", "Working Time (h)",
		[]Key{EmploymentPercentage, VacationDays},
		func(e *model.Employee) float64 { return e.AnnualWorkingHours }, FormatHours),
	computed(ResearchHours, ScopeAlways, "Research (h)", "Research (h)",
		[]Key{AnnualWorkingHours, ResearchPercentage},
		func(e *model.Employee) float64 { return e.ResearchHours }, FormatHours),
	computed(AdministrationHours, ScopeAlways, "Administration (h)", "Administration (h)",
		[]Key{AnnualWorkingHours, IsManagement},
		func(e *model.Employee) float64 { return e.AdministrationHours }, FormatHours),
	computed(VacationHours, ScopeVacation, "Vacation (h)", "Vacation (h)",
		[]Key{VacationDays, EmploymentPercentage},
		func(e *model.Employee) float64 { return e.VacationHours }, FormatHours),
	computed(AcquisitionCosts, ScopeAlways, "Acquisition Costs (CHF)", "Acquisition Costs (CHF)",
		[]Key{HourlyRate, AcquisitionHours},
		func(e *model.Employee) float64 { return e.AcquisitionCosts }, FormatAmount),
	computed(AdministrationCosts, ScopeAlways, "Administration Costs (CHF)", "Administration Costs (CHF)",
		[]Key{HourlyRate, AdministrationHours},
		func(e *model.Employee) float64 { return e.AdministrationCosts }, FormatAmount),
	computed(VacationCosts, ScopeVacation, "Vacation Costs (CHF)", "Vacation Costs (CHF)",
		[]Key{HourlyRate, VacationHours, IsExternallyFunded},
		func(e *model.Employee) float64 { return e.VacationCosts }, FormatAmount),
	func() Field {
		f := computed(ManagementCosts, ScopeManagement, "Management Costs (CHF)", "Management Costs (CHF)",
			[]Key{IsManagement},
			func(e *model.Employee) float64 { return e.ManagementCosts }, FormatAmount)
		f.DocumentWide = true
		return f
	}(),
	computed(PublicFunds, ScopeAlways, "Public Funds (CHF)", "Public Funds (CHF)",
		[]Key{AcquisitionCosts, AdministrationCosts, VacationCosts, ManagementCosts},
		func(e *model.Employee) float64 { return e.PublicFunds }, FormatAmount),
}
