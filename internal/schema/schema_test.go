package schema

import (
	"errors"
	"reflect"
	"testing"

	"budget-engine/internal/model"
)

func TestOrderRespectsDependencies(t *testing.T) {
	pos := make(map[Key]int)
	for i, k := range Order() {
		pos[k] = i
	}
	if len(pos) != len(Fields()) {
		t.Fatalf("expected %d keys in order, got %d", len(Fields()), len(pos))
	}
	for _, f := range Fields() {
		for _, up := range f.DependsOn {
			if pos[up] >= pos[f.Key] {
				t.Fatalf("expected %s before %s", up, f.Key)
			}
		}
	}
}

func TestDownstream(t *testing.T) {
	tests := []struct {
		from Key
		want []Key
	}{
		{EmploymentPercentage, []Key{AnnualWorkingHours, ResearchHours, AdministrationHours, VacationHours, AdministrationCosts, VacationCosts, PublicFunds}},
		{ResearchPercentage, []Key{ResearchHours}},
		{HourlyRate, []Key{AcquisitionCosts, AdministrationCosts, VacationCosts, PublicFunds}},
		{AcquisitionHours, []Key{AcquisitionCosts, PublicFunds}},
		{IsManagement, []Key{AdministrationHours, AdministrationCosts, ManagementCosts, PublicFunds}},
		{Birthdate, []Key{VacationDays, AnnualWorkingHours, ResearchHours, AdministrationHours, VacationHours, AdministrationCosts, VacationCosts, PublicFunds}},
		{IsExternallyFunded, []Key{VacationCosts, PublicFunds}},
		{Name, nil},
		{Role, nil},
	}
	for _, tt := range tests {
		if got := Downstream(tt.from); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("Downstream(%s): expected %v, got %v", tt.from, tt.want, got)
		}
	}
}

func TestTopoSortDetectsCycle(t *testing.T) {
	fs := []Field{
		{Key: "a", DependsOn: []Key{"b"}},
		{Key: "b", DependsOn: []Key{"a"}},
	}
	index := map[Key]*Field{"a": &fs[0], "b": &fs[1]}
	if _, err := topoSort(fs, index); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestHourlyRateRejectsNonInteger(t *testing.T) {
	f, _ := Lookup(HourlyRate)
	e := model.Employee{HourlyRate: "87"}
	err := f.Set(&e, "12.5")
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if e.HourlyRate != "87" {
		t.Fatalf("expected rate to stay 87, got %q", e.HourlyRate)
	}
	if err := f.Set(&e, ""); err != nil || e.HourlyRate != "" {
		t.Fatalf("expected empty rate to be accepted, got %q %v", e.HourlyRate, err)
	}
	if v, ok := f.Numeric(&e); ok {
		t.Fatalf("expected empty rate to be unorderable, got %v", v)
	}
}

func TestHourlyRateRejectsNegative(t *testing.T) {
	f, _ := Lookup(HourlyRate)
	e := model.Employee{HourlyRate: "87"}
	if err := f.Set(&e, "-50"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if e.HourlyRate != "87" {
		t.Fatalf("expected rate to stay 87, got %q", e.HourlyRate)
	}
	if err := f.Set(&e, "0"); err != nil || e.HourlyRate != "0" {
		t.Fatalf("expected zero rate to be accepted, got %q %v", e.HourlyRate, err)
	}
}

func TestComputedFieldsCannotBeSet(t *testing.T) {
	f, _ := Lookup(PublicFunds)
	if f.Editable() {
		t.Fatal("expected public funds to be read-only")
	}
	if err := f.Set(&model.Employee{}, "1"); err == nil {
		t.Fatal("expected error setting a computed field")
	}
}

func TestParseRole(t *testing.T) {
	if got := ParseRole("scientific staff"); got != model.RoleScientificStaff {
		t.Fatalf("expected %q, got %q", model.RoleScientificStaff, got)
	}
	if got := ParseRole("Professor"); got != "Professor" {
		t.Fatalf("expected unknown role kept verbatim, got %q", got)
	}
}

func TestPercentageIsClamped(t *testing.T) {
	f, _ := Lookup(EmploymentPercentage)
	e := model.Employee{}
	_ = f.Set(&e, "140")
	if e.EmploymentPercentage != 100 {
		t.Fatalf("expected 100, got %v", e.EmploymentPercentage)
	}
	_ = f.Set(&e, "abc")
	if e.EmploymentPercentage != 0 {
		t.Fatalf("expected 0, got %v", e.EmploymentPercentage)
	}
}

func TestColumnsFollowSettings(t *testing.T) {
	basic := model.Settings{}
	for _, f := range Columns(basic) {
		if f.Scope != ScopeAlways {
			t.Fatalf("expected %s to be out of scope", f.Key)
		}
	}
	full := model.Settings{TrackVacation: true, TrackManagement: true}
	if len(Columns(full)) != len(Fields()) {
		t.Fatalf("expected all %d columns, got %d", len(Fields()), len(Columns(full)))
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		0:           "0.00",
		1940:        "1,940.00",
		1234567.891: "1,234,567.89",
		-2940.5:     "-2,940.50",
		999.999:     "1,000.00",
	}
	for in, want := range tests {
		if got := FormatAmount(in); got != want {
			t.Fatalf("FormatAmount(%v): expected %s, got %s", in, want, got)
		}
	}
}

func TestLookupColumn(t *testing.T) {
	f, ok := LookupColumn("Hourly Rate (CHF)")
	if !ok || f.Key != HourlyRate {
		t.Fatalf("expected hourly rate descriptor, got %v", f)
	}
	if _, ok := LookupColumn("Salary"); ok {
		t.Fatal("expected unknown column")
	}
}
