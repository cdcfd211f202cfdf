package engine

import (
	"math"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"budget-engine/internal/budget"
	"budget-engine/internal/jsonpatch"
	"budget-engine/internal/model"
)

func newSession() *budget.Session {
	return budget.NewSession(model.Settings{
		Year:                     2026,
		AnnualWorkingHours:       1940,
		AdministrationPercentage: 2,
		HoursPerDay:              8.4,
	})
}

func mutation(id, name, props string) model.Mutation {
	return model.Mutation{
		MutationID:             id,
		MutationDefinitionName: name,
		MutationProperties:     json.RawMessage(props),
	}
}

func TestProcessAddRecord(t *testing.T) {
	s := newSession()
	req := &model.CalculationRequest{
		Mutations: []model.Mutation{
			mutation("m1", "set_total_budget", `{"total_budget": 100000}`),
			mutation("m2", "add_record", `{
				"name": "Ada",
				"hourly_rate": 100,
				"employment_percentage": 50,
				"research_percentage": 50,
				"acquisition_hours": 10
			}`),
		},
	}

	resp := Process(s, req)

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationMetadata.CalculationID == "" {
		t.Fatal("expected calculation id")
	}
	if len(resp.CalculationResult.Messages) != 0 {
		t.Fatalf("expected 0 messages, got %v", resp.CalculationResult.Messages)
	}
	if len(resp.CalculationResult.Mutations) != 2 {
		t.Fatalf("expected 2 mutations, got %d", len(resp.CalculationResult.Mutations))
	}
	added := resp.CalculationResult.Mutations[1]
	if added.RecordID == "" {
		t.Fatal("expected record id on add_record")
	}
	r, ok := s.Record(added.RecordID)
	if !ok {
		t.Fatal("expected record in session")
	}
	if r.HourlyRate != "100" {
		t.Fatalf("expected rate 100, got %q", r.HourlyRate)
	}
	if got := resp.CalculationResult.Aggregates.RemainingBudget; math.Abs(got-97060) > 1e-6 {
		t.Fatalf("expected remaining 97060, got %v", got)
	}

	var patch []jsonpatch.Operation
	if err := json.Unmarshal(resp.CalculationResult.Patch, &patch); err != nil {
		t.Fatalf("unexpected error decoding patch: %v", err)
	}
	paths := jsonpatch.Paths(patch)
	if len(paths) != 2 || paths[0] != "/employees/0" || paths[1] != "/total_budget" {
		t.Fatalf("unexpected patch paths %v", paths)
	}
}

func TestProcessStopsAtRejectedHourlyRate(t *testing.T) {
	s := newSession()
	s.SetTotalBudget(100000)
	e := s.AddRecord(model.Employee{Name: "Ada", HourlyRate: "87", AcquisitionHours: 10})

	req := &model.CalculationRequest{
		Mutations: []model.Mutation{
			mutation("m1", "update_field", `{"record_id": "`+e.ID+`", "field": "acquisitionHours", "value": 20}`),
			mutation("m2", "update_field", `{"record_id": "`+e.ID+`", "field": "Hourly Rate (CHF)", "value": "eighty"}`),
			mutation("m3", "delete_record", `{"record_id": "`+e.ID+`"}`),
		},
	}

	resp := Process(s, req)

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if len(resp.CalculationResult.Mutations) != 2 {
		t.Fatalf("expected 2 processed mutations, got %d", len(resp.CalculationResult.Mutations))
	}
	if resp.CalculationResult.Messages[0].Code != "INVALID_HOURLY_RATE" {
		t.Fatalf("expected INVALID_HOURLY_RATE, got %s", resp.CalculationResult.Messages[0].Code)
	}
	first := resp.CalculationResult.Mutations[0]
	want := []string{"acquisitionHours", "acquisitionCosts", "publicFunds"}
	if strings.Join(first.ChangedFields, ",") != strings.Join(want, ",") {
		t.Fatalf("expected changed fields %v, got %v", want, first.ChangedFields)
	}

	r, ok := s.Record(e.ID)
	if !ok {
		t.Fatal("expected record to survive the batch")
	}
	if r.HourlyRate != "87" || r.AcquisitionCosts != 1740 {
		t.Fatalf("expected rate 87 and costs 1740, got %q / %v", r.HourlyRate, r.AcquisitionCosts)
	}
}

func TestProcessUnknownMutation(t *testing.T) {
	s := newSession()
	resp := Process(s, &model.CalculationRequest{
		Mutations: []model.Mutation{mutation("m1", "raise_salaries", `{}`)},
	})
	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationResult.Messages[0].Code != "UNKNOWN_MUTATION" {
		t.Fatalf("expected UNKNOWN_MUTATION, got %s", resp.CalculationResult.Messages[0].Code)
	}
	if string(resp.CalculationResult.Patch) != "[]" {
		t.Fatalf("expected empty patch, got %s", resp.CalculationResult.Patch)
	}
}

func TestProcessWarnsWhenBudgetExceeded(t *testing.T) {
	s := newSession()
	resp := Process(s, &model.CalculationRequest{
		Mutations: []model.Mutation{
			mutation("m1", "set_total_budget", `{"total_budget": 500}`),
			mutation("m2", "add_record", `{"hourly_rate": "100", "acquisition_hours": 10}`),
		},
	})
	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	found := false
	for _, m := range resp.CalculationResult.Messages {
		if m.Code == "BUDGET_EXCEEDED" && m.Level == model.LevelWarning {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected BUDGET_EXCEEDED warning, got %v", resp.CalculationResult.Messages)
	}
	if resp.CalculationResult.Aggregates.RemainingBudget >= 0 {
		t.Fatalf("expected negative remaining budget, got %v", resp.CalculationResult.Aggregates.RemainingBudget)
	}
}

func TestProcessRejectsNegativeBudget(t *testing.T) {
	s := newSession()
	s.SetTotalBudget(1000)
	resp := Process(s, &model.CalculationRequest{
		Mutations: []model.Mutation{mutation("m1", "set_total_budget", `{"total_budget": -5}`)},
	})
	if resp.CalculationResult.Messages[0].Code != "NEGATIVE_BUDGET" {
		t.Fatalf("expected NEGATIVE_BUDGET, got %v", resp.CalculationResult.Messages)
	}
	if s.TotalBudget() != 1000 {
		t.Fatalf("expected budget unchanged, got %v", s.TotalBudget())
	}
}

func TestProcessUpdateSettings(t *testing.T) {
	s := newSession()
	e := s.AddRecord(model.Employee{HourlyRate: "100", EmploymentPercentage: 100})
	resp := Process(s, &model.CalculationRequest{
		Mutations: []model.Mutation{mutation("m1", "update_settings", `{"administrationPercentage": 5}`)},
	})
	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %v", resp.CalculationResult.Messages)
	}
	r, _ := s.Record(e.ID)
	if math.Abs(r.AdministrationCosts-9700) > 1e-6 {
		t.Fatalf("expected administration costs 9700, got %v", r.AdministrationCosts)
	}
	if s.Settings().AnnualWorkingHours != 1940 {
		t.Fatalf("expected untouched settings to be kept, got %v", s.Settings().AnnualWorkingHours)
	}
}
