package mutations

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"

	"budget-engine/internal/budget"
	"budget-engine/internal/model"
)

// text accepts a JSON string, number or boolean and keeps it as the text a
// user would have typed.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = text(x)
	case bool:
		*t = text(strconv.FormatBool(x))
	case float64:
		*t = text(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		return fmt.Errorf("expected a scalar, got %T", v)
	}
	return nil
}

func decodeProps(mutation *model.Mutation, v any) *model.CalculationMessage {
	if len(mutation.MutationProperties) == 0 {
		return nil
	}
	if err := json.Unmarshal(mutation.MutationProperties, v); err != nil {
		return &model.CalculationMessage{
			Level:   model.LevelCritical,
			Code:    "INVALID_PROPERTIES",
			Message: fmt.Sprintf("Invalid mutation properties: %v", err),
		}
	}
	return nil
}

func recordNotFound(id string) model.CalculationMessage {
	return model.CalculationMessage{
		Level:   model.LevelCritical,
		Code:    "RECORD_NOT_FOUND",
		Message: fmt.Sprintf("No record with id %q", id),
	}
}

// overspent warns when the costs exceed the budget. Overspending is allowed.
func overspent(s *budget.Session) []model.CalculationMessage {
	agg := s.Aggregates()
	if agg.RemainingBudget >= 0 {
		return nil
	}
	return []model.CalculationMessage{{
		Level:   model.LevelWarning,
		Code:    "BUDGET_EXCEEDED",
		Message: fmt.Sprintf("Costs exceed the total budget by %.2f CHF", -agg.RemainingBudget),
	}}
}
