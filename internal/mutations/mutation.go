package mutations

import (
	"budget-engine/internal/budget"
	"budget-engine/internal/model"
)

// Result is what an applied mutation reports back to the caller.
type Result struct {
	RecordID      string
	ChangedFields []string
}

// MutationHandler defines the contract for all mutation implementations.
// Validate must not modify the session; Apply runs only when Validate
// produced no CRITICAL message.
type MutationHandler interface {
	Validate(s *budget.Session, mutation *model.Mutation) []model.CalculationMessage
	Apply(s *budget.Session, mutation *model.Mutation) (Result, []model.CalculationMessage)
}
