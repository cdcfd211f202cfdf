package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"budget-engine/internal/budget"
	"budget-engine/internal/jsonpatch"
	"budget-engine/internal/model"
	"budget-engine/internal/mutations"
)

// Process applies the mutations of req to s in order. It stops at the first
// mutation that produces a CRITICAL message; that mutation leaves s
// unchanged, earlier ones stay applied. The response carries the patches
// between the document before and after the batch.
func Process(s *budget.Session, req *model.CalculationRequest) *model.CalculationResponse {
	start := time.Now()
	before := s.Document()

	var allMessages []model.CalculationMessage
	var processedMutations []model.ProcessedMutation
	outcome := model.OutcomeSuccess

	record := func(msgs []model.CalculationMessage, indexes *[]int) bool {
		critical := false
		for _, m := range msgs {
			m.ID = len(allMessages)
			allMessages = append(allMessages, m)
			*indexes = append(*indexes, m.ID)
			if m.Level == model.LevelCritical {
				critical = true
			}
		}
		return critical
	}

	for i := range req.Mutations {
		mut := req.Mutations[i]
		handler, ok := mutations.Get(mut.MutationDefinitionName)
		if !ok {
			var indexes []int
			record([]model.CalculationMessage{{
				Level:   model.LevelCritical,
				Code:    "UNKNOWN_MUTATION",
				Message: fmt.Sprintf("Unknown mutation: %s", mut.MutationDefinitionName),
			}}, &indexes)
			processedMutations = append(processedMutations, model.ProcessedMutation{
				Mutation:                  mut,
				CalculationMessageIndexes: indexes,
			})
			outcome = model.OutcomeFailure
			break
		}

		var indexes []int
		if record(handler.Validate(s, &mut), &indexes) {
			processedMutations = append(processedMutations, model.ProcessedMutation{
				Mutation:                  mut,
				CalculationMessageIndexes: indexes,
			})
			outcome = model.OutcomeFailure
			break
		}

		result, applyMsgs := handler.Apply(s, &mut)
		critical := record(applyMsgs, &indexes)
		processedMutations = append(processedMutations, model.ProcessedMutation{
			Mutation:                  mut,
			RecordID:                  result.RecordID,
			ChangedFields:             result.ChangedFields,
			CalculationMessageIndexes: indexes,
		})
		if critical {
			outcome = model.OutcomeFailure
			break
		}
	}

	fwd, bwd, err := jsonpatch.Between(before, s.Document())
	if err != nil {
		allMessages = append(allMessages, model.CalculationMessage{
			ID:      len(allMessages),
			Level:   model.LevelWarning,
			Code:    "PATCH_UNAVAILABLE",
			Message: err.Error(),
		})
	}

	elapsed := time.Since(start)
	now := time.Now().UTC()

	if allMessages == nil {
		allMessages = []model.CalculationMessage{}
	}
	if processedMutations == nil {
		processedMutations = []model.ProcessedMutation{}
	}

	return &model.CalculationResponse{
		CalculationMetadata: model.CalculationMetadata{
			CalculationID:          uuid.New().String(),
			CalculationStartedAt:   now.Add(-elapsed).Format(time.RFC3339),
			CalculationCompletedAt: now.Format(time.RFC3339),
			CalculationDurationMs:  elapsed.Milliseconds(),
			CalculationOutcome:     outcome,
		},
		CalculationResult: model.CalculationResult{
			Messages:      allMessages,
			Mutations:     processedMutations,
			Aggregates:    s.Aggregates(),
			Patch:         jsonpatch.Marshal(fwd),
			BackwardPatch: jsonpatch.Marshal(bwd),
		},
	}
}
