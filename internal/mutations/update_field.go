package mutations

import (
	"errors"
	"fmt"

	"budget-engine/internal/budget"
	"budget-engine/internal/model"
	"budget-engine/internal/schema"
)

type updateFieldProps struct {
	RecordID string `json:"record_id"`
	Field    string `json:"field"`
	Value    text   `json:"value"`
}

type UpdateFieldHandler struct{}

func (h *UpdateFieldHandler) Validate(s *budget.Session, mutation *model.Mutation) []model.CalculationMessage {
	var props updateFieldProps
	if msg := decodeProps(mutation, &props); msg != nil {
		return []model.CalculationMessage{*msg}
	}

	current, ok := s.Record(props.RecordID)
	if !ok {
		return []model.CalculationMessage{recordNotFound(props.RecordID)}
	}

	f, ok := schema.LookupColumn(props.Field)
	if !ok {
		return []model.CalculationMessage{{
			Level:   model.LevelCritical,
			Code:    "UNKNOWN_FIELD",
			Message: fmt.Sprintf("Unknown field: %s", props.Field),
		}}
	}
	if !f.Editable() {
		return []model.CalculationMessage{{
			Level:   model.LevelCritical,
			Code:    "FIELD_NOT_EDITABLE",
			Message: fmt.Sprintf("Field %s is computed and cannot be edited", f.Key),
		}}
	}

	// Dry run on a copy so a rejected value never reaches the session.
	if err := f.Set(&current, string(props.Value)); err != nil {
		return []model.CalculationMessage{{
			Level:   model.LevelCritical,
			Code:    "INVALID_HOURLY_RATE",
			Message: fmt.Sprintf("Rejected, value unchanged: %v", err),
		}}
	}

	var msgs []model.CalculationMessage
	if f.Key == schema.Role && !current.Role.Known() {
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelWarning,
			Code:    "UNKNOWN_ROLE",
			Message: fmt.Sprintf("Role %q is not a known role and is stored as entered", props.Value),
		})
	}
	return msgs
}

func (h *UpdateFieldHandler) Apply(s *budget.Session, mutation *model.Mutation) (Result, []model.CalculationMessage) {
	var props updateFieldProps
	decodeProps(mutation, &props)

	f, _ := schema.LookupColumn(props.Field)
	change, err := s.UpdateField(props.RecordID, f.Key, string(props.Value))
	if err != nil {
		code := "UPDATE_FAILED"
		if errors.Is(err, budget.ErrRejected) {
			code = "INVALID_HOURLY_RATE"
		}
		return Result{RecordID: props.RecordID}, []model.CalculationMessage{{
			Level:   model.LevelCritical,
			Code:    code,
			Message: err.Error(),
		}}
	}

	changed := []string{string(change.Field)}
	for _, k := range change.Recomputed {
		changed = append(changed, string(k))
	}
	return Result{RecordID: change.RecordID, ChangedFields: changed}, overspent(s)
}
