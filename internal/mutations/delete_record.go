package mutations

import (
	"budget-engine/internal/budget"
	"budget-engine/internal/model"
)

type deleteRecordProps struct {
	RecordID string `json:"record_id"`
}

type DeleteRecordHandler struct{}

func (h *DeleteRecordHandler) Validate(s *budget.Session, mutation *model.Mutation) []model.CalculationMessage {
	var props deleteRecordProps
	if msg := decodeProps(mutation, &props); msg != nil {
		return []model.CalculationMessage{*msg}
	}
	if _, ok := s.Record(props.RecordID); !ok {
		return []model.CalculationMessage{recordNotFound(props.RecordID)}
	}
	return nil
}

func (h *DeleteRecordHandler) Apply(s *budget.Session, mutation *model.Mutation) (Result, []model.CalculationMessage) {
	var props deleteRecordProps
	decodeProps(mutation, &props)

	if err := s.DeleteRecord(props.RecordID); err != nil {
		return Result{}, []model.CalculationMessage{recordNotFound(props.RecordID)}
	}
	return Result{RecordID: props.RecordID}, nil
}
