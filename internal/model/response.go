package model

import json "github.com/goccy/go-json"

type CalculationResponse struct {
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	CalculationResult   CalculationResult   `json:"calculation_result"`
}

type CalculationMetadata struct {
	CalculationID          string `json:"calculation_id"`
	CalculationStartedAt   string `json:"calculation_started_at"`
	CalculationCompletedAt string `json:"calculation_completed_at"`
	CalculationDurationMs  int64  `json:"calculation_duration_ms"`
	CalculationOutcome     string `json:"calculation_outcome"`
}

type CalculationResult struct {
	Messages      []CalculationMessage `json:"messages"`
	Mutations     []ProcessedMutation  `json:"mutations"`
	Aggregates    Aggregates           `json:"aggregates"`
	Patch         json.RawMessage      `json:"patch"`
	BackwardPatch json.RawMessage      `json:"backward_patch"`
}

type ProcessedMutation struct {
	Mutation                  Mutation `json:"mutation"`
	RecordID                  string   `json:"record_id,omitempty"`
	ChangedFields             []string `json:"changed_fields,omitempty"`
	CalculationMessageIndexes []int    `json:"calculation_message_indexes,omitempty"`
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)
