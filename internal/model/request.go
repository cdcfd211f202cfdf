package model

import json "github.com/goccy/go-json"

type CalculationRequest struct {
	Mutations []Mutation `json:"mutations"`
}

type Mutation struct {
	MutationID             string          `json:"mutation_id"`
	MutationDefinitionName string          `json:"mutation_definition_name"`
	MutationProperties     json.RawMessage `json:"mutation_properties"`
}
