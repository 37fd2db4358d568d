package contract

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schema/answer.schema.json
var answerSchemaJSON []byte

// Validator checks candidate answers against the embedded contract schema.
// The schema carries the exact field bounds; compile it once at startup.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded answer schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(answerSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile answer schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks a typed answer against the schema. Callers clamp first;
// validation reports whatever the clamp could not fix (counts, enums,
// missing fields).
func (v *Validator) Validate(a *Answer) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return &SchemaError{Path: "$", Detail: fmt.Sprintf("marshal candidate: %v", err)}
	}
	result := v.schema.ValidateJSON(doc)
	if result.IsValid() {
		return nil
	}
	for keyword, evalErr := range result.Errors {
		return &SchemaError{Path: keyword, Detail: fmt.Sprintf("%v", evalErr)}
	}
	return &SchemaError{Path: "$", Detail: "schema validation failed"}
}
