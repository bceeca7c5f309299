package domain

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed verdict.schema.json
var verdictSchemaJSON []byte

var (
	verdictSchemaOnce sync.Once
	verdictSchema     *jsonschema.Schema
	verdictSchemaErr  error
)

type Verdict struct {
	Authentic          bool    `json:"authentic"`
	MatchesDescription bool    `json:"matchesDescription"`
	Confidence         float64 `json:"confidence"`
	Verified           bool    `json:"verified"`
	Reasoning          string  `json:"reasoning"`
}

func compiledVerdictSchema() (*jsonschema.Schema, error) {
	verdictSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		verdictSchema, verdictSchemaErr = compiler.Compile(verdictSchemaJSON)
	})
	return verdictSchema, verdictSchemaErr
}

// ParseVerdict accepts exactly one JSON object matching the verdict schema.
func ParseVerdict(raw string) (Verdict, error) {
	data := []byte(strings.TrimSpace(raw))
	if len(data) == 0 || data[0] != '{' || !json.Valid(data) {
		return Verdict{}, fmt.Errorf("verdict is not a single JSON object")
	}
	schema, err := compiledVerdictSchema()
	if err != nil {
		return Verdict{}, fmt.Errorf("compile verdict schema: %w", err)
	}
	if result := schema.ValidateJSON(data); !result.IsValid() {
		return Verdict{}, fmt.Errorf("verdict schema validation failed: %v", result.Errors)
	}
	verdict := Verdict{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&verdict); err != nil {
		return Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	return verdict, nil
}
