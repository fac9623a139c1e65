package protocol

import (
	"fmt"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schemas holds the compiled request schemas. Requests are validated
// against these before any engine logic runs; anything the schema rejects
// never reaches the state machine.
type Schemas struct {
	TriggerEvent *jsonschema.Schema
	AddPoints    *jsonschema.Schema
}

// CompileSchemas compiles all request schemas from schemaDir.
func CompileSchemas(schemaDir string) (*Schemas, error) {
	var s Schemas
	var err error

	if s.TriggerEvent, err = jsonschema.Compile(filepath.Join(schemaDir, "trigger_event.schema.json")); err != nil {
		return nil, fmt.Errorf("trigger_event schema: %w", err)
	}
	if s.AddPoints, err = jsonschema.Compile(filepath.Join(schemaDir, "add_points.schema.json")); err != nil {
		return nil, fmt.Errorf("add_points schema: %w", err)
	}
	return &s, nil
}
