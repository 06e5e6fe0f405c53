package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Record schemas are checked when files are read; a record that fails becomes
// a load warning. They are looser than the write-time Validate methods, so a
// job without a mold still loads and is grouped under Unknown.

var operatorSchema = map[string]any{
	"type":     "object",
	"required": []string{"name", "username", "password", "role"},
	"properties": map[string]any{
		"name":       map[string]any{"type": "string"},
		"username":   map[string]any{"type": "string", "minLength": 1},
		"password":   map[string]any{"type": "string"},
		"epf_number": map[string]any{"type": "string"},
		"role":       map[string]any{"type": "string"},
	},
}

var moldSchema = map[string]any{
	"type":     "object",
	"required": []string{"vehicle", "system", "mold_name"},
	"properties": map[string]any{
		"vehicle":       map[string]any{"type": "string"},
		"system":        map[string]any{"type": "string"},
		"mold_name":     map[string]any{"type": "string"},
		"mold_type":     map[string]any{"type": "string"},
		"mold_number":   map[string]any{"type": "string"},
		"life_span":     map[string]any{"type": "integer"},
		"part_number":   map[string]any{"type": "string"},
		"creation_type": map[string]any{"type": "string"},
		"mixing_ratio":  map[string]any{"type": "string"},
		"chemical_type": map[string]any{"type": "string"},
		"timestamp":     map[string]any{"type": "string"},
	},
}

// jobMoldSchema is the mold snapshot embedded in a job. Every property is
// optional and the mold may be null; such jobs group under Unknown.
var jobMoldSchema = map[string]any{
	"type":       []string{"object", "null"},
	"properties": moldSchema["properties"],
}

var jobSchema = map[string]any{
	"type":     "object",
	"required": []string{"job_id"},
	"properties": map[string]any{
		"job_id": map[string]any{"type": "string", "minLength": 1},
		"operator": map[string]any{
			"type":     "object",
			"required": []string{"username"},
			"properties": map[string]any{
				"username": map[string]any{"type": "string"},
			},
		},
		"mold":           jobMoldSchema,
		"part_count":     map[string]any{"type": "integer"},
		"start_datetime": map[string]any{"type": "string"},
		"end_datetime":   map[string]any{"type": "string"},
		"status":         map[string]any{"type": "string"},
	},
}

var calibrationSchema = map[string]any{
	"type": "object",
	"additionalProperties": map[string]any{
		"type":     "object",
		"required": []string{"min", "max"},
		"properties": map[string]any{
			"min": map[string]any{"type": "number"},
			"max": map[string]any{"type": "number"},
		},
	},
}

// schemaSet holds one compiled schema per kind.
type schemaSet map[Kind]*jsonschema.Schema

func compileSchemas() (schemaSet, error) {
	docs := map[Kind]map[string]any{
		KindOperators:   operatorSchema,
		KindMolds:       moldSchema,
		KindJobs:        jobSchema,
		KindCalibration: calibrationSchema,
	}
	set := make(schemaSet, len(docs))
	for kind, doc := range docs {
		schema, err := compileSchema(string(kind)+".json", doc)
		if err != nil {
			return nil, fmt.Errorf("%s schema: %w", kind, err)
		}
		set[kind] = schema
	}
	return set, nil
}

func compileSchema(name string, doc map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// check validates one encoded record of the given kind.
func (s schemaSet) check(kind Kind, data []byte) error {
	schema, ok := s[kind]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
