package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const worldSpecSchemaURL = "https://worldgen.local/schemas/world-spec.schema.json"

//go:embed schemas/world-spec.schema.json
var worldSpecSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func worldSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(worldSpecSchemaURL, bytes.NewReader(worldSpecSchema)); err != nil {
			schemaErr = fmt.Errorf("adding world spec schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(worldSpecSchemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateDocument performs schema validation on a raw world specification
// document. JSON and YAML input are both accepted. Only structural type errors
// are reported here; missing fields are resolved later by normalization.
func ValidateDocument(data []byte) *Report {
	r := NewReport()

	instance, err := decodeInstance(data)
	if err != nil {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  fmt.Sprintf("document is not valid JSON or YAML: %v", err),
			SpecPath: "/",
		})
		return r
	}
	if instance == nil {
		r.AddInfo(Result{
			Level:    LevelSchema,
			Message:  "empty document; every field will take its default",
			SpecPath: "/",
		})
		return r
	}

	s, err := worldSchema()
	if err != nil {
		r.AddError(Result{Level: LevelSchema, Message: err.Error(), SpecPath: "/"})
		return r
	}

	if err := s.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			r.AddError(Result{Level: LevelSchema, Message: err.Error(), SpecPath: "/"})
			return r
		}
		for _, leaf := range leafErrors(ve) {
			path := leaf.InstanceLocation
			if path == "" {
				path = "/"
			}
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  leaf.Message,
				SpecPath: path,
				Expected: leaf.KeywordLocation,
			})
		}
		if r.Valid {
			r.AddError(Result{Level: LevelSchema, Message: ve.Error(), SpecPath: "/"})
		}
	}
	return r
}

// leafErrors flattens a validation error tree to the entries that carry the
// actual failure; inner nodes only say which subschema did not match.
func leafErrors(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leafErrors(c)...)
	}
	return out
}

// decodeInstance converts YAML or JSON into the plain JSON value model the
// schema validator expects (float64 numbers, string-keyed maps).
func decodeInstance(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}
