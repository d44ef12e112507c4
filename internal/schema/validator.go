// Package schema validates inbound JSON payloads against embedded JSON Schemas.
package schema

import (
	"bytes"
	"embed"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Payload kinds with a registered schema.
const (
	KindTranscriptFinal  = "transcript.final"
	KindInteractionEnded = "interaction.ended"
	KindClassifyRequest  = "classify.request"
)

// ErrUnknownKind is returned for a kind without a registered schema.
var ErrUnknownKind = errors.New("unknown schema kind")

//go:embed schemas/*.json
var schemaFiles embed.FS

// Validator holds the compiled schemas. Safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*jsonschema.Schema)}
	c := jsonschema.NewCompiler()

	kinds := []string{KindTranscriptFinal, KindInteractionEnded, KindClassifyRequest}
	for _, kind := range kinds {
		raw, err := schemaFiles.ReadFile("schemas/" + kind + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %q: %w", kind, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse schema %q: %w", kind, err)
		}
		if err := c.AddResource(schemaURL(kind), doc); err != nil {
			return nil, fmt.Errorf("add schema %q: %w", kind, err)
		}
	}

	for _, kind := range kinds {
		compiled, err := c.Compile(schemaURL(kind))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", kind, err)
		}
		v.schemas[kind] = compiled
	}
	return v, nil
}

// MustNew is New for process startup, panicking on an invalid embedded schema.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks raw JSON against the schema for kind.
func (v *Validator) Validate(kind string, raw []byte) error {
	compiled, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiled.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", kind, err)
	}
	return nil
}

func schemaURL(kind string) string {
	return "schema://" + kind + ".json"
}
