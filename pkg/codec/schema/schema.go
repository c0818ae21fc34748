// Package schema validates JSON payloads against the JSON Schema documents
// of the JSON based content formats before they are decoded.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates JSON payloads against one compiled schema. The
// schema is compiled on first use.
type Validator struct {
	name string
	doc  []byte

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// New returns a validator for the schema document doc. name identifies
// the schema in error messages.
func New(name string, doc []byte) *Validator {
	return &Validator{name: name, doc: doc}
}

func (v *Validator) compile() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		var schemaMap any
		if err := json.Unmarshal(v.doc, &schemaMap); err != nil {
			v.err = fmt.Errorf("failed to unmarshal schema %s: %w", v.name, err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(v.name, schemaMap); err != nil {
			v.err = fmt.Errorf("failed to add schema %s: %w", v.name, err)
			return
		}
		v.compiled, v.err = c.Compile(v.name)
	})
	return v.compiled, v.err
}

// Validate checks that data is a JSON document valid against the schema.
func (v *Validator) Validate(data []byte) error {
	compiled, err := v.compile()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := compiled.Validate(inst); err != nil {
		return fmt.Errorf("%s: %w", v.name, err)
	}
	return nil
}
