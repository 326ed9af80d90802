// Package jsonschema validates gateway messages with
// github.com/santhosh-tekuri/jsonschema against the reflected document.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"validator-bench/internal/schema"
)

// Name is the library name reported for this adapter.
const Name = "santhosh-tekuri/jsonschema"

// Validator holds the compiled gateway message schema.
type Validator struct {
	compiled *jsonschema.Schema
}

// New compiles schema.Document.
func New() (*Validator, error) {
	doc, err := schema.Document()
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(schema.DocumentURL, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(schema.DocumentURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{compiled: compiled}, nil
}

// ValidateAndDispatch implements schema.Validator.
func (v *Validator) ValidateAndDispatch(raw []byte, onValid schema.DispatchFunc, errs *schema.ErrorCounter) {
	doc, err := v.parse(raw)
	if err != nil {
		errs.Inc()
		return
	}
	schema.DispatchDocument(doc, onValid)
}

func (v *Validator) parse(raw []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(schema.Clean(raw), &doc); err != nil || doc == nil {
		return nil, schema.ErrDecode
	}
	if err := v.compiled.Validate(doc); err != nil {
		return nil, schema.ErrSchema
	}
	return doc, nil
}
