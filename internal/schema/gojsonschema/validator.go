// Package gojsonschema validates gateway messages with
// github.com/xeipuuv/gojsonschema against the reflected document.
package gojsonschema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"validator-bench/internal/schema"
)

// Name is the library name reported for this adapter.
const Name = "xeipuuv/gojsonschema"

// Validator holds the loaded gateway message schema.
type Validator struct {
	loaded *gojsonschema.Schema
}

// New loads schema.Document.
func New() (*Validator, error) {
	doc, err := schema.Document()
	if err != nil {
		return nil, err
	}
	loaded, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return &Validator{loaded: loaded}, nil
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

	// Issue details are discarded; only the outcome is counted.
	res, err := v.loaded.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil || !res.Valid() {
		return nil, schema.ErrSchema
	}
	return doc, nil
}
