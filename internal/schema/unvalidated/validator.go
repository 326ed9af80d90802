// Package unvalidated is the baseline adapter: it decodes and dispatches
// without checking any schema, which bounds what validation costs.
package unvalidated

import (
	"encoding/json"

	"validator-bench/internal/schema"
)

// Name is the library name reported for this adapter.
const Name = "Unvalidated"

// Validator decodes into a generic document and dispatches it as is.
type Validator struct{}

// New returns the baseline validator.
func New() *Validator {
	return &Validator{}
}

// ValidateAndDispatch implements schema.Validator. Only undecodable
// payloads are counted as errors.
func (v *Validator) ValidateAndDispatch(raw []byte, onValid schema.DispatchFunc, errs *schema.ErrorCounter) {
	var doc any
	if err := json.Unmarshal(schema.Clean(raw), &doc); err != nil || doc == nil {
		errs.Inc()
		return
	}
	schema.DispatchDocument(doc, onValid)
}
