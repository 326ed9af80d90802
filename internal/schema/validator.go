// Package schema defines the contract every validation library adapter
// implements, together with the pieces they share: payload cleaning,
// the error counter and the JSON Schema document for gateway messages.
package schema

import (
	"errors"
	"sync/atomic"

	"validator-bench/internal/models"
)

// Per-message failure classes. They never escape ValidateAndDispatch;
// adapters count them instead.
var (
	ErrDecode = errors.New("payload is not valid JSON")
	ErrSchema = errors.New("payload does not match the gateway message schema")
)

// DispatchFunc receives one validated record. Struct-based adapters pass
// a pointer to the matching models type; document-based adapters pass the
// decoded map[string]any.
type DispatchFunc func(gmac string, kind models.Kind, record any)

// Validator decodes, validates and dispatches one raw bus message.
//
// Implementations must strip control characters before decoding, count a
// decode or schema failure exactly once in errs and return, and otherwise
// call onValid once per recognized record (or once for "alive"). They must
// not retain raw past the call.
type Validator interface {
	ValidateAndDispatch(raw []byte, onValid DispatchFunc, errs *ErrorCounter)
}

// Func adapts an ordinary function to the Validator interface.
type Func func(raw []byte, onValid DispatchFunc, errs *ErrorCounter)

// ValidateAndDispatch calls f.
func (f Func) ValidateAndDispatch(raw []byte, onValid DispatchFunc, errs *ErrorCounter) {
	f(raw, onValid, errs)
}

// ErrorCounter tallies rejected messages for a single run.
// The zero value is ready to use.
type ErrorCounter struct {
	n atomic.Uint64
}

// Inc records one rejected message.
func (c *ErrorCounter) Inc() {
	c.n.Add(1)
}

// Count returns the number of rejected messages so far.
func (c *ErrorCounter) Count() uint64 {
	return c.n.Load()
}
