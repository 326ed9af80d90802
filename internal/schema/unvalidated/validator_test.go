package unvalidated

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"validator-bench/internal/schema"
	"validator-bench/internal/schema/schematest"
)

func TestConformance(t *testing.T) {
	schematest.Run(t, New(), schematest.Baseline)
}

func TestDispatchesUncheckedShapes(t *testing.T) {
	var errs schema.ErrorCounter
	rec := &schematest.Recorder{}

	// A message a schema would reject still dispatches here.
	New().ValidateAndDispatch([]byte(`{"msg":"advData","gmac":"GW","obj":[{"type":1}]}`), rec.Dispatch, &errs)

	assert.Zero(t, errs.Count())
	assert.Len(t, rec.Calls, 1)
}
