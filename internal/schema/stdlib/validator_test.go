package stdlib

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validator-bench/internal/models"
	"validator-bench/internal/schema"
	"validator-bench/internal/schema/schematest"
)

func TestConformance(t *testing.T) {
	schematest.Run(t, New(), schematest.Strict)
}

func TestParse_ErrorClasses(t *testing.T) {
	v := New()

	_, _, err := v.parse([]byte(`{"msg":`))
	assert.ErrorIs(t, err, schema.ErrDecode)

	_, _, err = v.parse(schematest.JSON(t, schematest.Without(schematest.Alive("GW"), "model")))
	assert.ErrorIs(t, err, schema.ErrSchema)
}

func TestDispatchesTypedRecords(t *testing.T) {
	var errs schema.ErrorCounter
	rec := &schematest.Recorder{}
	payload := schematest.JSON(t, schematest.AdvData("GW", schematest.Adv1("D1"), schematest.Adv4("D2")))

	New().ValidateAndDispatch(payload, rec.Dispatch, &errs)

	require.Len(t, rec.Calls, 2)
	adv1, ok := rec.Calls[0].Record.(*models.ButtonAdv1)
	require.True(t, ok)
	assert.Equal(t, "D1", adv1.DMAC)
	assert.Equal(t, 51.2, adv1.Humidity)
	adv4, ok := rec.Calls[1].Record.(*models.ButtonAdv4)
	require.True(t, ok)
	assert.Equal(t, float64(10001), adv4.MajorID)
}

func TestJSONKeys(t *testing.T) {
	keys := jsonKeys(reflect.TypeOf(models.ButtonAdv8{}))
	assert.Equal(t, []string{"type", "dmac", "vbatt", "temp", "advCnt", "secCnt", "rssi", "time"}, keys)
}
