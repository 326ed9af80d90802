// Package schematest provides gateway message fixtures and a conformance
// suite shared by the validator adapter tests.
package schematest

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validator-bench/internal/models"
	"validator-bench/internal/schema"
)

// Level is how much of the schema an adapter enforces.
type Level int

const (
	// Baseline adapters only reject undecodable payloads.
	Baseline Level = iota
	// Required adapters reject unknown message kinds, wrong JSON types
	// and missing identifiers.
	Required
	// Strict adapters additionally require every field to be present and
	// non-null.
	Strict
)

// Call is one recorded dispatch.
type Call struct {
	GMAC   string
	Kind   models.Kind
	Record any
}

// Recorder collects dispatch calls.
type Recorder struct {
	Calls []Call
}

// Dispatch implements schema.DispatchFunc.
func (r *Recorder) Dispatch(gmac string, kind models.Kind, record any) {
	r.Calls = append(r.Calls, Call{GMAC: gmac, Kind: kind, Record: record})
}

// Kinds returns the recorded tags in call order, or nil if none.
func (r *Recorder) Kinds() []models.Kind {
	var kinds []models.Kind
	for _, c := range r.Calls {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

// Alive returns a complete gateway health report.
func Alive(gmac string) map[string]any {
	return map[string]any{
		"msg":         models.MsgAlive,
		"gmac":        gmac,
		"ver":         "1.5.2",
		"subaction":   "/gw/" + gmac + "/action",
		"pubaction":   "/gw/" + gmac + "/status",
		"downDevices": 12,
		"blever":      "1.0.4",
		"wanIP":       "192.168.1.20",
		"hver":        "G1-A",
		"model":       "MG3",
		"temp":        41.5,
		"lowVoltage":  0,
		"voltageDjk":  0,
		"load":        0.42,
		"mem_free":    24576,
		"utc":         1718000000,
		"uptime":      86400,
		"state":       1,
	}
}

// Adv1 returns a complete type 1 record.
func Adv1(dmac string) map[string]any {
	return map[string]any{
		"type": models.BeaconTypeAdv1, "dmac": dmac, "time": "2024-06-10 08:00:00",
		"rssi": -61, "ver": 1, "vbatt": 3012, "temp": 23.4, "humidty": 51.2,
		"x0": 0, "y0": 0, "z0": 1, "newTHCnt": 7,
	}
}

// Adv4 returns a complete type 4 record.
func Adv4(dmac string) map[string]any {
	return map[string]any{
		"type": models.BeaconTypeAdv4, "dmac": dmac, "uuid": "fda50693a4e24fb1afcfc6eb07647825",
		"majorID": 10001, "minorID": 19641, "refpower": -59, "rssi": -70,
		"time": "2024-06-10 08:00:01",
	}
}

// Adv8 returns a complete type 8 record.
func Adv8(dmac string) map[string]any {
	return map[string]any{
		"type": models.BeaconTypeAdv8, "dmac": dmac, "vbatt": 2980, "temp": 22.1,
		"advCnt": 1024, "secCnt": 3600, "rssi": -55, "time": "2024-06-10 08:00:02",
	}
}

// Record returns a record of an arbitrary, possibly unknown, type.
func Record(typ any, dmac string) map[string]any {
	return map[string]any{"type": typ, "dmac": dmac, "rssi": -80, "time": "2024-06-10 08:00:03"}
}

// AdvData wraps records into an advData message.
func AdvData(gmac string, records ...map[string]any) map[string]any {
	obj := make([]any, len(records))
	for i, r := range records {
		obj[i] = r
	}
	return map[string]any{"msg": models.MsgAdvData, "gmac": gmac, "obj": obj}
}

// Without returns a shallow copy of m lacking key.
func Without(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// With returns a shallow copy of m with key set to v.
func With(m map[string]any, key string, v any) map[string]any {
	out := Without(m, key)
	out[key] = v
	return out
}

// JSON marshals v or fails the test.
func JSON(t testing.TB, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return b
}

type conformanceCase struct {
	name    string
	level   Level // minimum level the case applies to
	payload []byte
	errors  uint64
	kinds   []models.Kind
}

func cases(t *testing.T) []conformanceCase {
	const gmac = "AC233FC0A1B2"
	alive := JSON(t, Alive(gmac))

	// encoding/json writes 1.0 as 1; the gateway firmware may not.
	floatType := bytes.Replace(JSON(t, AdvData(gmac, Adv1("D1"))), []byte(`"type":1,`), []byte(`"type":1.0,`), 1)
	require.Contains(t, string(floatType), `"type":1.0,`)

	padded := append([]byte{0x00, 0x10, 0x19}, alive...)
	padded = append(padded, '\n', '\r', 0x00)

	return []conformanceCase{
		{name: "not json", payload: []byte("not json"), errors: 1},
		{name: "truncated object", payload: []byte(`{"msg":"alive",`), errors: 1},
		{name: "empty payload", payload: []byte{}, errors: 1},
		{name: "only control bytes", payload: []byte{0x00, 0x01, 0x19}, errors: 1},
		{name: "json null", payload: []byte("null"), errors: 1},
		{name: "alive", payload: alive, kinds: []models.Kind{models.KindAlive}},
		{name: "alive with control padding", payload: padded, kinds: []models.Kind{models.KindAlive}},
		{
			name:    "alive with extra field",
			payload: JSON(t, With(Alive(gmac), "firmwareChannel", "beta")),
			kinds:   []models.Kind{models.KindAlive},
		},
		{
			name:    "advData in array order",
			payload: JSON(t, AdvData(gmac, Adv8("D1"), Adv1("D2"), Adv4("D3"), Adv1("D4"))),
			kinds:   []models.Kind{models.KindAdv8, models.KindAdv1, models.KindAdv4, models.KindAdv1},
		},
		{
			name:    "unknown type is dropped",
			payload: JSON(t, AdvData(gmac, Adv1("D1"), Adv4("D2"), Adv8("D3"), Record(99, "D4"))),
			kinds:   []models.Kind{models.KindAdv1, models.KindAdv4, models.KindAdv8},
		},
		{name: "advData without records", payload: JSON(t, AdvData(gmac))},
		{name: "integral float type", payload: floatType, kinds: []models.Kind{models.KindAdv1}},
		{
			name:    "unknown msg kind",
			level:   Required,
			payload: JSON(t, With(Alive(gmac), "msg", "reboot")),
			errors:  1,
		},
		{name: "top level array", level: Required, payload: []byte(`[1,2,3]`), errors: 1},
		{name: "top level number", level: Required, payload: []byte(`42`), errors: 1},
		{
			name:    "advData without obj",
			level:   Required,
			payload: JSON(t, Without(AdvData(gmac), "obj")),
			errors:  1,
		},
		{
			name:    "record missing dmac rejects whole message",
			level:   Required,
			payload: JSON(t, AdvData(gmac, Adv1("D1"), Without(Adv4("D2"), "dmac"))),
			errors:  1,
		},
		{
			name:    "record with string rssi",
			level:   Required,
			payload: JSON(t, AdvData(gmac, With(Adv8("D1"), "rssi", "-55dBm"))),
			errors:  1,
		},
		{
			name:    "record with fractional type",
			level:   Required,
			payload: JSON(t, AdvData(gmac, Record(1.5, "D1"))),
			errors:  1,
		},
		{
			name:    "record that is not an object",
			level:   Required,
			payload: JSON(t, map[string]any{"msg": models.MsgAdvData, "gmac": gmac, "obj": []any{"D1"}}),
			errors:  1,
		},
		{
			name:    "alive missing gmac",
			level:   Required,
			payload: JSON(t, Without(Alive(gmac), "gmac")),
			errors:  1,
		},
		{
			name:    "alive missing numeric field",
			level:   Strict,
			payload: JSON(t, Without(Alive(gmac), "temp")),
			errors:  1,
		},
		{
			name:    "record with null field",
			level:   Strict,
			payload: JSON(t, AdvData(gmac, With(Adv1("D1"), "vbatt", nil))),
			errors:  1,
		},
	}
}

// Run checks v against the conformance cases that apply to level.
func Run(t *testing.T, v schema.Validator, level Level) {
	t.Helper()
	const gmac = "AC233FC0A1B2"
	for _, tc := range cases(t) {
		if tc.level > level {
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			var errs schema.ErrorCounter
			rec := &Recorder{}

			v.ValidateAndDispatch(tc.payload, rec.Dispatch, &errs)

			assert.Equal(t, tc.errors, errs.Count(), "validation errors")
			require.Equal(t, tc.kinds, rec.Kinds())
			for i, c := range rec.Calls {
				assert.Equal(t, gmac, c.GMAC, "dispatch %d gmac", i)
			}
		})
	}
}
