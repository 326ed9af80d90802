// Package models defines the gateway message shapes relayed over the bus.
//
// A gateway publishes two kinds of top-level messages: "advData", which
// carries a batch of beacon advertisement records, and "alive", a flat
// health report. Beacon records are a tagged union keyed by their
// integer "type" field.
package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Top-level message kinds carried in the "msg" field.
const (
	MsgAdvData = "advData"
	MsgAlive   = "alive"
)

// Beacon record types carried in the "type" field.
const (
	BeaconTypeAdv1 = 1
	BeaconTypeAdv4 = 4
	BeaconTypeAdv8 = 8
)

// RecordType is a beacon record's "type" discriminator. Any integral
// JSON number decodes, so 1 and 1.0 name the same type.
type RecordType int

// UnmarshalJSON implements json.Unmarshaler.
func (t *RecordType) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("models: record type %s is not an integer", b)
	}
	*t = RecordType(f)
	return nil
}

// Kind tags a dispatched record.
type Kind string

const (
	KindAdv1  Kind = "adv1"
	KindAdv4  Kind = "adv4"
	KindAdv8  Kind = "adv8"
	KindAlive Kind = "alive"
)

// KindForType maps a beacon record type to its dispatch tag.
// Unrecognized types report false and are dropped by every validator.
func KindForType(t int) (Kind, bool) {
	switch t {
	case BeaconTypeAdv1:
		return KindAdv1, true
	case BeaconTypeAdv4:
		return KindAdv4, true
	case BeaconTypeAdv8:
		return KindAdv8, true
	default:
		return "", false
	}
}

// ButtonAdv1 is a sensor button advertisement (type 1).
type ButtonAdv1 struct {
	Type     RecordType `json:"type" validate:"eq=1"`
	DMAC     string     `json:"dmac" validate:"required"`
	Time     string     `json:"time" validate:"required"`
	RSSI     float64    `json:"rssi"`
	Ver      float64    `json:"ver"`
	VBatt    float64    `json:"vbatt"`
	Temp     float64    `json:"temp"`
	Humidity float64    `json:"humidty"` // sic, the gateway firmware spells it this way
	X0       float64    `json:"x0"`
	Y0       float64    `json:"y0"`
	Z0       float64    `json:"z0"`
	NewTHCnt float64    `json:"newTHCnt"`
}

// ButtonAdv4 is an iBeacon advertisement (type 4).
type ButtonAdv4 struct {
	Type     RecordType `json:"type" validate:"eq=4"`
	DMAC     string     `json:"dmac" validate:"required"`
	UUID     string     `json:"uuid" validate:"required"`
	MajorID  float64    `json:"majorID"`
	MinorID  float64    `json:"minorID"`
	RefPower float64    `json:"refpower"`
	RSSI     float64    `json:"rssi"`
	Time     string     `json:"time" validate:"required"`
}

// ButtonAdv8 is a counter/battery advertisement (type 8).
type ButtonAdv8 struct {
	Type   RecordType `json:"type" validate:"eq=8"`
	DMAC   string     `json:"dmac" validate:"required"`
	VBatt  float64    `json:"vbatt"`
	Temp   float64    `json:"temp"`
	AdvCnt float64    `json:"advCnt"`
	SecCnt float64    `json:"secCnt"`
	RSSI   float64    `json:"rssi"`
	Time   string     `json:"time" validate:"required"`
}

// GatewayAlive is the periodic gateway health report.
type GatewayAlive struct {
	Msg         string  `json:"msg" validate:"eq=alive"`
	GMAC        string  `json:"gmac" validate:"required"`
	Ver         string  `json:"ver" validate:"required"`
	SubAction   string  `json:"subaction" validate:"required"`
	PubAction   string  `json:"pubaction" validate:"required"`
	DownDevices float64 `json:"downDevices"`
	BLEVer      string  `json:"blever" validate:"required"`
	WanIP       string  `json:"wanIP" validate:"required"`
	HVer        string  `json:"hver" validate:"required"`
	Model       string  `json:"model" validate:"required"`
	Temp        float64 `json:"temp"`
	LowVoltage  float64 `json:"lowVoltage"`
	VoltageDjk  float64 `json:"voltageDjk"`
	Load        float64 `json:"load"`
	MemFree     float64 `json:"mem_free"`
	UTC         float64 `json:"utc"`
	Uptime      float64 `json:"uptime"`
	State       float64 `json:"state"`
}

// GatewayAdvData is a batch of beacon records relayed by one gateway.
// Records stay raw until their type is known.
type GatewayAdvData struct {
	Msg  string            `json:"msg" validate:"eq=advData"`
	GMAC string            `json:"gmac" validate:"required"`
	Obj  []json.RawMessage `json:"obj" validate:"required"`
}
