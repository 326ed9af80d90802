// Package stdlib validates gateway messages with encoding/json alone:
// key presence is checked by hand and JSON types by decoding into the
// models structs.
package stdlib

import (
	"encoding/json"
	"reflect"
	"strings"

	"validator-bench/internal/models"
	"validator-bench/internal/schema"
)

// Name is the library name reported for this adapter.
const Name = "encoding/json"

// Validator checks messages against the required keys of each model.
type Validator struct {
	advDataKeys []string
	aliveKeys   []string
	recordKeys  map[int][]string
}

// New derives the required key sets from the models json tags.
func New() *Validator {
	return &Validator{
		advDataKeys: jsonKeys(reflect.TypeOf(models.GatewayAdvData{})),
		aliveKeys:   jsonKeys(reflect.TypeOf(models.GatewayAlive{})),
		recordKeys: map[int][]string{
			models.BeaconTypeAdv1: jsonKeys(reflect.TypeOf(models.ButtonAdv1{})),
			models.BeaconTypeAdv4: jsonKeys(reflect.TypeOf(models.ButtonAdv4{})),
			models.BeaconTypeAdv8: jsonKeys(reflect.TypeOf(models.ButtonAdv8{})),
		},
	}
}

type dispatch struct {
	kind   models.Kind
	record any
}

// ValidateAndDispatch implements schema.Validator.
func (v *Validator) ValidateAndDispatch(raw []byte, onValid schema.DispatchFunc, errs *schema.ErrorCounter) {
	gmac, out, err := v.parse(schema.Clean(raw))
	if err != nil {
		errs.Inc()
		return
	}
	for _, d := range out {
		onValid(gmac, d.kind, d.record)
	}
}

// parse validates the whole message before anything is dispatched.
func (v *Validator) parse(data []byte) (string, []dispatch, error) {
	var fields map[string]json.RawMessage
	if err := schema.Decode(data, &fields); err != nil {
		return "", nil, err
	}
	var msg string
	if err := decodeField(fields, "msg", &msg); err != nil {
		return "", nil, err
	}

	switch msg {
	case models.MsgAlive:
		if err := requireKeys(fields, v.aliveKeys); err != nil {
			return "", nil, err
		}
		alive := &models.GatewayAlive{}
		if err := json.Unmarshal(data, alive); err != nil {
			return "", nil, schema.ErrSchema
		}
		return alive.GMAC, []dispatch{{models.KindAlive, alive}}, nil

	case models.MsgAdvData:
		if err := requireKeys(fields, v.advDataKeys); err != nil {
			return "", nil, err
		}
		adv := &models.GatewayAdvData{}
		if err := json.Unmarshal(data, adv); err != nil {
			return "", nil, schema.ErrSchema
		}
		out := make([]dispatch, 0, len(adv.Obj))
		for _, raw := range adv.Obj {
			d, ok, err := v.parseRecord(raw)
			if err != nil {
				return "", nil, err
			}
			if ok {
				out = append(out, d)
			}
		}
		return adv.GMAC, out, nil

	default:
		return "", nil, schema.ErrSchema
	}
}

// parseRecord reports ok=false for a well-formed record of unknown type.
func (v *Validator) parseRecord(raw json.RawMessage) (dispatch, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return dispatch{}, false, schema.ErrSchema
	}
	var rt models.RecordType
	if err := decodeField(fields, "type", &rt); err != nil {
		return dispatch{}, false, err
	}
	typ := int(rt)
	kind, known := models.KindForType(typ)
	if !known {
		return dispatch{}, false, nil
	}
	if err := requireKeys(fields, v.recordKeys[typ]); err != nil {
		return dispatch{}, false, err
	}

	var rec any
	switch typ {
	case models.BeaconTypeAdv1:
		rec = &models.ButtonAdv1{}
	case models.BeaconTypeAdv4:
		rec = &models.ButtonAdv4{}
	default:
		rec = &models.ButtonAdv8{}
	}
	if err := json.Unmarshal(raw, rec); err != nil {
		return dispatch{}, false, schema.ErrSchema
	}
	return dispatch{kind, rec}, true, nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok || schema.IsNull(raw) {
		return schema.ErrSchema
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return schema.ErrSchema
	}
	return nil
}

func requireKeys(fields map[string]json.RawMessage, keys []string) error {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || schema.IsNull(raw) {
			return schema.ErrSchema
		}
	}
	return nil
}

// jsonKeys lists the json names of t's exported fields.
func jsonKeys(t reflect.Type) []string {
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys = append(keys, name)
	}
	return keys
}
