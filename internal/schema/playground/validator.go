// Package playground validates gateway messages with the validate struct
// tags on the models types, using github.com/go-playground/validator.
package playground

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"validator-bench/internal/models"
	"validator-bench/internal/schema"
)

// Name is the library name reported for this adapter.
const Name = "go-playground/validator"

// Validator wraps a shared validator instance; it caches struct metadata
// after the first message of each type.
type Validator struct {
	validate *validator.Validate
}

// New returns a validator with required-struct checking enabled.
func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type header struct {
	Msg string `json:"msg"`
}

type recordHeader struct {
	Type *models.RecordType `json:"type"`
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

func (v *Validator) parse(data []byte) (string, []dispatch, error) {
	var h header
	if err := schema.Decode(data, &h); err != nil {
		return "", nil, err
	}

	switch h.Msg {
	case models.MsgAlive:
		alive := &models.GatewayAlive{}
		if err := schema.Decode(data, alive); err != nil {
			return "", nil, err
		}
		if err := v.validate.Struct(alive); err != nil {
			return "", nil, schema.ErrSchema
		}
		return alive.GMAC, []dispatch{{models.KindAlive, alive}}, nil

	case models.MsgAdvData:
		adv := &models.GatewayAdvData{}
		if err := schema.Decode(data, adv); err != nil {
			return "", nil, err
		}
		if err := v.validate.Struct(adv); err != nil {
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

func (v *Validator) parseRecord(raw json.RawMessage) (dispatch, bool, error) {
	var h recordHeader
	if err := schema.Decode(raw, &h); err != nil {
		return dispatch{}, false, schema.ErrSchema
	}
	if h.Type == nil {
		return dispatch{}, false, schema.ErrSchema
	}
	kind, known := models.KindForType(int(*h.Type))
	if !known {
		return dispatch{}, false, nil
	}

	var rec any
	switch *h.Type {
	case models.BeaconTypeAdv1:
		rec = &models.ButtonAdv1{}
	case models.BeaconTypeAdv4:
		rec = &models.ButtonAdv4{}
	default:
		rec = &models.ButtonAdv8{}
	}
	if err := schema.Decode(raw, rec); err != nil {
		return dispatch{}, false, schema.ErrSchema
	}
	if err := v.validate.Struct(rec); err != nil {
		return dispatch{}, false, schema.ErrSchema
	}
	return dispatch{kind, rec}, true, nil
}
