package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"validator-bench/internal/models"
)

// DocumentURL is the resource name under which Document is registered
// with schema compilers.
const DocumentURL = "https://validator-bench.local/gateway-message.json"

// Document returns the draft-07 JSON Schema for gateway messages.
//
// Record shapes are reflected from the models package so the schema and
// the Go types cannot drift apart; only the discriminators and the
// union structure are written here.
var Document = sync.OnceValues(buildDocument)

func buildDocument() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}

	variants := []struct {
		typ int
		v   any
	}{
		{models.BeaconTypeAdv1, &models.ButtonAdv1{}},
		{models.BeaconTypeAdv4, &models.ButtonAdv4{}},
		{models.BeaconTypeAdv8, &models.ButtonAdv8{}},
	}

	var branches []any
	for _, variant := range variants {
		s, err := reflectObject(r, variant.v)
		if err != nil {
			return nil, err
		}
		setProperty(s, "type", map[string]any{"type": "integer", "const": variant.typ})
		branches = append(branches, map[string]any{
			"if": map[string]any{
				"properties": map[string]any{"type": map[string]any{"const": variant.typ}},
				"required":   []string{"type"},
			},
			"then": s,
		})
	}

	// Unknown record types only need an integer discriminator; they are
	// dropped at dispatch.
	record := map[string]any{
		"type":       "object",
		"required":   []string{"type"},
		"properties": map[string]any{"type": map[string]any{"type": "integer"}},
		"allOf":      branches,
	}

	advData, err := reflectObject(r, &models.GatewayAdvData{})
	if err != nil {
		return nil, err
	}
	setProperty(advData, "msg", map[string]any{"const": models.MsgAdvData})
	setProperty(advData, "obj", map[string]any{"type": "array", "items": record})

	alive, err := reflectObject(r, &models.GatewayAlive{})
	if err != nil {
		return nil, err
	}
	setProperty(alive, "msg", map[string]any{"const": models.MsgAlive})

	doc := map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"$id":     DocumentURL,
		"title":   "gateway message",
		"oneOf":   []any{advData, alive},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// reflectObject reflects v and returns the schema as a plain map with
// the reflector's own $schema/$id stripped so it can be nested.
func reflectObject(r *jsonschema.Reflector, v any) (map[string]any, error) {
	s := r.Reflect(v)
	s.Version = ""
	s.ID = ""

	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal reflected schema for %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal reflected schema for %T: %w", v, err)
	}
	return m, nil
}

func setProperty(s map[string]any, name string, prop any) {
	props, ok := s["properties"].(map[string]any)
	if !ok {
		props = map[string]any{}
		s["properties"] = props
	}
	props[name] = prop
}
