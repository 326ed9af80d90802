package app

import (
	"fmt"
	"strings"

	"validator-bench/internal/schema"
	"validator-bench/internal/schema/gojsonschema"
	"validator-bench/internal/schema/jsonschema"
	"validator-bench/internal/schema/playground"
	"validator-bench/internal/schema/stdlib"
	"validator-bench/internal/schema/unvalidated"
	"validator-bench/internal/service/bench"
)

// Entry describes one validator the benchmark can run.
type Entry struct {
	Key         string
	Name        string // library name in reports
	Description string
	New         func() (schema.Validator, error)
}

// Catalog lists the validators in default run order. The unvalidated
// baseline runs first.
var Catalog = []Entry{
	{
		Key:         "unvalidated",
		Name:        unvalidated.Name,
		Description: "JSON decode only, no schema",
		New:         func() (schema.Validator, error) { return unvalidated.New(), nil },
	},
	{
		Key:         "stdlib",
		Name:        stdlib.Name,
		Description: "hand-written key and type checks with encoding/json",
		New:         func() (schema.Validator, error) { return stdlib.New(), nil },
	},
	{
		Key:         "playground",
		Name:        playground.Name,
		Description: "struct tags with go-playground/validator/v10",
		New:         func() (schema.Validator, error) { return playground.New(), nil },
	},
	{
		Key:         "jsonschema",
		Name:        jsonschema.Name,
		Description: "JSON Schema draft-07 with santhosh-tekuri/jsonschema/v5",
		New: func() (schema.Validator, error) {
			v, err := jsonschema.New()
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	},
	{
		Key:         "gojsonschema",
		Name:        gojsonschema.Name,
		Description: "JSON Schema draft-07 with xeipuuv/gojsonschema",
		New: func() (schema.Validator, error) {
			v, err := gojsonschema.New()
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	},
}

// Candidates builds the validators selected by keys, in the order given.
// No keys selects the whole catalog.
func Candidates(keys []string) ([]bench.Candidate, error) {
	entries := Catalog
	if len(keys) > 0 {
		entries = make([]Entry, 0, len(keys))
		for _, k := range keys {
			e, ok := lookup(k)
			if !ok {
				return nil, fmt.Errorf("%w: unknown validator %q (known: %s)",
					bench.ErrConfiguration, k, strings.Join(Keys(), ", "))
			}
			entries = append(entries, e)
		}
	}

	out := make([]bench.Candidate, 0, len(entries))
	for _, e := range entries {
		v, err := e.New()
		if err != nil {
			return nil, fmt.Errorf("build validator %s: %w", e.Key, err)
		}
		out = append(out, bench.Candidate{Name: e.Name, Validator: v})
	}
	return out, nil
}

// Keys returns the catalog keys in run order.
func Keys() []string {
	keys := make([]string, len(Catalog))
	for i, e := range Catalog {
		keys[i] = e.Key
	}
	return keys
}

func lookup(key string) (Entry, bool) {
	for _, e := range Catalog {
		if strings.EqualFold(e.Key, key) || e.Name == key {
			return e, true
		}
	}
	return Entry{}, false
}
