package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Validators:"))
	assert.Less(t, strings.Index(out, "unvalidated"), strings.Index(out, "gojsonschema"))
	assert.Contains(t, out, "go-playground/validator")
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "oneOf")
}

func TestRun_Replay(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("RESULTS_KAFKA_ENABLED", "false")
	t.Setenv("METRICS_ADDR", "")

	out, err := execute(t, "run",
		"--driver", "replay",
		"--duration", "50ms",
		"--validators", "unvalidated,jsonschema",
		"--format", "json",
	)
	require.NoError(t, err)

	var doc struct {
		Runtime string `json:"runtime"`
		Results []struct {
			Library string `json:"library"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "Unvalidated", doc.Results[0].Library)
	assert.Equal(t, "santhosh-tekuri/jsonschema", doc.Results[1].Library)
	assert.NotEmpty(t, doc.Runtime)
}

func TestRun_ConfigurationError(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	_, err := execute(t, "run", "--driver", "replay", "--duration", "0s")
	assert.Error(t, err)

	_, err = execute(t, "run", "--driver", "replay", "--duration", "10ms", "--validators", "zod")
	assert.ErrorContains(t, err, "zod")
}
