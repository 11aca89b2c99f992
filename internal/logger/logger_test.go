package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Output: &buf})
	cl := Component(l, "review")
	cl.Info().Uint("record", 3).Msg("assigned")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "opinions", entry["service"])
	assert.Equal(t, "review", entry["component"])
	assert.Equal(t, "assigned", entry["message"])
	assert.EqualValues(t, 3, entry["record"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	l = New(Config{Level: "nonsense", Output: &buf})
	l.Debug().Msg("dropped")
	l.Info().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.NotContains(t, buf.String(), "dropped")
}
