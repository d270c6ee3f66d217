package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictJSON(t *testing.T) {
	data, err := json.Marshal([]Verdict{NotScored, Normal, Anomaly})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, "Normal", "Anomaly"]`, string(data))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "", NotScored.String())
	assert.Equal(t, "Normal", Normal.String())
	assert.Equal(t, "Anomaly", Anomaly.String())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.1, cfg.Contamination)
	assert.Equal(t, int64(42), cfg.Seed)
}
