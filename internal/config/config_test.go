package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 100, cfg.Pipeline.Estimators)
	assert.Equal(t, int64(42), cfg.Pipeline.Seed)
	assert.Equal(t, 0.2, cfg.Pipeline.TestFraction)
	assert.Equal(t, 0.1, cfg.Pipeline.Contamination)
	assert.Equal(t, "qwen-2.5-32b", cfg.Advisor.Model)
	assert.Empty(t, cfg.Advisor.APIKey, "the credential must never have a default")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRAFFICLENS_LISTEN", ":9999")
	t.Setenv("TRAFFICLENS_ADVISOR_API_KEY", "secret-from-env")
	t.Setenv("TRAFFICLENS_PIPELINE_ESTIMATORS", "200")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, "secret-from-env", cfg.Advisor.APIKey)
	assert.Equal(t, 200, cfg.Pipeline.Estimators)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "listen: \":7070\"\npipeline:\n  estimators: 150\n  global_medians: true\nadvisor:\n  model: other-model\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, 150, cfg.Pipeline.Estimators)
	assert.True(t, cfg.Pipeline.GlobalMedians)
	assert.Equal(t, "other-model", cfg.Advisor.Model)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.2, cfg.Pipeline.TestFraction)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
