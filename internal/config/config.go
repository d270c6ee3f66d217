// Package config loads the application configuration from defaults,
// an optional YAML file and TRAFFICLENS_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/trafficlens/trafficlens/pkg/advisor"
)

// Pipeline carries the run parameters exposed to configuration.
type Pipeline struct {
	Estimators    int     `mapstructure:"estimators"`
	Seed          int64   `mapstructure:"seed"`
	TestFraction  float64 `mapstructure:"test_fraction"`
	Contamination float64 `mapstructure:"contamination"`
	ChunkSize     int     `mapstructure:"chunk_size"`
	GlobalMedians bool    `mapstructure:"global_medians"`
}

// Config is the full application configuration.
type Config struct {
	Listen   string         `mapstructure:"listen"`
	Debug    bool           `mapstructure:"debug"`
	Pipeline Pipeline       `mapstructure:"pipeline"`
	Advisor  advisor.Config `mapstructure:"advisor"`
}

// Load reads configuration. path may be empty, in which case only
// defaults and environment variables apply. The advisory API key is
// sourced from TRAFFICLENS_ADVISOR_API_KEY (or the file) and is never
// embedded in code.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("debug", false)
	v.SetDefault("pipeline.estimators", 100)
	v.SetDefault("pipeline.seed", 42)
	v.SetDefault("pipeline.test_fraction", 0.2)
	v.SetDefault("pipeline.contamination", 0.1)
	v.SetDefault("pipeline.chunk_size", 0)
	v.SetDefault("pipeline.global_medians", false)

	adv := advisor.DefaultConfig()
	v.SetDefault("advisor.url", adv.URL)
	v.SetDefault("advisor.model", adv.Model)
	v.SetDefault("advisor.api_key", "")
	v.SetDefault("advisor.temperature", adv.Temperature)
	v.SetDefault("advisor.max_tokens", adv.MaxTokens)
	v.SetDefault("advisor.timeout_sec", adv.TimeoutSec)

	v.SetEnvPrefix("TRAFFICLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
