package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with the precedence
// defaults → YAML file → environment variables.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "MATDISCO"}
}

// WithConfigPath sets the YAML file to load.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load builds the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	l.applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides settings that operators commonly inject through the
// environment (secrets and ports). YAML remains the home for the rest.
func (l *Loader) applyEnv(cfg *Config) {
	l.envString("LLM_API_KEY", &cfg.LLM.APIKey)
	l.envString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	l.envString("LLM_MODEL", &cfg.LLM.Model)
	l.envString("EXA_API_KEY", &cfg.Tools.Exa.APIKey)
	l.envString("MP_API_KEY", &cfg.Tools.MaterialsProject.APIKey)
	l.envString("AUTH_API_KEY", &cfg.Auth.APIKey)
	l.envString("AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	l.envString("LOG_LEVEL", &cfg.Log.Level)
	l.envString("OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	l.envString("LONG_TERM_PATH", &cfg.Memory.LongTermPath)
	l.envInt("HTTP_PORT", &cfg.Server.HTTPPort)
	l.envInt("METRICS_PORT", &cfg.Server.MetricsPort)
	l.envBool("TELEMETRY_ENABLED", &cfg.Telemetry.Enabled)
	l.envDuration("SESSION_INACTIVITY_THRESHOLD", &cfg.Session.InactivityThreshold)
	l.envDuration("SESSION_ORPHAN_THRESHOLD", &cfg.Session.OrphanThreshold)
}

func (l *Loader) envString(key string, dst *string) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok {
		*dst = v
	}
}

func (l *Loader) envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (l *Loader) envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (l *Loader) envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
