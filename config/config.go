// =============================================================================
// matdisco configuration
// =============================================================================
// Unified configuration loading: defaults → YAML file → environment override.
// =============================================================================
package config

import (
	"fmt"
	"time"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	LLM       LLMConfig       `yaml:"llm"`
	Agent     AgentConfig     `yaml:"agent"`
	Cache     CacheConfig     `yaml:"cache"`
	Session   SessionConfig   `yaml:"session"`
	Poller    PollerConfig    `yaml:"poller"`
	Tools     ToolsConfig     `yaml:"tools"`
	Memory    MemoryConfig    `yaml:"memory"`
	Auth      AuthConfig      `yaml:"auth"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port"`
	MetricsPort     int           `yaml:"metrics_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// Empty means cross-origin requests are refused.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// LLMConfig holds the model provider settings.
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AgentConfig holds reasoning-loop settings.
type AgentConfig struct {
	MaxIterations   int `yaml:"max_iterations"`
	MaxHistoryTurns int `yaml:"max_history_turns"`
	LongTermFacts   int `yaml:"long_term_facts"`
}

// CacheConfig holds the tiered result-cache settings. Each TTL applies to
// one family of tool operations; distinct durations get their own tier.
type CacheConfig struct {
	MaxEntries    int           `yaml:"max_entries"`
	TTLSearchShort time.Duration `yaml:"ttl_search_short"` // volatile web results (prices)
	TTLSearchLong  time.Duration `yaml:"ttl_search_long"`  // stable web results (concepts)
	TTLMPData      time.Duration `yaml:"ttl_mp_data"`
	TTLMPStats     time.Duration `yaml:"ttl_mp_stats"`
	TTLPatents     time.Duration `yaml:"ttl_patents"`
	TTLStructures  time.Duration `yaml:"ttl_structures"`
}

// SessionConfig holds session-registry sweep settings.
type SessionConfig struct {
	// InactivityThreshold bounds how long an idle session survives.
	InactivityThreshold time.Duration `yaml:"inactivity_threshold"`
	// OrphanThreshold is the shorter bound applied when a brand-new
	// session triggers a sweep. Must be below InactivityThreshold.
	OrphanThreshold time.Duration `yaml:"orphan_threshold"`
	// SweepInterval is the background sweep cadence. 0 disables the loop.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// PollerConfig holds submit/poll/fetch settings for job-based searches.
type PollerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

// ToolsConfig holds per-collaborator endpoint settings.
type ToolsConfig struct {
	HTTPTimeout      time.Duration          `yaml:"http_timeout"`
	Exa              ExaConfig              `yaml:"exa"`
	MaterialsProject MaterialsProjectConfig `yaml:"materials_project"`
	PubChem          PubChemConfig          `yaml:"pubchem"`
	SureChEMBL       SureChEMBLConfig       `yaml:"surechembl"`
}

// ExaConfig configures the web-search collaborator.
type ExaConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	DefaultResults int    `yaml:"default_results"`
}

// MaterialsProjectConfig configures the Materials Project collaborator.
type MaterialsProjectConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	SearchLimit int    `yaml:"search_limit"`
	StatsSample int    `yaml:"stats_sample"`
}

// PubChemConfig configures the PubChem collaborator.
type PubChemConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SureChEMBLConfig configures the SureChEMBL patent collaborator.
type SureChEMBLConfig struct {
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
}

// MemoryConfig holds conversation-store settings.
type MemoryConfig struct {
	TokenLimit   int    `yaml:"token_limit"`
	TokenModel   string `yaml:"token_model"`
	LongTermPath string `yaml:"long_term_path"`
}

// AuthConfig holds API authentication settings. Empty values disable auth.
type AuthConfig struct {
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// Validate checks cross-field constraints that defaults alone cannot.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("server.metrics_port must differ from http_port")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive")
	}
	if c.Session.OrphanThreshold >= c.Session.InactivityThreshold {
		return fmt.Errorf("session.orphan_threshold (%s) must be below inactivity_threshold (%s)",
			c.Session.OrphanThreshold, c.Session.InactivityThreshold)
	}
	if c.Poller.MaxAttempts <= 0 {
		return fmt.Errorf("poller.max_attempts must be positive")
	}
	if c.Poller.PollInterval <= 0 {
		return fmt.Errorf("poller.poll_interval must be positive")
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive")
	}
	return nil
}
