package config

import "time"

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8000,
			MetricsPort:     9091,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPS:    10,
			RateLimitBurst:  20,
			CORSAllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-4o",
			Temperature: 0,
			Timeout:     120 * time.Second,
		},
		Agent: AgentConfig{
			MaxIterations:   10,
			MaxHistoryTurns: 5,
			LongTermFacts:   10,
		},
		Cache: CacheConfig{
			MaxEntries:     1000,
			TTLSearchShort: 24 * time.Hour,
			TTLSearchLong:  7 * 24 * time.Hour,
			TTLMPData:      7 * 24 * time.Hour,
			TTLMPStats:     30 * 24 * time.Hour,
			TTLPatents:     24 * time.Hour,
			TTLStructures:  7 * 24 * time.Hour,
		},
		Session: SessionConfig{
			InactivityThreshold: 60 * time.Minute,
			OrphanThreshold:     5 * time.Minute,
			SweepInterval:       2 * time.Minute,
		},
		Poller: PollerConfig{
			PollInterval: 2 * time.Second,
			MaxAttempts:  10,
		},
		Tools: ToolsConfig{
			HTTPTimeout: 30 * time.Second,
			Exa: ExaConfig{
				BaseURL:        "https://api.exa.ai",
				DefaultResults: 5,
			},
			MaterialsProject: MaterialsProjectConfig{
				BaseURL:     "https://api.materialsproject.org",
				SearchLimit: 20,
				StatsSample: 500,
			},
			PubChem: PubChemConfig{
				BaseURL: "https://pubchem.ncbi.nlm.nih.gov/rest/pug",
			},
			SureChEMBL: SureChEMBLConfig{
				BaseURL:  "https://www.surechembl.org/api",
				PageSize: 10,
			},
		},
		Memory: MemoryConfig{
			TokenLimit:   8000,
			TokenModel:   "gpt-4o",
			LongTermPath: "long_term_memory.db",
		},
		Auth: AuthConfig{},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "matdisco",
			Insecure:    true,
		},
	}
}
