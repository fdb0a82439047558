package config

// DefaultEngineURL is the default wallet engine endpoint.
const DefaultEngineURL = "https://engine.emberwallet.dev"

// DefaultRefreshSeconds is the dashboard refresh interval.
const DefaultRefreshSeconds = 30

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.ember",
		Network: "mainnet",
		Engine: EngineConfig{
			URL:            DefaultEngineURL,
			APIKey:         "",
			TimeoutSeconds: 30,
			RateLimitRPS:   4,
		},
		Refresh: RefreshConfig{
			IntervalSeconds: DefaultRefreshSeconds,
		},
		Payments: PaymentsConfig{
			PageSize:    50,
			RecentCount: 10,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.ember/logs/ember.log",
		},
	}
}
