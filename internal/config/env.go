package config

import (
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/mrz1836/go-sanitize"
)

// envOverrides mirrors the environment variables Ember honors. All fields
// are optional; unset variables leave the file-based value in place.
type envOverrides struct {
	Home            string  `env:"EMBER_HOME"`
	Network         string  `env:"EMBER_NETWORK"`
	EngineURL       string  `env:"EMBER_ENGINE_URL"`
	EngineAPIKey    string  `env:"EMBER_ENGINE_API_KEY"` // #nosec G101 -- false positive, this is a tag name not a credential
	RefreshSeconds  int     `env:"EMBER_REFRESH_SECONDS"`
	RateLimitRPS    float64 `env:"EMBER_ENGINE_RATE_LIMIT"`
	OutputFormat    string  `env:"EMBER_OUTPUT_FORMAT"`
	Verbose         bool    `env:"EMBER_VERBOSE"`
	LogLevel        string  `env:"EMBER_LOG_LEVEL"`
	NoColor         string  `env:"NO_COLOR"`
}

// ApplyEnvironment applies environment variable overrides to the
// configuration. A .env file in the working directory is loaded first so
// local development keys never have to live in the shell profile.
//
//nolint:gocognit // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	// Best effort; a missing .env file is the normal case.
	_ = godotenv.Load()

	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		return
	}

	if env.Home != "" {
		cfg.Home = env.Home
	}

	if env.Network != "" {
		cfg.Network = strings.ToLower(env.Network)
	}

	if env.EngineURL != "" {
		cfg.Engine.URL = SanitizeURL(env.EngineURL)
	}

	if env.EngineAPIKey != "" {
		cfg.Engine.APIKey = env.EngineAPIKey
	}

	if env.RefreshSeconds > 0 {
		cfg.Refresh.IntervalSeconds = env.RefreshSeconds
	}

	if env.RateLimitRPS > 0 {
		cfg.Engine.RateLimitRPS = env.RateLimitRPS
	}

	if env.OutputFormat != "" {
		cfg.Output.DefaultFormat = strings.ToLower(env.OutputFormat)
	}

	if env.Verbose {
		cfg.Output.Verbose = true
	}

	if env.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(env.LogLevel)
	}

	// NO_COLOR disables colored output regardless of value
	if env.NoColor != "" {
		cfg.Output.Color = "never"
	}
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming
// whitespace. Useful for user-provided engine URLs with copy-paste artifacts.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
