package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emberwallet/ember/internal/config"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify Ember configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.ember/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.

Example:
  ember config init
  ember config init --force`,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the current configuration settings.

Example:
  ember config show
  ember config show -o json`,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.

Examples:
  ember config get engine.url
  ember config get output.default_format
  ember config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.
The configuration file will be updated immediately.

Examples:
  ember config set engine.url https://engine.example.com
  ember config set output.default_format json
  ember config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return emberr.WithSuggestion(
			emberr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	// Ensure directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Create default config
	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	// Write config file
	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - engine.url: Your wallet engine endpoint")
	outln(w, "  - engine.api_key: Your engine API key")
	outln(w, "  - output.default_format: Output format (text/json)")
	outln(w, "  - logging.level: Log level (off/error/warn/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	if formatter.IsJSON() {
		return writeJSON(w, cfg)
	}

	out(w, "Home:        %s\n", cfg.Home)
	out(w, "Network:     %s\n", cfg.Network)
	out(w, "Engine URL:  %s\n", cfg.Engine.URL)
	out(w, "Refresh:     %ds\n", cfg.Refresh.IntervalSeconds)
	out(w, "Page size:   %d\n", cfg.Payments.PageSize)
	out(w, "Format:      %s\n", cfg.Output.DefaultFormat)
	out(w, "Log level:   %s\n", cfg.Logging.Level)
	out(w, "Log file:    %s\n", cfg.Logging.File)

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	path := args[0]

	value, ok := getConfigValue(cfg, path)
	if !ok {
		return emberr.WithSuggestion(
			emberr.ErrConfigInvalid,
			fmt.Sprintf("configuration path '%s' not found", path),
		)
	}

	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]

	// Validate the path exists
	if _, ok := getConfigValue(cfg, path); !ok {
		return emberr.WithSuggestion(
			emberr.ErrConfigInvalid,
			fmt.Sprintf("configuration path '%s' not found", path),
		)
	}

	// Load current config from file
	configPath := config.Path(cfg.Home)
	currentCfg, err := config.Load(configPath)
	if err != nil {
		// If file doesn't exist, start with defaults
		currentCfg = config.Defaults()
		currentCfg.Home = cfg.Home
	}

	// Update the value
	if err := setConfigValue(currentCfg, path, value); err != nil {
		return err
	}

	// Save updated config
	if err := config.Save(currentCfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", path, value)
	return nil
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, bool) {
	switch path {
	case "network":
		return c.Network, true
	case "engine.url":
		return c.Engine.URL, true
	case "engine.api_key":
		return c.Engine.APIKey, true
	case "engine.timeout_seconds":
		return strconv.Itoa(c.Engine.TimeoutSeconds), true
	case "engine.rate_limit_rps":
		return strconv.FormatFloat(c.Engine.RateLimitRPS, 'f', -1, 64), true
	case "refresh.interval_seconds":
		return strconv.Itoa(c.Refresh.IntervalSeconds), true
	case "payments.page_size":
		return strconv.Itoa(c.Payments.PageSize), true
	case "payments.recent_count":
		return strconv.Itoa(c.Payments.RecentCount), true
	case "output.default_format":
		return c.Output.DefaultFormat, true
	case "logging.level":
		return c.Logging.Level, true
	case "logging.file":
		return c.Logging.File, true
	default:
		return "", false
	}
}

// setConfigValue updates a value in the config using dot notation.
func setConfigValue(c *config.Config, path, value string) error {
	badValue := func(want string) error {
		return emberr.WithSuggestion(
			emberr.ErrConfigInvalid,
			fmt.Sprintf("'%s' expects %s", path, want),
		)
	}

	switch path {
	case "network":
		c.Network = value
	case "engine.url":
		c.Engine.URL = config.SanitizeURL(value)
	case "engine.api_key":
		c.Engine.APIKey = value
	case "engine.timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return badValue("a positive integer")
		}
		c.Engine.TimeoutSeconds = n
	case "engine.rate_limit_rps":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return badValue("a positive number")
		}
		c.Engine.RateLimitRPS = f
	case "refresh.interval_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return badValue("a positive integer")
		}
		c.Refresh.IntervalSeconds = n
	case "payments.page_size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return badValue("a positive integer")
		}
		c.Payments.PageSize = n
	case "payments.recent_count":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return badValue("a positive integer")
		}
		c.Payments.RecentCount = n
	case "output.default_format":
		c.Output.DefaultFormat = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.file":
		c.Logging.File = value
	default:
		return emberr.WithSuggestion(
			emberr.ErrConfigInvalid,
			fmt.Sprintf("configuration path '%s' not found", path),
		)
	}

	return nil
}
