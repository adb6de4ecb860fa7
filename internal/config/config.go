package config

// Package config handles configuration loading for marketweek.
// It supports YAML config files with .env and environment variable overrides.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. MARKETWEEK_FETCH_CONCURRENCY.
const EnvPrefix = "MARKETWEEK"

// DefaultUserAgent mimics a desktop Chrome browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config represents the complete application configuration.
type Config struct {
	Input   InputConfig   `mapstructure:"input"   yaml:"input"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Fetch   FetchConfig   `mapstructure:"fetch"   yaml:"fetch"`
	Run     RunConfig     `mapstructure:"run"     yaml:"run"`
	Parser  ParserConfig  `mapstructure:"parser"  yaml:"parser"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// InputConfig locates the source registry.
type InputConfig struct {
	Path  string `mapstructure:"path"  yaml:"path"  validate:"required"`
	Sheet string `mapstructure:"sheet" yaml:"sheet" validate:"required"`
}

// OutputConfig locates the result workbook.
type OutputConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// FetchConfig holds page fetcher settings.
type FetchConfig struct {
	UserAgent   string `mapstructure:"user_agent"  yaml:"user_agent"  validate:"required"`
	TimeoutSec  int    `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gt=0"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1,max=64"`
}

// RunConfig holds run-level settings.
type RunConfig struct {
	DeadlineSec int  `mapstructure:"deadline_sec" yaml:"deadline_sec" validate:"gte=0"` // 0 = no deadline
	FailFast    bool `mapstructure:"fail_fast"    yaml:"fail_fast"`
}

// ParserConfig holds the tunable offsets of the HTML extraction strategies.
type ParserConfig struct {
	RateTableLatestIndex int `mapstructure:"rate_table_latest_index" yaml:"rate_table_latest_index" validate:"gte=0"`
	IndexTableRows       int `mapstructure:"index_table_rows"        yaml:"index_table_rows"        validate:"min=3"`
}

// MetricsConfig holds the Prometheus textfile destination.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"` // empty disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.marketweek/config.yaml (home directory)
//  3. /etc/marketweek/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: MARKETWEEK_<SECTION>_<KEY>, e.g., MARKETWEEK_FETCH_TIMEOUT_SEC
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".marketweek"))
	v.AddConfigPath("/etc/marketweek")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", "./Sources.xlsx")
	v.SetDefault("input.sheet", "sources")

	v.SetDefault("output.path", "./results.xlsx")

	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.timeout_sec", 20)
	v.SetDefault("fetch.concurrency", 4)

	v.SetDefault("run.deadline_sec", 300) // 5 minutes
	v.SetDefault("run.fail_fast", false)

	v.SetDefault("parser.rate_table_latest_index", 11)
	v.SetDefault("parser.index_table_rows", 7)

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and returns one error listing every
// offending field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
