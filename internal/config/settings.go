package config

import (
	"os"
	"strconv"
	"strings"
)

// SettingSource represents where an effective setting comes from.
type SettingSource string

const (
	SourceEnv    SettingSource = "env"
	SourceConfig SettingSource = "config" // file or built-in default
)

// Setting is one effective configuration value, as shown by `marketweek status`.
type Setting struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
}

// Settings returns the effective values of the user-facing keys.
func Settings(cfg *Config) []Setting {
	return []Setting{
		setting("input.path", cfg.Input.Path),
		setting("input.sheet", cfg.Input.Sheet),
		setting("output.path", cfg.Output.Path),
		setting("fetch.user_agent", abbreviate(cfg.Fetch.UserAgent)),
		setting("fetch.timeout_sec", strconv.Itoa(cfg.Fetch.TimeoutSec)),
		setting("fetch.concurrency", strconv.Itoa(cfg.Fetch.Concurrency)),
		setting("run.deadline_sec", strconv.Itoa(cfg.Run.DeadlineSec)),
		setting("run.fail_fast", strconv.FormatBool(cfg.Run.FailFast)),
		setting("parser.rate_table_latest_index", strconv.Itoa(cfg.Parser.RateTableLatestIndex)),
		setting("parser.index_table_rows", strconv.Itoa(cfg.Parser.IndexTableRows)),
		setting("metrics.textfile", cfg.Metrics.Textfile),
		setting("logging.level", cfg.Logging.Level),
		setting("logging.format", cfg.Logging.Format),
	}
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func setting(key, value string) Setting {
	s := Setting{Key: key, Value: value, Source: SourceConfig}
	if _, ok := os.LookupEnv(EnvVar(key)); ok {
		s.Source = SourceEnv
	}
	return s
}

// abbreviate shortens long values for display, keeping the first 24 and last 8 chars.
func abbreviate(s string) string {
	if len(s) <= 40 {
		return s
	}
	return s[:24] + "..." + s[len(s)-8:]
}
