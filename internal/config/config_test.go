package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Input.Path != "./Sources.xlsx" {
		t.Errorf("Input.Path: got %q, want %q", cfg.Input.Path, "./Sources.xlsx")
	}
	if cfg.Input.Sheet != "sources" {
		t.Errorf("Input.Sheet: got %q, want %q", cfg.Input.Sheet, "sources")
	}
	if cfg.Output.Path != "./results.xlsx" {
		t.Errorf("Output.Path: got %q, want %q", cfg.Output.Path, "./results.xlsx")
	}
	if cfg.Fetch.UserAgent != DefaultUserAgent {
		t.Errorf("Fetch.UserAgent: got %q", cfg.Fetch.UserAgent)
	}
	if cfg.Fetch.TimeoutSec != 20 {
		t.Errorf("Fetch.TimeoutSec: got %d, want 20", cfg.Fetch.TimeoutSec)
	}
	if cfg.Fetch.Concurrency != 4 {
		t.Errorf("Fetch.Concurrency: got %d, want 4", cfg.Fetch.Concurrency)
	}
	if cfg.Run.DeadlineSec != 300 {
		t.Errorf("Run.DeadlineSec: got %d, want 300", cfg.Run.DeadlineSec)
	}
	if cfg.Run.FailFast {
		t.Error("Run.FailFast should be false by default")
	}
	if cfg.Parser.RateTableLatestIndex != 11 {
		t.Errorf("Parser.RateTableLatestIndex: got %d, want 11", cfg.Parser.RateTableLatestIndex)
	}
	if cfg.Parser.IndexTableRows != 7 {
		t.Errorf("Parser.IndexTableRows: got %d, want 7", cfg.Parser.IndexTableRows)
	}
	if cfg.Metrics.Textfile != "" {
		t.Errorf("Metrics.Textfile: got %q, want empty", cfg.Metrics.Textfile)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MARKETWEEK_FETCH_CONCURRENCY", "9")
	t.Setenv("MARKETWEEK_OUTPUT_PATH", "/tmp/out.xlsx")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Fetch.Concurrency != 9 {
		t.Errorf("Fetch.Concurrency: got %d, want 9", cfg.Fetch.Concurrency)
	}
	if cfg.Output.Path != "/tmp/out.xlsx" {
		t.Errorf("Output.Path: got %q", cfg.Output.Path)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MARKETWEEK_RUN_DEADLINE_SEC", "")
	os.Unsetenv("MARKETWEEK_RUN_DEADLINE_SEC")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MARKETWEEK_RUN_DEADLINE_SEC=42\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Run.DeadlineSec != 42 {
		t.Errorf("Run.DeadlineSec: got %d, want 42", cfg.Run.DeadlineSec)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
input:
  path: "/data/Sources.xlsx"
  sheet: "registry"
fetch:
  timeout_sec: 5
  concurrency: 1
run:
  fail_fast: true
parser:
  rate_table_latest_index: 1
metrics:
  textfile: "/var/lib/node_exporter/marketweek.prom"
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Input.Path != "/data/Sources.xlsx" {
		t.Errorf("Input.Path: got %q", cfg.Input.Path)
	}
	if cfg.Input.Sheet != "registry" {
		t.Errorf("Input.Sheet: got %q, want %q", cfg.Input.Sheet, "registry")
	}
	if cfg.Fetch.TimeoutSec != 5 {
		t.Errorf("Fetch.TimeoutSec: got %d, want 5", cfg.Fetch.TimeoutSec)
	}
	if cfg.Fetch.Concurrency != 1 {
		t.Errorf("Fetch.Concurrency: got %d, want 1", cfg.Fetch.Concurrency)
	}
	if !cfg.Run.FailFast {
		t.Error("Run.FailFast: want true")
	}
	if cfg.Parser.RateTableLatestIndex != 1 {
		t.Errorf("Parser.RateTableLatestIndex: got %d, want 1", cfg.Parser.RateTableLatestIndex)
	}
	// Unset keys keep their defaults.
	if cfg.Parser.IndexTableRows != 7 {
		t.Errorf("Parser.IndexTableRows: got %d, want 7", cfg.Parser.IndexTableRows)
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/marketweek.prom" {
		t.Errorf("Metrics.Textfile: got %q", cfg.Metrics.Textfile)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Validate ──

func TestValidateRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	cfg.Fetch.Concurrency = 0
	cfg.Logging.Format = "xml"
	cfg.Input.Path = ""

	err = cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, field := range []string{"Concurrency", "Format", "Path"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

// ── Settings ──

func TestEnvVar(t *testing.T) {
	if got := EnvVar("fetch.timeout_sec"); got != "MARKETWEEK_FETCH_TIMEOUT_SEC" {
		t.Errorf("EnvVar: got %q", got)
	}
}

func TestSettingsSource(t *testing.T) {
	t.Setenv("MARKETWEEK_OUTPUT_PATH", "/tmp/x.xlsx")
	os.Unsetenv("MARKETWEEK_INPUT_PATH")

	cfg := &Config{Output: OutputConfig{Path: "/tmp/x.xlsx"}, Input: InputConfig{Path: "in.xlsx"}}
	found := 0
	for _, s := range Settings(cfg) {
		switch s.Key {
		case "output.path":
			found++
			if s.Source != SourceEnv {
				t.Errorf("output.path source: got %q, want %q", s.Source, SourceEnv)
			}
		case "input.path":
			found++
			if s.Source != SourceConfig {
				t.Errorf("input.path source: got %q, want %q", s.Source, SourceConfig)
			}
			if s.Value != "in.xlsx" {
				t.Errorf("input.path value: got %q", s.Value)
			}
		}
	}
	if found != 2 {
		t.Errorf("expected both keys listed, found %d", found)
	}
}

func TestAbbreviate(t *testing.T) {
	if got := abbreviate("short"); got != "short" {
		t.Errorf("abbreviate(short): got %q", got)
	}
	got := abbreviate(DefaultUserAgent)
	if len(got) != 35 || !strings.Contains(got, "...") {
		t.Errorf("abbreviate(UA): got %q", got)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
