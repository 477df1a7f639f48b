package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{EnvConfigPath, EnvDBPath, EnvOutputDir, EnvSheetFormat, EnvLogOutput, EnvLogLevel, EnvLogFilePath} {
		t.Setenv(env, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d", cfg.Version)
	}
	if cfg.Output.SheetFormat != "csv" || cfg.Output.RecordFormat != "json" {
		t.Errorf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadConfiguration_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `version: 1
output:
  dir: /data/out
  sheet_format: parquet
storage:
  db_path: /data/micrograph.db
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Output.Dir != "/data/out" || cfg.Output.SheetFormat != "parquet" {
		t.Errorf("file values not applied: %+v", cfg.Output)
	}
	if cfg.Output.RecordFormat != "json" {
		t.Errorf("default lost for unspecified field: %q", cfg.Output.RecordFormat)
	}
	if cfg.Storage.DBPath != "/data/micrograph.db" {
		t.Errorf("Storage.DBPath = %q", cfg.Storage.DBPath)
	}
}

func TestLoadConfiguration_EmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfiguration(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Output.SheetFormat != "csv" {
		t.Errorf("SheetFormat = %q", cfg.Output.SheetFormat)
	}
}

func TestLoadConfiguration_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBPath, ":memory:")
	t.Setenv(EnvOutputDir, "/tmp/extract")
	t.Setenv(EnvSheetFormat, "parquet")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadConfiguration(writeConfig(t, "output:\n  sheet_format: csv\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Storage.DBPath != ":memory:" {
		t.Errorf("Storage.DBPath = %q", cfg.Storage.DBPath)
	}
	if cfg.Output.Dir != "/tmp/extract" || cfg.Output.SheetFormat != "parquet" {
		t.Errorf("env overrides not applied: %+v", cfg.Output)
	}
	if got := cfg.LogConfig(); got.Level != "debug" {
		t.Errorf("LogConfig().Level = %q", got.Level)
	}
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "output:\n  colour: red\n"},
		{"bad sheet format", "output:\n  sheet_format: xlsx\n"},
		{"bad record format", "output:\n  record_format: toml\n"},
		{"bad version", "version: 2\n"},
		{"bad log output", "logging:\n  output: stdout\n"},
		{"malformed yaml", "output: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfiguration_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolvePath(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	if got := ResolvePath(); got != "" {
		t.Errorf("ResolvePath() = %q, want empty without a config file", got)
	}

	t.Setenv(EnvConfigPath, "/etc/micrograph.yaml")
	if got := ResolvePath(); got != "/etc/micrograph.yaml" {
		t.Errorf("ResolvePath() = %q", got)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{DBPath: ":memory:"}}
	if got, err := cfg.DatabasePath(); err != nil || got != ":memory:" {
		t.Errorf("DatabasePath() = %q, %v", got, err)
	}

	dbPath := filepath.Join(t.TempDir(), "nested", "store.db")
	cfg.Storage.DBPath = dbPath
	got, err := cfg.DatabasePath()
	if err != nil || got != dbPath {
		t.Fatalf("DatabasePath() = %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}

func TestDump(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("dumped config does not load back: %v", err)
	}
}
