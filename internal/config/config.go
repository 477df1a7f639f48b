// Package config loads the micrograph-mcp configuration: built-in defaults,
// an optional YAML file on top of them, then environment overrides.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rupor-github/gencfg"
	yaml "gopkg.in/yaml.v3"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

// Environment variables
const (
	EnvConfigPath  = "MICROGRAPH_MCP_CONFIG"
	EnvDBPath      = "MICROGRAPH_MCP_DB_PATH"
	EnvOutputDir   = "MICROGRAPH_MCP_OUTPUT_DIR"
	EnvSheetFormat = "MICROGRAPH_MCP_SHEET_FORMAT"
	EnvLogOutput   = "LOG_OUTPUT"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogFilePath = "LOG_FILE_PATH"
)

const homeDirName = ".micrograph-mcp"

type (
	LoggingConfig struct {
		Output   string `yaml:"output" validate:"omitempty,oneof=stderr file"`
		Level    string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error fatal"`
		FilePath string `yaml:"file_path"`
	}

	StorageConfig struct {
		DBPath string `yaml:"db_path"`
	}

	OutputConfig struct {
		Dir          string `yaml:"dir"`
		SheetFormat  string `yaml:"sheet_format" validate:"required,oneof=csv parquet"`
		RecordFormat string `yaml:"record_format" validate:"required,oneof=json yaml"`
	}

	Config struct {
		Version int           `yaml:"version" validate:"eq=1"`
		Logging LoggingConfig `yaml:"logging"`
		Storage StorageConfig `yaml:"storage"`
		Output  OutputConfig  `yaml:"output"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// Only fields defined above are accepted, so yaml.Unmarshal cannot be
	// used directly
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if err := gencfg.Sanitize(cfg); err != nil {
		return err
	}
	return gencfg.Validate(cfg)
}

// LoadConfiguration reads the configuration file at path, superimposes its
// values on top of the built-in defaults, applies environment overrides and
// validates the result. An empty path uses the defaults only.
func LoadConfiguration(path string) (*Config, error) {
	data, err := gencfg.Process(ConfigTmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		cfg, err = unmarshalConfig(data, cfg, false)
		if err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}

	cfg.applyEnv()
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ResolvePath returns the configuration file to load: $MICROGRAPH_MCP_CONFIG
// if set, otherwise ~/.micrograph-mcp/config.yaml when it exists, otherwise
// an empty string.
func ResolvePath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, homeDirName, "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func (c *Config) applyEnv() {
	override := func(dst *string, env string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	override(&c.Storage.DBPath, EnvDBPath)
	override(&c.Output.Dir, EnvOutputDir)
	override(&c.Output.SheetFormat, EnvSheetFormat)
	override(&c.Logging.Output, EnvLogOutput)
	override(&c.Logging.Level, EnvLogLevel)
	override(&c.Logging.FilePath, EnvLogFilePath)
}

// LogConfig converts the logging section for logger.NewLogger.
func (c *Config) LogConfig() logger.LogConfig {
	return logger.LogConfig{
		Output:   c.Logging.Output,
		Level:    c.Logging.Level,
		FilePath: c.Logging.FilePath,
	}
}

// DatabasePath returns the configured SQLite path, defaulting to
// ~/.micrograph-mcp/micrograph.db. The parent directory is created for
// file-backed databases.
func (c *Config) DatabasePath() (string, error) {
	dbPath := c.Storage.DBPath
	if dbPath == ":memory:" {
		return dbPath, nil
	}
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, homeDirName, "micrograph.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return dbPath, nil
}

// Dump renders cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
