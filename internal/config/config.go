package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfigFile    = "PDFEDITOR_CONFIG"
	EnvLogLevel      = "PDFEDITOR_LOG_LEVEL"
	EnvLogFormat     = "PDFEDITOR_LOG_FORMAT"
	EnvOptimize      = "PDFEDITOR_OPTIMIZE"
	EnvObjectStreams = "PDFEDITOR_OBJECT_STREAMS"
)

// Config holds process settings. None of them change what a request means;
// they tune logging and how documents are written.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	PDF     PDFConfig     `yaml:"pdf"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

type PDFConfig struct {
	Optimize      bool   `yaml:"optimize"`
	ObjectStreams bool   `yaml:"object_streams"`
	Validation    string `yaml:"validation"` // relaxed or strict
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		PDF:     PDFConfig{Optimize: true, ObjectStreams: true, Validation: "relaxed"},
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by PDFEDITOR_CONFIG, and environment overrides. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := getenv(EnvConfigFile, ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	c.Logging.Level = getenv(EnvLogLevel, c.Logging.Level)
	c.Logging.Format = getenv(EnvLogFormat, c.Logging.Format)

	var err error
	if c.PDF.Optimize, err = getbool(EnvOptimize, c.PDF.Optimize); err != nil {
		return err
	}
	if c.PDF.ObjectStreams, err = getbool(EnvObjectStreams, c.PDF.ObjectStreams); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: want console or json, got %q", c.Logging.Format)
	}
	switch c.PDF.Validation {
	case "relaxed", "strict":
	default:
		return fmt.Errorf("pdf.validation: want relaxed or strict, got %q", c.PDF.Validation)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
