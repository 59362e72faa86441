// Package config loads the gocalc configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gocalc/pkg/evaluator"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "gocalc.yaml"

// Config is the complete configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	History   HistoryConfig   `yaml:"history"`
	Assistant AssistantConfig `yaml:"assistant"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	BaseURL         string        `yaml:"base_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Tracing         TracingConfig `yaml:"tracing"`
}

// TracingConfig configures OpenTelemetry export. An empty endpoint with
// tracing enabled uses the exporter's environment defaults.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// EngineConfig configures expression evaluation and result formatting.
type EngineConfig struct {
	AngleMode      string   `yaml:"angle_mode"`
	CacheSize      int      `yaml:"cache_size"`
	MaxDepth       int      `yaml:"max_depth"`
	Precision      int      `yaml:"precision"`
	Locale         string   `yaml:"locale"`
	FractionDigits int      `yaml:"fraction_digits"`
	Extensions     bool     `yaml:"extensions"`
	WasmModules    []string `yaml:"wasm_modules"`
}

// HistoryConfig configures history persistence.
type HistoryConfig struct {
	Database string `yaml:"database"`
	PageSize int    `yaml:"page_size"`
}

// AssistantConfig configures the AI assistant. An empty API key disables it.
type AssistantConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			BaseURL:         "http://localhost:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Tracing: TracingConfig{
				ServiceName: "gocalc",
			},
		},
		Engine: EngineConfig{
			AngleMode:      "deg",
			CacheSize:      256,
			MaxDepth:       256,
			Precision:      evaluator.DefaultPrecision,
			Locale:         "en",
			FractionDigits: -1,
			Extensions:     true,
		},
		History: HistoryConfig{
			Database: "gocalc.db",
			PageSize: 20,
		},
		Assistant: AssistantConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file at DefaultPath is not an error; any other missing path is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Server.Addr, "GOCALC_ADDR")
	str(&c.Server.BaseURL, "GOCALC_BASE_URL")
	str(&c.History.Database, "GOCALC_DB")
	str(&c.Assistant.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	str(&c.Assistant.Model, "GOCALC_MODEL")
	str(&c.Engine.Locale, "GOCALC_LOCALE")
	str(&c.Engine.AngleMode, "GOCALC_ANGLE_MODE")
	str(&c.Logging.Level, "GOCALC_LOG_LEVEL")
	str(&c.Server.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v, ok := lookup("GOCALC_TRACING"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GOCALC_TRACING: %w", err)
		}
		c.Server.Tracing.Enabled = b
	}
	return nil
}

// Validate checks the values that cannot be corrected silently.
func (c *Config) Validate() error {
	var errs []error
	if _, err := evaluator.ParseAngleMode(c.Engine.AngleMode); err != nil {
		errs = append(errs, fmt.Errorf("engine.angle_mode: %w", err))
	}
	if c.Engine.CacheSize < 0 {
		errs = append(errs, errors.New("engine.cache_size must not be negative"))
	}
	if c.Engine.Precision < 1 || c.Engine.Precision > 17 {
		errs = append(errs, errors.New("engine.precision must be between 1 and 17"))
	}
	if c.Engine.MaxDepth < 1 {
		errs = append(errs, errors.New("engine.max_depth must be positive"))
	}
	if c.Engine.FractionDigits < -1 || c.Engine.FractionDigits > evaluator.MaxFractionDigits {
		errs = append(errs, fmt.Errorf("engine.fraction_digits must be -1 (automatic) or between 0 and %d", evaluator.MaxFractionDigits))
	}
	if c.History.PageSize < 1 {
		errs = append(errs, errors.New("history.page_size must be positive"))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultAngleMode returns the configured angle mode, degrees when invalid.
func (e EngineConfig) DefaultAngleMode() evaluator.AngleMode {
	m, _ := evaluator.ParseAngleMode(e.AngleMode)
	return m
}
