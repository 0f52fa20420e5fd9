// Package config provides configuration management for the RailGPT relay.
// It covers the HTTP server, the Azure OpenAI relay, attachment extraction,
// prompt processing, CORS and logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Relay      RelayConfig      `yaml:"relay"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Processing ProcessingConfig `yaml:"processing"`
	CORS       CORSConfig       `yaml:"cors"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Routes     []RouteConfig    `yaml:"routes"`
}

// ServerConfig holds server-specific configuration for the HTTP server.
type ServerConfig struct {
	// Port specifies the HTTP server port (default: 8000)
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing the response. Zero disables it so a slow
	// provider call is never cut short by the server (default: 0)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps the size of a chat request body, attachments included
	// (default: 32MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ShutdownTimeout specifies how long to wait for the server to shutdown
	// gracefully before forcing termination (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RelayConfig holds the fixed parameters of every chat-completion call.
// Endpoint and API key are not configured here: callers supply them per request.
type RelayConfig struct {
	// APIVersion is the Azure OpenAI REST API version
	APIVersion string `yaml:"api_version"`

	// Deployment is the Azure deployment (model) every request is sent to
	Deployment string `yaml:"deployment"`

	// HonorRequestModel lets a non-empty "model" field in the request
	// override Deployment
	HonorRequestModel bool `yaml:"honor_request_model"`

	// Temperature is the sampling temperature sent with every call
	Temperature float32 `yaml:"temperature"`

	// MaxTokens caps the completion length
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds a single provider call. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// ExtractionConfig controls attachment text extraction.
type ExtractionConfig struct {
	// Concurrency is the number of attachments decoded in parallel
	Concurrency int `yaml:"concurrency"`
}

// CORSConfig is the cross-origin allow-list. It is read once at startup and
// handed to the CORS middleware.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`

	// Format specifies log output format: json or text
	Format string `yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RouteConfig holds route-specific configuration.
type RouteConfig struct {
	// Path is the URL path to match
	Path string `yaml:"path"`

	// Handler specifies which handler to use for this route
	Handler string `yaml:"handler"`

	// Version is an optional path prefix (e.g., "v1")
	Version string `yaml:"version,omitempty"`

	// Methods specifies the allowed HTTP methods for this route
	Methods []string `yaml:"methods"`

	// Headers specifies the required headers for this route
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultConfig returns the configuration the relay runs with when no file
// overrides it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			MaxHeaderBytes:  1 << 20,
			MaxBodyBytes:    32 << 20,
			ShutdownTimeout: 30 * time.Second,
		},

		Relay: RelayConfig{
			APIVersion:  "2025-03-01-preview",
			Deployment:  "gpt-4-32k",
			Temperature: 0.7,
			MaxTokens:   1000,
		},

		Extraction: ExtractionConfig{
			Concurrency: 4,
		},

		Processing: DefaultProcessingConfig(),

		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:5173", // Vite/Bun dev server
				"http://127.0.0.1:5173",
				"http://localhost:3000",
				"http://localhost:8000",
			},
			AllowedMethods:   []string{"*"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           600,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},

		Metrics: MetricsConfig{
			Enabled: true,
		},

		Routes: []RouteConfig{
			{
				Path:    "/",
				Handler: "root",
				Methods: []string{"GET"},
			},
			{
				Path:    "/api/chat",
				Handler: "chat",
				Methods: []string{"POST"},
			},
			{
				Path:    "/metrics",
				Handler: "metrics",
				Methods: []string{"GET"},
			},
		},
	}
}

// LoadFile loads configuration from a YAML file
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// LoadFileOrDefault behaves like LoadFile but returns DefaultConfig when the
// file does not exist.
func LoadFileOrDefault(filename string) (*Config, error) {
	cfg, err := LoadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// expandEnvVars resolves ${VAR} and ${VAR:-default} references. Nested
// references are expanded until the string no longer changes.
func expandEnvVars(s string) (string, error) {
	if strings.Count(s, "${") > strings.Count(s, "}") {
		return "", fmt.Errorf("invalid syntax: unterminated variable reference")
	}

	result := os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			if val := os.Getenv(key[:i]); val != "" {
				return val
			}
			return key[i+2:]
		}
		return os.Getenv(key)
	})

	prev := ""
	for prev != result {
		prev = result
		result = os.Expand(result, os.Getenv)
	}

	return result, nil
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expandedData, err := expandEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("expand environment variables: %w", err)
	}

	// Start with defaults
	config := DefaultConfig()

	// Decode YAML on top of defaults. An empty document keeps the defaults.
	dec := yaml.NewDecoder(strings.NewReader(expandedData))
	if err := dec.Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("negative read timeout: %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("negative write timeout: %v", c.Server.WriteTimeout)
	}
	if c.Server.MaxHeaderBytes < 0 {
		return fmt.Errorf("negative max header bytes: %d", c.Server.MaxHeaderBytes)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive: %d", c.Server.MaxBodyBytes)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("negative shutdown timeout: %v", c.Server.ShutdownTimeout)
	}

	// Relay validation
	if c.Relay.APIVersion == "" {
		return fmt.Errorf("empty relay api version")
	}
	if c.Relay.Deployment == "" {
		return fmt.Errorf("empty relay deployment")
	}
	if c.Relay.Temperature < 0 || c.Relay.Temperature > 2 {
		return fmt.Errorf("relay temperature out of range [0, 2]: %v", c.Relay.Temperature)
	}
	if c.Relay.MaxTokens <= 0 {
		return fmt.Errorf("relay max tokens must be positive: %d", c.Relay.MaxTokens)
	}
	if c.Relay.Timeout < 0 {
		return fmt.Errorf("negative relay timeout: %v", c.Relay.Timeout)
	}

	if c.Extraction.Concurrency < 1 {
		return fmt.Errorf("extraction concurrency must be at least 1: %d", c.Extraction.Concurrency)
	}

	if err := c.Processing.Validate(); err != nil {
		return err
	}

	// CORS validation
	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid cors origin: %q", origin)
		}
	}
	if c.CORS.MaxAge < 0 {
		return fmt.Errorf("negative cors max age: %d", c.CORS.MaxAge)
	}

	// Logging validation
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Route validation
	for i, route := range c.Routes {
		if route.Path == "" {
			return fmt.Errorf("empty path in route %d", i)
		}
		if route.Handler == "" {
			return fmt.Errorf("empty handler in route %d", i)
		}
	}

	return nil
}
