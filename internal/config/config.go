// Package config loads the server configuration from defaults, an optional
// YAML or JSON file and TOOLSERVE_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/toolserve/internal/logging"
)

// Environment variables read by ApplyEnv.
const (
	EnvHost         = "TOOLSERVE_HOST"
	EnvPort         = "TOOLSERVE_PORT"
	EnvPath         = "TOOLSERVE_PATH"
	EnvLogLevel     = "TOOLSERVE_LOG_LEVEL"
	EnvLogFormat    = "TOOLSERVE_LOG_FORMAT"
	EnvStateful     = "TOOLSERVE_STATEFUL"
	EnvMetrics      = "TOOLSERVE_METRICS"
	EnvCORSOrigins  = "TOOLSERVE_CORS_ORIGINS"
	EnvOTLPEndpoint = "TOOLSERVE_OTLP_ENDPOINT"
	EnvToolsFile    = "TOOLSERVE_TOOLS_FILE"
)

// CORS narrows the cross-origin policy. An empty list keeps `*`.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// Tracing configures span export. An empty endpoint disables it.
type Tracing struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Insecure bool   `yaml:"insecure" json:"insecure"`
}

// Config is the full server configuration.
type Config struct {
	Host           string  `yaml:"host" json:"host"`
	Port           int     `yaml:"port" json:"port"`
	Path           string  `yaml:"path" json:"path"`
	LogLevel       string  `yaml:"log_level" json:"log_level"`
	LogFormat      string  `yaml:"log_format" json:"log_format"`
	Stateful       bool    `yaml:"stateful" json:"stateful"`
	JSONResponse   bool    `yaml:"json_response" json:"json_response"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes" json:"max_body_bytes"`
	MaxMessageSize int     `yaml:"max_message_size" json:"max_message_size"`
	Metrics        bool    `yaml:"metrics" json:"metrics"`
	ToolsFile      string  `yaml:"tools_file" json:"tools_file"`
	CORS           CORS    `yaml:"cors" json:"cors"`
	Tracing        Tracing `yaml:"tracing" json:"tracing"`
}

// Default returns the built-in configuration: 0.0.0.0:8000 on /mcp.
func Default() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8000,
		Path:           "/mcp",
		LogLevel:       "info",
		LogFormat:      logging.FormatText,
		MaxBodyBytes:   1 << 20,
		MaxMessageSize: 4096,
		Metrics:        true,
	}
}

// Load layers an optional file and the process environment over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML or JSON file at path. Fields absent from the
// file keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays TOOLSERVE_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := cast.ToBoolE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str(EnvHost, &c.Host)
	str(EnvPath, &c.Path)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)
	str(EnvOTLPEndpoint, &c.Tracing.Endpoint)
	str(EnvToolsFile, &c.ToolsFile)
	boolean(EnvStateful, &c.Stateful)
	boolean(EnvMetrics, &c.Metrics)

	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a port number", EnvPort, v))
		} else {
			c.Port = port
		}
	}
	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
	return errors.Join(errs...)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 1-65535", c.Port))
	}
	if !strings.HasPrefix(c.Path, "/") {
		errs = append(errs, fmt.Errorf("path %q must start with /", c.Path))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("log format %q must be text or json", c.LogFormat))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max_body_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Endpoint is the URL clients connect to. A wildcard host is shown as localhost.
func (c Config) Endpoint() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port)) + c.Path
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
