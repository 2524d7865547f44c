// Package config handles YAML configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// Config is the top-level CLI configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Output    OutputConfig    `yaml:"output"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig holds Linear API connection settings.
type APIConfig struct {
	URL       string        `yaml:"url"`
	Key       string        `yaml:"key"`       // falls back to LINEAR_API_KEY
	AuthType  string        `yaml:"auth_type"` // "api_key" or "oauth"
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	RetryWait time.Duration `yaml:"retry_wait"`
	DNSCache  bool          `yaml:"dns_cache"`
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Backend   string        `yaml:"backend"` // "disk", "memory" or "sqlite"
	Dir       string        `yaml:"dir"`     // cache root; default $XDG_CACHE_HOME or ~/.cache
	Namespace string        `yaml:"namespace"`
	TTL       time.Duration `yaml:"ttl"`
	MaxSize   int           `yaml:"max_size"` // memory backend only
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // rotating log file; empty logs to stderr
}

// OutputConfig holds presentation defaults.
type OutputConfig struct {
	Format string `yaml:"format"` // "text", "table" or "json"
	Color  string `yaml:"color"`  // "auto", "always" or "never"
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // written on exit when set
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"` // OTLP gRPC endpoint
	Insecure   bool    `yaml:"insecure"`
	SampleRate float64 `yaml:"sample_rate"` // 0.0 to 1.0
}

// Allowed enum values.
var (
	Backends = []string{"disk", "memory", "sqlite"}
	Formats  = []string{"text", "table", "json"}
	Colors   = []string{"auto", "always", "never"}
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:       "https://api.linear.app/graphql",
			AuthType:  "api_key",
			Timeout:   30 * time.Second,
			RetryWait: 500 * time.Millisecond,
			DNSCache:  true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "disk",
			Namespace: "linear",
			TTL:       30 * time.Second,
			MaxSize:   1_000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{
				Endpoint:   "localhost:4317",
				Insecure:   true,
				SampleRate: 1.0,
			},
		},
	}
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file, expanding environment variables.
// The file must exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

// LoadDefault loads DefaultPath, falling back to Default when the file does
// not exist.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(expandEnv(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment settings that have no YAML counterpart set.
func (c *Config) applyEnv() {
	if c.API.Key == "" {
		c.API.Key = os.Getenv("LINEAR_API_KEY")
	}
	if os.Getenv("DEBUG") != "" {
		c.Log.Level = "debug"
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Output.Color = "never"
	}
}

// Validate checks enum fields and ranges.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return errors.New("config: api.url is required")
	}
	if c.API.AuthType != "api_key" && c.API.AuthType != "oauth" {
		return fmt.Errorf("config: api.auth_type %q: want api_key or oauth", c.API.AuthType)
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("config: api.retries must be >= 0, got %d", c.API.Retries)
	}
	if !oneOf(c.Cache.Backend, Backends) {
		return fmt.Errorf("config: cache.backend %q: want one of %s", c.Cache.Backend, strings.Join(Backends, ", "))
	}
	if c.Cache.Namespace == "" || c.Cache.Namespace != filepath.Base(c.Cache.Namespace) || c.Cache.Namespace == ".." {
		return fmt.Errorf("config: cache.namespace %q must be a single directory name", c.Cache.Namespace)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: cache.ttl must be >= 0, got %s", c.Cache.TTL)
	}
	if !oneOf(c.Output.Format, Formats) {
		return fmt.Errorf("config: output.format %q: want one of %s", c.Output.Format, strings.Join(Formats, ", "))
	}
	if !oneOf(c.Output.Color, Colors) {
		return fmt.Errorf("config: output.color %q: want one of %s", c.Output.Color, strings.Join(Colors, ", "))
	}
	return nil
}

// CachingEnabled reports whether query results are cached at all.
func (c CacheConfig) CachingEnabled() bool {
	return c.Enabled && c.TTL > 0
}

// Path returns the namespaced cache directory, <root>/<namespace>.
func (c CacheConfig) Path() (string, error) {
	root := c.Dir
	if root == "" {
		var err error
		if root, err = CacheRoot(); err != nil {
			return "", err
		}
	}
	return filepath.Join(root, c.Namespace), nil
}

// CacheRoot returns $XDG_CACHE_HOME, or ~/.cache when unset.
func CacheRoot() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// DefaultPath returns $XDG_CONFIG_HOME/linear/config.yaml, or
// ~/.config/linear/config.yaml when unset.
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "linear", "config.yaml"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, fallback), nil
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
