// Package config loads CLI settings. Later sources win: defaults, then an
// optional TOML file, then a .env file in the working directory, then the
// process environment. A .env entry never replaces a variable that is already
// set. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/jason-riddle/docproc-go"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// DefaultCacheTTL is how long cached document names stay fresh.
const DefaultCacheTTL = 12 * time.Hour

// Environment variables read by Load.
const (
	EnvURL     = "DOCPROC_URL"
	EnvTimeout = "DOCPROC_TIMEOUT"
	EnvOutput  = "DOCPROC_OUTPUT"
	EnvDebug   = "DOCPROC_DEBUG"
	EnvTrace   = "DOCPROC_TRACE"
	EnvConfig  = "DOCPROC_CONFIG"
)

// Duration is a time.Duration written as a string such as "30s" in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type APIConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
}

type OutputConfig struct {
	// Format is "json" or "text"; empty picks by terminal.
	Format string `toml:"format"`
}

type CacheConfig struct {
	TTL    Duration `toml:"ttl"`
	Memory bool     `toml:"memory"`
}

type Config struct {
	API    APIConfig    `toml:"api"`
	Output OutputConfig `toml:"output"`
	Cache  CacheConfig  `toml:"cache"`
	Debug  bool         `toml:"debug"`
	Trace  bool         `toml:"trace"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		API:   APIConfig{BaseURL: docproc.DefaultBaseURL},
		Cache: CacheConfig{TTL: Duration(DefaultCacheTTL)},
	}
}

// Dir returns the config directory, preferring XDG_CONFIG_HOME.
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "docproc-go"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	return filepath.Join(home, ".config", "docproc-go"), nil
}

// Path returns the config file path: $DOCPROC_CONFIG if set, else
// config.toml in Dir. explicit reports whether it came from the environment.
func Path() (path string, explicit bool, err error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, true, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", false, err
	}
	return filepath.Join(dir, "config.toml"), false, nil
}

// Load builds the configuration. A missing default config file is not an
// error; a missing file named by DOCPROC_CONFIG is.
func Load() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := Default()

	path, explicit, err := Path()
	if err != nil {
		return nil, err
	}
	if err := cfg.MergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFile overlays the TOML file at path onto c. Keys absent from the
// file keep their current value.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file '%s': %w", path, err)
	}
	return nil
}

// ApplyEnv overlays DOCPROC_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.API.Timeout = Duration(d)
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output.Format = strings.ToLower(v)
	}

	var err error
	if c.Debug, err = envBool(EnvDebug, c.Debug); err != nil {
		return err
	}
	if c.Trace, err = envBool(EnvTrace, c.Trace); err != nil {
		return err
	}
	return nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

// Validate checks values that cannot be fixed up later.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "", FormatJSON, FormatText:
	default:
		return fmt.Errorf("unsupported output format: %s (use 'json' or 'text')", c.Output.Format)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	return nil
}

// Timeout returns the request timeout, zero meaning none.
func (c *Config) Timeout() time.Duration { return time.Duration(c.API.Timeout) }

// CacheTTL returns the document-name cache lifetime.
func (c *Config) CacheTTL() time.Duration { return time.Duration(c.Cache.TTL) }
