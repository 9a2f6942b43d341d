// Package config loads jsbox settings from a TOML file.
//
// A file only needs to name the settings it changes:
//
//	[vm]
//	max_frame_depth = 256
//
//	[log]
//	level = "debug"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
)

// DefaultPath is where the CLI looks for a configuration file.
const DefaultPath = "~/.jsbox.toml"

// Config holds every setting read from a configuration file.
type Config struct {
	VM       VMConfig       `toml:"vm"`
	Compiler CompilerConfig `toml:"compiler"`
	Log      LogConfig      `toml:"log"`
	Cache    CacheConfig    `toml:"cache"`
}

// VMConfig controls virtual machine limits.
type VMConfig struct {
	// ContextCheckInterval is the number of instructions between
	// cancellation checks. Zero disables the checks.
	ContextCheckInterval int `toml:"context_check_interval"`
	MaxFrameDepth        int `toml:"max_frame_depth"`
	// GCThreshold is the heap size in bytes that triggers a collection.
	// Zero keeps the heap's own default.
	GCThreshold int `toml:"gc_threshold"`
}

// CompilerConfig controls compilation.
type CompilerConfig struct {
	// Trace logs each compiled function at debug level.
	Trace bool `toml:"trace"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// CacheConfig controls the compiled bytecode cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		VM: VMConfig{
			ContextCheckInterval: 1000,
			MaxFrameDepth:        1024,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     "~/.cache/jsbox",
		},
	}
}

// Load reads path on top of the defaults. The default path may be absent;
// any other missing file is an error.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultPath
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			return cfg, cfg.expand()
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a TOML document on top of the defaults.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.expand()
}

// Validate reports settings that are out of range.
func (c *Config) Validate() error {
	switch {
	case c.VM.ContextCheckInterval < 0:
		return errors.New("vm.context_check_interval must not be negative")
	case c.VM.MaxFrameDepth <= 0:
		return errors.New("vm.max_frame_depth must be positive")
	case c.VM.GCThreshold < 0:
		return errors.New("vm.gc_threshold must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the configured log level. An empty level means warn.
func (c *Config) LogLevel() (zerolog.Level, error) {
	if c.Log.Level == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func (c *Config) expand() error {
	dir, err := homedir.Expand(c.Cache.Dir)
	if err != nil {
		return fmt.Errorf("config: cache.dir: %w", err)
	}
	c.Cache.Dir = dir
	return nil
}
