package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
	"github.com/spaghettifunk/statetrack/engine/systems"
)

type LoggingConfig struct {
	Level        string `toml:"level"`
	Prefix       string `toml:"prefix"`
	ReportCaller bool   `toml:"report_caller"`
}

type RecordingConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
	PoolSize  int `toml:"pool_size"`
}

type ResourcesConfig struct {
	MaxResourceCount int `toml:"max_resource_count"`
	// Keyed by resource kind name, e.g. "render_target".
	Defaults map[string]metadata.ResourceState `toml:"defaults"`
}

type Config struct {
	Logging   LoggingConfig   `toml:"logging"`
	Recording RecordingConfig `toml:"recording"`
	Resources ResourcesConfig `toml:"resources"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

func Default() *Config {
	workers := runtime.NumCPU()
	return &Config{
		Logging: LoggingConfig{
			Level:        "info",
			ReportCaller: true,
		},
		Recording: RecordingConfig{
			Workers:   workers,
			QueueSize: workers * 2,
			PoolSize:  workers,
		},
		Resources: ResourcesConfig{
			MaxResourceCount: 4096,
			Defaults: map[string]metadata.ResourceState{
				metadata.ResourceKindRenderTarget.String(): metadata.ResourceStateRenderTarget,
				metadata.ResourceKindDepthStencil.String(): metadata.ResourceStateDepthWrite,
			},
		},
	}
}

// Load reads the TOML file at path on top of Default. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", ErrInvalidConfig, row, col, derr.Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Recording.Workers < 1 {
		return fmt.Errorf("%w: recording.workers must be at least 1, got %d", ErrInvalidConfig, c.Recording.Workers)
	}
	if c.Recording.QueueSize < 0 {
		return fmt.Errorf("%w: recording.queue_size must not be negative, got %d", ErrInvalidConfig, c.Recording.QueueSize)
	}
	if c.Recording.PoolSize < 1 {
		return fmt.Errorf("%w: recording.pool_size must be at least 1, got %d", ErrInvalidConfig, c.Recording.PoolSize)
	}
	if c.Resources.MaxResourceCount < 1 {
		return fmt.Errorf("%w: resources.max_resource_count must be at least 1, got %d", ErrInvalidConfig, c.Resources.MaxResourceCount)
	}
	if _, err := c.kindDefaults(); err != nil {
		return err
	}
	return nil
}

func (c *Config) kindDefaults() (map[metadata.ResourceKind]metadata.ResourceState, error) {
	out := make(map[metadata.ResourceKind]metadata.ResourceState, len(c.Resources.Defaults))
	for name, state := range c.Resources.Defaults {
		var kind metadata.ResourceKind
		if err := kind.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("%w: resources.defaults: %s", ErrInvalidConfig, err)
		}
		if !state.IsValid() {
			return nil, fmt.Errorf("%w: resources.defaults.%s: invalid state %v", ErrInvalidConfig, name, state)
		}
		out[kind] = state
	}
	return out, nil
}

func (c *Config) LogConfig() core.LogConfig {
	return core.LogConfig{
		Level:        c.Logging.Level,
		Prefix:       c.Logging.Prefix,
		ReportCaller: c.Logging.ReportCaller,
	}
}

func (c *Config) RegistryConfig() *renderer.ResourceRegistryConfig {
	defaults, err := c.kindDefaults()
	if err != nil {
		core.LogWarn("ignoring resource defaults: %s", err)
		defaults = nil
	}
	return &renderer.ResourceRegistryConfig{
		MaxResourceCount: c.Resources.MaxResourceCount,
		KindDefaults:     defaults,
	}
}

func (c *Config) RecordingSystemConfig() *systems.RecordingSystemConfig {
	return &systems.RecordingSystemConfig{
		Workers:   c.Recording.Workers,
		QueueSize: c.Recording.QueueSize,
		PoolSize:  c.Recording.PoolSize,
	}
}

// Encode writes c as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
