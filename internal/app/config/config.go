package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/SimRecorder/internal/adapters/opcua"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

const (
	SourceReplay   = "replay"
	SourceOPCUA    = "opcua"
	// SourceExternal leaves the feed to the embedding program.
	SourceExternal = "external"
)

type Config struct {
	Recorder RecorderConfig `yaml:"recorder"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Source   SourceConfig   `yaml:"source"`
	Replay   ReplayConfig   `yaml:"replay"`
	OPCUA    opcua.Config   `yaml:"opcua"`
}

type RecorderConfig struct {
	SessionInfoPath string `yaml:"session_info_path"`
	TelemetryPath   string `yaml:"telemetry_path"`
	ports.Policy    `yaml:",inline"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type SourceConfig struct {
	Kind string `yaml:"kind"`
}

type ReplayConfig struct {
	Path string `yaml:"path"`
	// Speed scales the script tick rate; 0 plays as fast as possible.
	Speed *float64 `yaml:"speed"`
}

func (r ReplayConfig) PlaybackSpeed() float64 {
	if r.Speed == nil {
		return 1
	}
	return *r.Speed
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes raw, applies defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Recorder.SessionInfoPath == "" {
		c.Recorder.SessionInfoPath = "./data/SessionInfo.txt"
	}
	if c.Recorder.TelemetryPath == "" {
		c.Recorder.TelemetryPath = "./data/TelemetryData.txt"
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = 1 << 20
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceReplay
	}
	if c.Replay.Speed == nil {
		speed := 1.0
		c.Replay.Speed = &speed
	}

	if c.Source.Kind == SourceOPCUA {
		c.OPCUA.ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	if c.Recorder.SessionInfoPath == "" || c.Recorder.TelemetryPath == "" {
		return errors.New("recorder log paths are required")
	}
	if c.Recorder.SessionInfoPath == c.Recorder.TelemetryPath {
		return errors.New("recorder.session_info_path and recorder.telemetry_path must differ")
	}
	if c.Recorder.BufferSize <= 0 {
		return errors.New("recorder.buffer_size must be positive")
	}
	for name, secs := range c.Recorder.Throttle {
		if secs < 0 {
			return fmt.Errorf("recorder.throttle.%s must not be negative", name)
		}
	}
	if c.Metrics.Addr == "" {
		return errors.New("metrics.addr is required")
	}

	switch c.Source.Kind {
	case SourceReplay:
		if c.Replay.Path == "" {
			return errors.New("replay.path is required for the replay source")
		}
		if c.Replay.PlaybackSpeed() < 0 {
			return errors.New("replay.speed must not be negative")
		}
	case SourceOPCUA:
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	case SourceExternal:
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	return nil
}
