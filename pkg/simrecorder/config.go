package simrecorder

import (
	"github.com/ghalamif/SimRecorder/internal/adapters/opcua"
	"github.com/ghalamif/SimRecorder/internal/app/config"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy extends the built-in ignore and throttle tables.
	Policy = ports.Policy
	// RecorderConfig holds the change-log paths and the recording policy.
	RecorderConfig = config.RecorderConfig
	// SourceConfig selects the feed.
	SourceConfig = config.SourceConfig
	// ReplayConfig points at a replay script.
	ReplayConfig = config.ReplayConfig
	// OPCUAConfig holds connection + node details.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig maps a monitored node onto a channel.
	OPCUANodeConfig = opcua.NodeConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

const (
	SourceReplay   = config.SourceReplay
	SourceOPCUA    = config.SourceOPCUA
	SourceExternal = config.SourceExternal
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes, defaults and validates an in-memory YAML document.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}
