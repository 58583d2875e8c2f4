package simrecorder

import (
	base "github.com/ghalamif/SimRecorder/pkg/simrecorder"
)

// Re-exported errors for convenience.
var (
	ErrAlreadyStarted    = base.ErrAlreadyStarted
	ErrNotStarted        = base.ErrNotStarted
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

const (
	LoopSessionInfo = base.LoopSessionInfo
	LoopTelemetry   = base.LoopTelemetry
	SourceReplay    = base.SourceReplay
	SourceOPCUA     = base.SourceOPCUA
	SourceExternal  = base.SourceExternal
)

// Type aliases so consumers can import github.com/ghalamif/SimRecorder directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	RecorderConfig  = base.RecorderConfig
	SourceConfig    = base.SourceConfig
	ReplayConfig    = base.ReplayConfig
	OPCUAConfig     = base.OPCUAConfig
	OPCUANodeConfig = base.OPCUANodeConfig
	MetricsConfig   = base.MetricsConfig
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	StreamInOption  = base.StreamInOption
	StreamOutOption = base.StreamOutOption
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	Recorder        = base.Recorder
	LoopError       = base.LoopError
	Source          = base.Source
	MemorySource    = base.MemorySource
	Feed            = base.Feed
	Notifier        = base.Notifier
	Sink            = base.Sink
	SinkOpener      = base.SinkOpener
	BatchFunc       = base.BatchFunc
	Observability   = base.Observability
	Field           = base.Field
	Batch           = base.Batch
	ChangeRecord    = base.ChangeRecord
	ChannelDesc     = base.ChannelDesc
	Value           = base.Value
	Record          = base.Record
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInFeed(f Feed) StreamInOption {
	return base.StreamInFeed(f)
}

func StreamInSource(src Source) StreamInOption {
	return base.StreamInSource(src)
}

func StreamInReplay(path string, speed float64) StreamInOption {
	return base.StreamInReplay(path, speed)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutFiles(sessionInfoPath, telemetryPath string) StreamOutOption {
	return base.StreamOutFiles(sessionInfoPath, telemetryPath)
}

func StreamOutSinks(sessionInfo, telemetry SinkOpener) StreamOutOption {
	return base.StreamOutSinks(sessionInfo, telemetry)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(fn BatchFunc) StreamOutOption {
	return base.StreamOutCallback(fn)
}

func StreamOutExceptionHandler(fn func(error)) StreamOutOption {
	return base.StreamOutExceptionHandler(fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithFeed(f Feed) RuntimeOption {
	return base.WithFeed(f)
}

func WithSource(src Source) RuntimeOption {
	return base.WithSource(src)
}

func WithSinkOpeners(sessionInfo, telemetry SinkOpener) RuntimeOption {
	return base.WithSinkOpeners(sessionInfo, telemetry)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithExceptionHandler(fn func(error)) RuntimeOption {
	return base.WithExceptionHandler(fn)
}

// Sources.
func NewMemorySource(tickRate int) *MemorySource {
	return base.NewMemorySource(tickRate)
}

func ParseSessionInfo(raw []byte) (*Record, error) {
	return base.ParseSessionInfo(raw)
}

// Sink adapters.
func NewCallbackSink(name string, fn BatchFunc) SinkOpener {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (SinkOpener, <-chan Batch, func()) {
	return base.NewChannelSink(name, buffer)
}

// Channel value constructors.
var (
	CharValue     = base.CharValue
	BoolValue     = base.BoolValue
	IntValue      = base.IntValue
	BitFieldValue = base.BitFieldValue
	FloatValue    = base.FloatValue
	DoubleValue   = base.DoubleValue
)
