package simrecorder

import (
	"context"
	"errors"
	"fmt"
)

var errFeedAndSource = errors.New("a flow takes either a feed or a source, not both")

// Flow assembles a Runtime in three steps: Conf picks the configuration,
// StreamIN decides where samples come from and StreamOUT where the change
// logs go.
type Flow struct {
	cfg *Config
	in  flowInput
	out flowOutput
	// extra holds RuntimeOptions passed through WithFlowOptions or Options.
	extra []RuntimeOption
}

type flowInput struct {
	feed   Feed
	source Source
}

type flowOutput struct {
	sessionInfo SinkOpener
	telemetry   SinkOpener
	onException func(error)
	obs         Observability
}

type (
	// FlowOption adjusts a Flow right after its configuration is known.
	FlowOption func(*Flow)
	// StreamInOption selects the feed or source.
	StreamInOption func(*Flow)
	// StreamOutOption selects the sinks and failure reporting.
	StreamOutOption func(*Flow)
)

// Conf reads the recorder configuration at path.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config is the live configuration. Edits made before StreamOUT are honored.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options passes RuntimeOptions straight to NewRuntime.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	if f != nil {
		f.extra = appendRuntimeOptions(f.extra, opts...)
	}
	return f
}

func (f *Flow) StreamIN(opts ...StreamInOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// StreamOUT applies opts and builds the Runtime. The runtime is not started.
func (f *Flow) StreamOUT(opts ...StreamOutOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	runtimeOpts, err := f.runtimeOptions()
	if err != nil {
		return nil, err
	}
	return NewRuntime(f.cfg, runtimeOpts...)
}

// Run builds the Runtime and records until ctx is done or the feed finishes.
func (f *Flow) Run(ctx context.Context, opts ...StreamOutOption) error {
	rt, err := f.StreamOUT(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// runtimeOptions translates the selected inputs and outputs. Options given
// through WithFlowOptions or Options are applied last and win.
func (f *Flow) runtimeOptions() ([]RuntimeOption, error) {
	if f.in.feed != nil && f.in.source != nil {
		return nil, errFeedAndSource
	}

	var opts []RuntimeOption
	switch {
	case f.in.feed != nil:
		opts = append(opts, WithFeed(f.in.feed))
	case f.in.source != nil:
		opts = append(opts, WithSource(f.in.source))
	}
	if f.out.sessionInfo != nil || f.out.telemetry != nil {
		opts = append(opts, WithSinkOpeners(f.out.sessionInfo, f.out.telemetry))
	}
	if f.out.obs != nil {
		opts = append(opts, WithObservability(f.out.obs))
	}
	if f.out.onException != nil {
		opts = append(opts, WithExceptionHandler(f.out.onException))
	}
	return append(opts, f.extra...), nil
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return func(f *Flow) {
		f.extra = appendRuntimeOptions(f.extra, opts...)
	}
}

// StreamInFeed drives the recorder from feed instead of the configured source.
func StreamInFeed(feed Feed) StreamInOption {
	return func(f *Flow) {
		if feed != nil {
			f.in.feed = feed
		}
	}
}

// StreamInSource attaches src without a feed. The caller signals the
// recorder returned by Runtime.Recorder.
func StreamInSource(src Source) StreamInOption {
	return func(f *Flow) {
		if src != nil {
			f.in.source = src
		}
	}
}

// StreamInReplay plays the script at path, overriding the configured source.
// speed 0 plays as fast as possible.
func StreamInReplay(path string, speed float64) StreamInOption {
	return func(f *Flow) {
		f.cfg.Source.Kind = SourceReplay
		f.cfg.Replay.Path = path
		f.cfg.Replay.Speed = &speed
	}
}

// StreamInObservability shares one observability backend with a custom feed.
func StreamInObservability(obs Observability) StreamInOption {
	return func(f *Flow) {
		if obs != nil {
			f.out.obs = obs
		}
	}
}

// StreamOutFiles moves the two change logs. An empty path keeps the
// configured one.
func StreamOutFiles(sessionInfoPath, telemetryPath string) StreamOutOption {
	return func(f *Flow) {
		if sessionInfoPath != "" {
			f.cfg.Recorder.SessionInfoPath = sessionInfoPath
		}
		if telemetryPath != "" {
			f.cfg.Recorder.TelemetryPath = telemetryPath
		}
	}
}

// StreamOutSinks replaces the change log of either loop. nil keeps the file.
func StreamOutSinks(sessionInfo, telemetry SinkOpener) StreamOutOption {
	return func(f *Flow) {
		if sessionInfo != nil {
			f.out.sessionInfo = sessionInfo
		}
		if telemetry != nil {
			f.out.telemetry = telemetry
		}
	}
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return func(f *Flow) {
		if obs != nil {
			f.out.obs = obs
		}
	}
}

// StreamOutCallback hands every batch of both loops to fn. No change-log
// file is written.
func StreamOutCallback(fn BatchFunc) StreamOutOption {
	return func(f *Flow) {
		f.out.sessionInfo = NewCallbackSink(LoopSessionInfo, fn)
		f.out.telemetry = NewCallbackSink(LoopTelemetry, fn)
	}
}

// StreamOutExceptionHandler receives a *LoopError when a loop dies.
func StreamOutExceptionHandler(fn func(error)) StreamOutOption {
	return func(f *Flow) {
		if fn != nil {
			f.out.onException = fn
		}
	}
}

func appendRuntimeOptions(dst []RuntimeOption, opts ...RuntimeOption) []RuntimeOption {
	for _, opt := range opts {
		if opt != nil {
			dst = append(dst, opt)
		}
	}
	return dst
}
