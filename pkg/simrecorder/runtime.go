package simrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/SimRecorder/internal/adapters/changelog"
	"github.com/ghalamif/SimRecorder/internal/adapters/observability"
	"github.com/ghalamif/SimRecorder/internal/adapters/opcua"
	"github.com/ghalamif/SimRecorder/internal/adapters/replay"
	"github.com/ghalamif/SimRecorder/internal/app/recorder"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	feed          Feed
	source        Source
	sessionSink   SinkOpener
	telemetrySink SinkOpener
	observability Observability
	logger        *slog.Logger
	registry      *prometheus.Registry
	onException   func(error)
}

// WithFeed injects a custom feed (simulator SDK bridge, network relay, etc.)
// in place of the one selected by source.kind.
func WithFeed(f Feed) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.feed = f
	}
}

// WithSource attaches a source directly. No feed is started; the caller
// signals the recorder returned by Runtime.Recorder.
func WithSource(src Source) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithSinkOpeners replaces the change-log files. A nil opener keeps the
// default for that loop.
func WithSinkOpeners(sessionInfo, telemetry SinkOpener) RuntimeOption {
	return func(o *runtimeOverrides) {
		if sessionInfo != nil {
			o.sessionSink = sessionInfo
		}
		if telemetry != nil {
			o.telemetrySink = telemetry
		}
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithLogger sets the base logger. Every record carries the run id.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.logger = l
	}
}

// WithRegistry registers the recorder metrics on reg and serves reg on
// /metrics.
func WithRegistry(reg *prometheus.Registry) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.registry = reg
	}
}

// WithExceptionHandler is called from the failing loop's goroutine whenever a
// loop terminates abnormally. It receives a *LoopError.
func WithExceptionHandler(fn func(error)) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.onException = fn
	}
}

// Runtime wires a feed, the recorder and its change logs, and exposes simple
// lifecycle hooks for embedding the recorder inside any Go service.
type Runtime struct {
	cfg         *Config
	runID       string
	logger      *slog.Logger
	obs         ports.Observability
	registry    *prometheus.Registry
	recorder    *recorder.Recorder
	feed        ports.Feed
	source      ports.Source
	onException func(error)

	mu          sync.Mutex
	started     bool
	metricsSrv  *http.Server
	metricsAddr string
}

// NewRuntime bootstraps the default adapters (replay or OPC UA feed,
// change-log files, Prometheus observability). Callers can use RuntimeOption
// values to override any dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	runID := uuid.NewString()
	logger := overrides.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)

	reg := overrides.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(logger, reg)
	}

	sessionSink := overrides.sessionSink
	if sessionSink == nil {
		sessionSink = changelog.Opener(recorder.LoopSessionInfo, cfg.Recorder.SessionInfoPath, cfg.Recorder.BufferSize)
	}
	telemetrySink := overrides.telemetrySink
	if telemetrySink == nil {
		telemetrySink = changelog.Opener(recorder.LoopTelemetry, cfg.Recorder.TelemetryPath, cfg.Recorder.BufferSize)
	}

	rt := &Runtime{
		cfg:         cfg,
		runID:       runID,
		logger:      logger,
		obs:         obs,
		registry:    reg,
		source:      overrides.source,
		feed:        overrides.feed,
		onException: overrides.onException,
	}

	rec, err := recorder.New(recorder.Config{
		SessionInfoSink: sessionSink,
		TelemetrySink:   telemetrySink,
		Policy:          cfg.Recorder.Policy,
		Observability:   obs,
		OnException:     rt.handleException,
	})
	if err != nil {
		return nil, err
	}
	rt.recorder = rec

	if rt.feed == nil && rt.source == nil {
		rt.feed, err = newFeed(cfg, obs)
		if err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func newFeed(cfg *Config, obs ports.Observability) (ports.Feed, error) {
	switch cfg.Source.Kind {
	case SourceReplay:
		script, err := replay.Load(cfg.Replay.Path)
		if err != nil {
			return nil, fmt.Errorf("load replay: %w", err)
		}
		return replay.NewPlayer(script, cfg.Replay.PlaybackSpeed()), nil
	case SourceOPCUA:
		f, err := opcua.NewFeed(cfg.OPCUA, obs)
		if err != nil {
			return nil, fmt.Errorf("opcua feed: %w", err)
		}
		return f, nil
	case SourceExternal:
		return nil, fmt.Errorf("source.kind %q needs WithFeed or WithSource", cfg.Source.Kind)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// Recorder exposes the underlying recorder, e.g. to signal it when the
// runtime was built WithSource.
func (rt *Runtime) Recorder() *Recorder { return rt.recorder }

// RunID identifies this runtime in logs.
func (rt *Runtime) RunID() string { return rt.runID }

// MetricsAddr is the address the metrics server listens on once started.
func (rt *Runtime) MetricsAddr() string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.metricsAddr
}

// Start opens the change logs, starts both loops and the feed, and launches
// the metrics server. It returns immediately; call Run to block on a context
// instead.
func (rt *Runtime) Start() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.started {
		return ErrAlreadyStarted
	}

	if err := rt.recorder.Start(); err != nil {
		return err
	}
	if rt.source != nil {
		rt.recorder.SetSource(rt.source)
	}
	if rt.feed != nil {
		if err := rt.feed.Start(rt.recorder); err != nil {
			_ = rt.recorder.Stop()
			return fmt.Errorf("start feed: %w", err)
		}
	}
	if err := rt.startMetrics(); err != nil {
		if rt.feed != nil {
			_ = rt.feed.Stop()
		}
		_ = rt.recorder.Stop()
		return fmt.Errorf("start metrics: %w", err)
	}

	rt.started = true
	rt.obs.LogInfo("runtime_started",
		ports.Field{Key: "source", Value: rt.cfg.Source.Kind},
		ports.Field{Key: "metrics_addr", Value: rt.metricsAddr})
	return nil
}

// Done is closed when the feed has nothing more to deliver, as a finished
// replay does. It is nil for feeds that run until stopped.
func (rt *Runtime) Done() <-chan struct{} {
	if f, ok := rt.feed.(interface{ Done() <-chan struct{} }); ok {
		return f.Done()
	}
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled
// or the feed finishes. A finished feed is flushed through both loops before
// the graceful shutdown.
func (rt *Runtime) Run(ctx context.Context) error {
	if err := rt.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-rt.Done():
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rt.recorder.Flush(flushCtx); err != nil {
			rt.obs.LogError("recorder_flush_failed", err)
		}
		cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rt.Shutdown(shutdownCtx)
}

// Shutdown stops the feed, the recorder and the metrics server. The recorder
// stop is bounded by ctx; on timeout the loops keep draining in the
// background.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.mu.Lock()
	if !rt.started {
		rt.mu.Unlock()
		return nil
	}
	rt.started = false
	srv := rt.metricsSrv
	rt.metricsSrv = nil
	rt.mu.Unlock()

	var errs []error

	if rt.feed != nil {
		if err := rt.feed.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop feed: %w", err))
		}
	}

	stopped := make(chan error, 1)
	go func() { stopped <- rt.recorder.Stop() }()
	select {
	case err := <-stopped:
		if err != nil && !errors.Is(err, ErrNotStarted) {
			errs = append(errs, err)
		}
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("recorder stop: %w", ctx.Err()))
	}

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	rt.obs.LogInfo("runtime_stopped")
	return errors.Join(errs...)
}

func (rt *Runtime) handleException(err error) {
	rt.obs.LogCritical("recorder_loop_terminated", err)
	if rt.onException != nil {
		rt.onException(err)
	}
}

func (rt *Runtime) startMetrics() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{Registry: rt.registry}))
	mux.HandleFunc("/healthz", rt.healthz)

	ln, err := net.Listen("tcp", rt.cfg.Metrics.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rt.metricsSrv = srv
	rt.metricsAddr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.obs.LogError("metrics_server_exited", err)
		}
	}()
	return nil
}

// healthz reports 503 once either loop has terminated.
func (rt *Runtime) healthz(w http.ResponseWriter, _ *http.Request) {
	session := rt.recorder.Running(recorder.LoopSessionInfo)
	telemetry := rt.recorder.Running(recorder.LoopTelemetry)
	if session && telemetry {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = fmt.Fprintf(w, "session_info=%t telemetry=%t", session, telemetry)
}
