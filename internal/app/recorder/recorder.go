// Package recorder runs the session-info and telemetry change loops.
//
// Each loop sleeps on a single-slot wake signal. A wake makes the loop load
// the current source once, diff it against the state retained from earlier
// polls and flush any changes as one batch. Bursts of wakes collapse into a
// single pass because every pass re-reads the current state.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ghalamif/SimRecorder/internal/app/sessioninfo"
	"github.com/ghalamif/SimRecorder/internal/app/telemetry"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

var (
	ErrAlreadyStarted = errors.New("recorder has already been started")
	ErrNotStarted     = errors.New("recorder has not been started")
)

const (
	LoopSessionInfo = "session_info"
	LoopTelemetry   = "telemetry"
)

// LoopError is passed to the exception handler when a loop terminates
// abnormally.
type LoopError struct {
	Loop string
	Err  error
}

func (e *LoopError) Error() string { return fmt.Sprintf("%s loop: %v", e.Loop, e.Err) }

func (e *LoopError) Unwrap() error { return e.Err }

// Config wires a Recorder. Both sink openers are required.
type Config struct {
	SessionInfoSink ports.SinkOpener
	TelemetrySink   ports.SinkOpener
	Policy          ports.Policy
	Observability   ports.Observability
	// OnException is called from the failing loop's goroutine. It must not
	// call Stop synchronously.
	OnException func(error)
}

// sourceRef boxes the shared source so it can be swapped atomically. Every
// SetSource call allocates a new box, which is how the telemetry loop
// notices a reconnect.
type sourceRef struct {
	src ports.Source
}

type Recorder struct {
	mu      sync.Mutex
	started bool
	stop    atomic.Bool
	source  atomic.Pointer[sourceRef]

	sessionLoop   atomic.Pointer[loop]
	telemetryLoop atomic.Pointer[loop]

	openSessionSink   ports.SinkOpener
	openTelemetrySink ports.SinkOpener
	obs               ports.Observability
	onException       func(error)

	sessionDiffer   *sessioninfo.Differ
	telemetryDiffer *telemetry.Differ
	lastTelemetry   *sourceRef
}

func New(cfg Config) (*Recorder, error) {
	if cfg.SessionInfoSink == nil || cfg.TelemetrySink == nil {
		return nil, fmt.Errorf("recorder: both sink openers are required")
	}
	obs := cfg.Observability
	if obs == nil {
		obs = nopObs{}
	}
	return &Recorder{
		openSessionSink:   cfg.SessionInfoSink,
		openTelemetrySink: cfg.TelemetrySink,
		obs:               obs,
		onException:       cfg.OnException,
		sessionDiffer:     sessioninfo.NewDiffer(),
		telemetryDiffer:   telemetry.NewDiffer(telemetry.NewClassifier(cfg.Policy)),
	}, nil
}

// SetSource swaps the shared source. nil means no source is attached. Safe
// to call at any time, including while loops are polling.
func (r *Recorder) SetSource(src ports.Source) {
	if src == nil {
		r.source.Store(nil)
		return
	}
	r.source.Store(&sourceRef{src: src})
}

func (r *Recorder) SignalSessionInfoReady() {
	if l := r.sessionLoop.Load(); l != nil {
		l.signal()
	}
}

func (r *Recorder) SignalTelemetryReady() {
	if l := r.telemetryLoop.Load(); l != nil {
		l.signal()
	}
}

// Start opens both sinks and launches both loops. It does not block.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrAlreadyStarted
	}

	sessionSink, err := r.openSessionSink()
	if err != nil {
		return fmt.Errorf("open session info sink: %w", err)
	}
	telemetrySink, err := r.openTelemetrySink()
	if err != nil {
		_ = sessionSink.Close()
		return fmt.Errorf("open telemetry sink: %w", err)
	}

	r.sessionDiffer.Reset()
	r.telemetryDiffer.Reset()
	r.lastTelemetry = nil
	r.stop.Store(false)

	sl := newLoop(LoopSessionInfo, sessionSink, r.pollSessionInfo)
	tl := newLoop(LoopTelemetry, telemetrySink, r.pollTelemetry)
	r.sessionLoop.Store(sl)
	r.telemetryLoop.Store(tl)
	r.started = true

	go r.run(sl)
	go r.run(tl)

	r.obs.LogInfo("recorder_started",
		ports.Field{Key: "session_info_sink", Value: sessionSink.Name()},
		ports.Field{Key: "telemetry_sink", Value: telemetrySink.Name()})
	return nil
}

// Stop raises the stop flag, wakes both loops and blocks until both have
// exited. There is no timeout: a poll that never returns blocks Stop.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return ErrNotStarted
	}

	r.stop.Store(true)

	sl, tl := r.sessionLoop.Load(), r.telemetryLoop.Load()
	for _, l := range []*loop{sl, tl} {
		l.signal()
	}
	for _, l := range []*loop{sl, tl} {
		<-l.done
	}

	r.sessionLoop.Store(nil)
	r.telemetryLoop.Store(nil)
	r.started = false

	r.obs.LogInfo("recorder_stopped")
	return nil
}

// Flush runs one pass of each live loop against the current source state and
// waits for it to finish. A loop that has terminated is skipped.
func (r *Recorder) Flush(ctx context.Context) error {
	sl, tl := r.sessionLoop.Load(), r.telemetryLoop.Load()
	if sl == nil || tl == nil {
		return ErrNotStarted
	}
	for _, l := range []*loop{sl, tl} {
		ack := make(chan struct{})
		select {
		case l.flush <- ack:
		case <-l.done:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-ack:
		case <-l.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Running reports whether the named loop is currently running.
func (r *Recorder) Running(name string) bool {
	var l *loop
	switch name {
	case LoopSessionInfo:
		l = r.sessionLoop.Load()
	case LoopTelemetry:
		l = r.telemetryLoop.Load()
	}
	return l != nil && l.running.Load()
}

// Started reports whether Start has been called without a matching Stop.
func (r *Recorder) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

var _ ports.Notifier = (*Recorder)(nil)
