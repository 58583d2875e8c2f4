package recorder

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ghalamif/SimRecorder/internal/domain"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

type pollFunc func(ref *sourceRef, b *domain.Batch) error

type loopMetrics struct {
	batches string
	changes string
	latency string
	bytes   string
}

var metricsByLoop = map[string]loopMetrics{
	LoopSessionInfo: {
		batches: ports.MetricSessionInfoBatches,
		changes: ports.MetricSessionInfoChanges,
		latency: ports.MetricSessionInfoPoll,
		bytes:   ports.MetricSessionInfoLogBytes,
	},
	LoopTelemetry: {
		batches: ports.MetricTelemetryBatches,
		changes: ports.MetricTelemetryChanges,
		latency: ports.MetricTelemetryPoll,
		bytes:   ports.MetricTelemetryLogBytes,
	},
}

type loop struct {
	name    string
	wake    chan struct{}
	flush   chan chan struct{}
	done    chan struct{}
	running atomic.Bool
	sink    ports.Sink
	poll    pollFunc
	metrics loopMetrics
}

func newLoop(name string, sink ports.Sink, poll pollFunc) *loop {
	l := &loop{
		name:    name,
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		done:    make(chan struct{}),
		sink:    sink,
		poll:    poll,
		metrics: metricsByLoop[name],
	}
	l.running.Store(true)
	return l
}

// signal leaves at most one pending wake.
func (l *loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

type byteCounter interface {
	BytesWritten() int64
}

func (r *Recorder) run(l *loop) {
	defer close(l.done)
	defer l.running.Store(false)

	err := r.serve(l)
	if err != nil {
		r.fail(l, err)
	}
	if cerr := l.sink.Close(); cerr != nil {
		if err == nil {
			r.fail(l, fmt.Errorf("close sink: %w", cerr))
		} else {
			r.obs.LogError("recorder_sink_close_failed", cerr, ports.Field{Key: "loop", Value: l.name})
		}
	}
}

func (r *Recorder) fail(l *loop, err error) {
	r.obs.RecordLoopFailure(l.name, err)
	if r.onException != nil {
		r.onException(&LoopError{Loop: l.name, Err: err})
	}
}

func (r *Recorder) serve(l *loop) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if perr, ok := p.(error); ok {
				err = fmt.Errorf("panic: %w", perr)
				return
			}
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	var batch domain.Batch
	for {
		var ack chan struct{}
		select {
		case <-l.wake:
		case ack = <-l.flush:
		}
		if r.stop.Load() {
			if ack != nil {
				close(ack)
			}
			return nil
		}
		err := r.pollOnce(l, &batch)
		if ack != nil {
			close(ack)
		}
		if err != nil {
			return err
		}
	}
}

func (r *Recorder) pollOnce(l *loop, batch *domain.Batch) error {
	start := time.Now()
	ref := r.source.Load()

	batch.Reset()
	if err := l.poll(ref, batch); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}

	batch.Stamp(ref.src.GetInt("SessionNum"), ref.src.GetDouble("SessionTime"))
	if err := l.sink.WriteBatch(batch); err != nil {
		return err
	}

	r.obs.IncCounter(l.metrics.batches, 1)
	r.obs.IncCounter(l.metrics.changes, float64(batch.Len()))
	r.obs.ObserveLatency(l.metrics.latency, time.Since(start).Seconds())
	if bc, ok := l.sink.(byteCounter); ok {
		r.obs.SetGauge(l.metrics.bytes, float64(bc.BytesWritten()))
	}
	return nil
}

func (r *Recorder) pollSessionInfo(ref *sourceRef, b *domain.Batch) error {
	if ref == nil {
		return nil
	}
	return r.sessionDiffer.Diff(ref.src.SessionInfo(), b)
}

func (r *Recorder) pollTelemetry(ref *sourceRef, b *domain.Batch) error {
	if ref != r.lastTelemetry {
		r.telemetryDiffer.Reset()
		r.lastTelemetry = ref
	}
	if ref == nil {
		return nil
	}

	wasCaptured := r.telemetryDiffer.Captured()
	if err := r.telemetryDiffer.Poll(ref.src, b); err != nil {
		return err
	}
	if captured := r.telemetryDiffer.Captured(); captured != wasCaptured {
		stats := r.telemetryDiffer.Stats()
		r.obs.SetGauge(ports.MetricChannelsTracked, float64(stats.Tracked))
		r.obs.SetGauge(ports.MetricChannelsIgnored, float64(stats.Ignored))
		if captured {
			r.obs.LogInfo("telemetry_catalog_captured",
				ports.Field{Key: "tracked", Value: stats.Tracked},
				ports.Field{Key: "ignored", Value: stats.Ignored},
				ports.Field{Key: "throttled", Value: stats.Throttled})
		}
	}
	return nil
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)           {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) LogCritical(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)                {}
func (nopObs) ObserveLatency(string, float64)            {}
func (nopObs) SetGauge(string, float64)                  {}
func (nopObs) RecordLoopFailure(string, error)           {}
