package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/SimRecorder/internal/ports"
)

type PromObs struct {
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the recorder metrics on reg (the default registerer
// when nil) and logs through logger (slog.Default when nil).
func NewPromObs(logger *slog.Logger, reg prometheus.Registerer) *PromObs {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
		})
	}

	sessionBatches := counter(ports.MetricSessionInfoBatches, "Session info batches flushed to the change log.")
	telemetryBatches := counter(ports.MetricTelemetryBatches, "Telemetry batches flushed to the change log.")
	sessionChanges := counter(ports.MetricSessionInfoChanges, "Session info leaves recorded as changed.")
	telemetryChanges := counter(ports.MetricTelemetryChanges, "Telemetry channel elements recorded as changed.")
	failures := counter(ports.MetricLoopFailures, "Recorder loops terminated by an error.")
	sessionPoll := histogram(ports.MetricSessionInfoPoll, "Duration of one session info diff and flush.")
	telemetryPoll := histogram(ports.MetricTelemetryPoll, "Duration of one telemetry diff and flush.")
	tracked := gauge(ports.MetricChannelsTracked, "Telemetry channels recorded on the current connection.")
	ignored := gauge(ports.MetricChannelsIgnored, "Telemetry channels ignored on the current connection.")
	sessionBytes := gauge(ports.MetricSessionInfoLogBytes, "Bytes written to the session info change log this run.")
	telemetryBytes := gauge(ports.MetricTelemetryLogBytes, "Bytes written to the telemetry change log this run.")

	reg.MustRegister(
		sessionBatches, telemetryBatches, sessionChanges, telemetryChanges, failures,
		sessionPoll, telemetryPoll, tracked, ignored, sessionBytes, telemetryBytes,
	)

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			ports.MetricSessionInfoBatches: sessionBatches,
			ports.MetricTelemetryBatches:   telemetryBatches,
			ports.MetricSessionInfoChanges: sessionChanges,
			ports.MetricTelemetryChanges:   telemetryChanges,
			ports.MetricLoopFailures:       failures,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricChannelsTracked:     tracked,
			ports.MetricChannelsIgnored:     ignored,
			ports.MetricSessionInfoLogBytes: sessionBytes,
			ports.MetricTelemetryLogBytes:   telemetryBytes,
		},
		histos: map[string]prometheus.Observer{
			ports.MetricSessionInfoPoll: sessionPoll,
			ports.MetricTelemetryPoll:   telemetryPoll,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.logger.Error(msg, append(attrs(fields), slog.Any("err", err))...)
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.logger.Error(msg, append(attrs(fields), slog.Bool("critical", true), slog.Any("err", err))...)
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordLoopFailure(loop string, err error) {
	p.IncCounter(ports.MetricLoopFailures, 1)
	p.LogCritical("recorder_loop_failed", err, ports.Field{Key: "loop", Value: loop})
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
