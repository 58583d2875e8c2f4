package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ghalamif/SimRecorder/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), reg)

	obs.IncCounter(ports.MetricTelemetryChanges, 5)
	if got := testutil.ToFloat64(obs.counters[ports.MetricTelemetryChanges]); got != 5 {
		t.Fatalf("expected telemetry changes 5, got %f", got)
	}

	obs.IncCounter(ports.MetricSessionInfoBatches, 2)
	if got := testutil.ToFloat64(obs.counters[ports.MetricSessionInfoBatches]); got != 2 {
		t.Fatalf("expected session info batches 2, got %f", got)
	}

	obs.SetGauge(ports.MetricChannelsIgnored, 42)
	if got := testutil.ToFloat64(obs.gauges[ports.MetricChannelsIgnored]); got != 42 {
		t.Fatalf("expected ignored gauge 42, got %f", got)
	}

	obs.ObserveLatency(ports.MetricTelemetryPoll, 0.001)
	hCollector := obs.histos[ports.MetricTelemetryPoll].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected poll histogram to record 1 sample, got %d", samples)
	}

	obs.IncCounter("unknown_metric", 1)
	obs.SetGauge("unknown_gauge", 1)
}

func TestPromObsLoopFailureLogs(t *testing.T) {
	var buf bytes.Buffer
	obs := NewPromObs(slog.New(slog.NewTextHandler(&buf, nil)), prometheus.NewRegistry())

	obs.RecordLoopFailure("telemetry", errors.New("disk full"))
	if got := testutil.ToFloat64(obs.counters[ports.MetricLoopFailures]); got != 1 {
		t.Fatalf("expected failure counter 1, got %f", got)
	}
	out := buf.String()
	if !strings.Contains(out, "recorder_loop_failed") || !strings.Contains(out, "loop=telemetry") || !strings.Contains(out, "disk full") {
		t.Fatalf("unexpected log output: %s", out)
	}

	buf.Reset()
	obs.LogError("ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("nil errors should not be logged, got %s", buf.String())
	}
}
