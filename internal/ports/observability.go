package ports

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	RecordLoopFailure(loop string, err error)
}

type Field struct {
	Key   string
	Value any
}

// Metric names understood by the Prometheus adapter.
const (
	MetricSessionInfoBatches  = "recorder_session_info_batches_total"
	MetricTelemetryBatches    = "recorder_telemetry_batches_total"
	MetricSessionInfoChanges  = "recorder_session_info_changes_total"
	MetricTelemetryChanges    = "recorder_telemetry_changes_total"
	MetricLoopFailures        = "recorder_loop_failures_total"
	MetricSessionInfoPoll     = "recorder_session_info_poll_seconds"
	MetricTelemetryPoll       = "recorder_telemetry_poll_seconds"
	MetricChannelsTracked     = "recorder_telemetry_channels_tracked"
	MetricChannelsIgnored     = "recorder_telemetry_channels_ignored"
	MetricSessionInfoLogBytes = "recorder_session_info_log_bytes"
	MetricTelemetryLogBytes   = "recorder_telemetry_log_bytes"
)
