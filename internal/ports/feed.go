package ports

// Notifier receives source lifecycle and readiness events. The recorder
// implements it.
type Notifier interface {
	SetSource(src Source)
	SignalSessionInfoReady()
	SignalTelemetryReady()
}

// Feed drives a Notifier from some external data provider (OPC UA, replay
// scripts, simulators).
type Feed interface {
	Start(n Notifier) error
	Stop() error
}
