package simrecorder

import (
	"github.com/ghalamif/SimRecorder/internal/app/recorder"
	"github.com/ghalamif/SimRecorder/internal/domain"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

// Recorder owns the session-info and telemetry loops.
type Recorder = recorder.Recorder

// LoopError is passed to the exception handler when a loop terminates.
type LoopError = recorder.LoopError

var (
	ErrAlreadyStarted = recorder.ErrAlreadyStarted
	ErrNotStarted     = recorder.ErrNotStarted
)

const (
	LoopSessionInfo = recorder.LoopSessionInfo
	LoopTelemetry   = recorder.LoopTelemetry
)

// Source is the live telemetry provider polled by both loops.
type Source = ports.Source

// Feed drives a Notifier from an external data provider.
type Feed = ports.Feed

// Notifier receives source swaps and readiness signals.
type Notifier = ports.Notifier

// Sink persists one batch per loop pass.
type Sink = ports.Sink

// SinkOpener creates a fresh sink on every recorder start.
type SinkOpener = ports.SinkOpener

// Observability emits logs and metrics about both loops.
type Observability = ports.Observability

// Field is a structured log/metric field used by Observability implementations.
type Field = ports.Field

type (
	Batch        = domain.Batch
	ChangeRecord = domain.ChangeRecord
	ChannelDesc  = domain.ChannelDesc
	Value        = domain.Value
	VarType      = domain.VarType
	Node         = domain.Node
	Record       = domain.Record
	List         = domain.List
	Scalar       = domain.Scalar
)
