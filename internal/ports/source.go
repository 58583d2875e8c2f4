package ports

import "github.com/ghalamif/SimRecorder/internal/domain"

// Source is the live telemetry provider consumed by the recorder. All
// methods must be safe to call while the provider is updating; values read
// within one poll are not required to be mutually consistent.
type Source interface {
	IsConnected() bool

	TickRate() int
	// TickCount is monotonic for the lifetime of a connection.
	TickCount() int

	GetInt(name string) int
	GetDouble(name string) float64

	// SessionInfo returns nil until session info has been published.
	SessionInfo() *domain.Record

	Channels() []domain.ChannelDesc
	// Lookup reports false when the channel or element is not currently
	// published, e.g. while the provider rebuilds its catalog.
	Lookup(name string, index int) (domain.Value, bool)
}
