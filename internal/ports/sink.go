package ports

import "github.com/ghalamif/SimRecorder/internal/domain"

type Sink interface {
	// WriteBatch writes the whole batch with a single write. Empty batches
	// are ignored.
	WriteBatch(b *domain.Batch) error
	Close() error
	Name() string
}

// SinkOpener opens a fresh sink each time a recorder loop starts.
type SinkOpener func() (Sink, error)
