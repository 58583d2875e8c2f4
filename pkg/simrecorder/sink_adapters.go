package simrecorder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/SimRecorder/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("simrecorder: channel sink closed")

// BatchFunc receives a copy of every flushed batch together with the name of
// the sink that produced it.
type BatchFunc func(sink string, batch Batch) error

// NewCallbackSink adapts a BatchFunc into a SinkOpener so callers can plug
// arbitrary functions without defining structs.
func NewCallbackSink(name string, fn BatchFunc) SinkOpener {
	if name == "" {
		name = "callback"
	}
	return func() (Sink, error) {
		return &callbackSink{name: name, fn: fn}, nil
	}
}

// NewChannelSink exposes batches via a channel; it returns the opener, the
// read-only channel, and a close function that the caller should invoke
// during shutdown. Closing the recorder's sink does not close the channel.
func NewChannelSink(name string, buffer int) (SinkOpener, <-chan Batch, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Batch, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	opener := func() (Sink, error) { return s, nil }
	return opener, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   BatchFunc
}

func (s *callbackSink) WriteBatch(b *domain.Batch) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if b.Empty() {
		return nil
	}
	return s.fn(s.name, copyBatch(b))
}

func (s *callbackSink) Close() error { return nil }

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan Batch
	closed chan struct{}
	once   sync.Once

	// sending is held for reading while a batch is in flight so that close
	// never closes ch under a sender.
	sending sync.RWMutex
}

func (s *channelSink) WriteBatch(b *domain.Batch) error {
	s.sending.RLock()
	defer s.sending.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if b.Empty() {
		return nil
	}

	batch := copyBatch(b)

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- batch:
		return nil
	}
}

func (s *channelSink) Close() error { return nil }

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.sending.Lock()
		close(s.ch)
		s.sending.Unlock()
	})
}

// copyBatch detaches b from the recorder, which reuses its batch between
// passes.
func copyBatch(b *domain.Batch) Batch {
	out := Batch{SessionNum: b.SessionNum, SessionTime: b.SessionTime}
	if len(b.Records) > 0 {
		out.Records = make([]ChangeRecord, len(b.Records))
		copy(out.Records, b.Records)
	}
	return out
}
