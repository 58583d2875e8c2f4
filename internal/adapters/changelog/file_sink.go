package changelog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghalamif/SimRecorder/internal/domain"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

const DefaultBufferSize = 1 << 20

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("changelog: sink closed")

// FileSink appends rendered batches to a text file that is truncated when
// the sink is opened. Output is buffered and flushed on Close.
type FileSink struct {
	mu     sync.Mutex
	name   string
	path   string
	file   *os.File
	writer *bufio.Writer
	buf    []byte
	bytes  int64
}

func Open(name, path string, bufferSize int) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("changelog %s: empty path", name)
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		name:   name,
		path:   path,
		file:   f,
		writer: bufio.NewWriterSize(f, bufferSize),
	}, nil
}

// Opener returns a ports.SinkOpener that truncates path on every loop start.
func Opener(name, path string, bufferSize int) ports.SinkOpener {
	return func() (ports.Sink, error) {
		return Open(name, path, bufferSize)
	}
}

func (s *FileSink) Name() string { return s.name }

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) WriteBatch(b *domain.Batch) error {
	if b == nil || b.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ErrClosed
	}

	if need := b.TextSize(); cap(s.buf) < need {
		s.buf = make([]byte, 0, need)
	}
	s.buf = b.AppendText(s.buf[:0])

	n, err := s.writer.Write(s.buf)
	s.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("changelog %s: write: %w", s.name, err)
	}
	return nil
}

// BytesWritten counts bytes accepted by the buffer, flushed or not.
func (s *FileSink) BytesWritten() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Flush pushes buffered output to the file without closing it.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ErrClosed
	}
	return s.writer.Flush()
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := errors.Join(s.writer.Flush(), s.file.Close())
	s.file = nil
	s.writer = nil
	return err
}

var _ ports.Sink = (*FileSink)(nil)
