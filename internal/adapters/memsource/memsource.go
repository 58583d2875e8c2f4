package memsource

import (
	"sync"

	"github.com/ghalamif/SimRecorder/internal/domain"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

// Source is a mutex-guarded in-memory telemetry source. Feeds write into it
// while recorder loops read from it.
type Source struct {
	mu        sync.RWMutex
	connected bool
	tickRate  int
	tickCount int
	session   *domain.Record
	channels  []domain.ChannelDesc
	index     map[string]int
	values    map[string][]domain.Value
}

func New(tickRate int) *Source {
	return &Source{
		tickRate: tickRate,
		index:    make(map[string]int),
		values:   make(map[string][]domain.Value),
	}
}

func (s *Source) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

func (s *Source) SetTickRate(rate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickRate = rate
}

func (s *Source) SetTickCount(tick int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickCount = tick
}

// AdvanceTick adds n to the tick counter and returns the new count.
func (s *Source) AdvanceTick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickCount += n
	return s.tickCount
}

func (s *Source) SetSessionInfo(doc *domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = doc
}

// DefineChannel adds desc to the catalog, or redefines an existing channel
// in place. Values are reset to the zero of the declared type.
func (s *Source) DefineChannel(desc domain.ChannelDesc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defineLocked(desc)
}

func (s *Source) defineLocked(desc domain.ChannelDesc) {
	if i, ok := s.index[desc.Name]; ok {
		s.channels[i] = desc
	} else {
		s.index[desc.Name] = len(s.channels)
		s.channels = append(s.channels, desc)
	}
	count := desc.Count
	if count < 0 {
		count = 0
	}
	vals := make([]domain.Value, count)
	for i := range vals {
		vals[i] = domain.Zero(desc.Type)
	}
	s.values[desc.Name] = vals
}

// ClearChannels empties the catalog, as a source does between connections.
func (s *Source) ClearChannels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = nil
	s.index = make(map[string]int)
	s.values = make(map[string][]domain.Value)
}

// Set stores vals starting at element 0. An unknown channel is defined from
// the type of the first value and the number of values.
func (s *Source) Set(name string, vals ...domain.Value) {
	if len(vals) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[name]; !ok {
		s.defineLocked(domain.ChannelDesc{Name: name, Type: vals[0].Type, Count: len(vals)})
	}
	dst := s.values[name]
	copy(dst, vals)
}

// SetAt stores a single element; out of range indexes are ignored.
func (s *Source) SetAt(name string, index int, v domain.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dst, ok := s.values[name]
	if !ok || index < 0 || index >= len(dst) {
		return
	}
	dst[index] = v
}

func (s *Source) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Source) TickRate() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickRate
}

func (s *Source) TickCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickCount
}

func (s *Source) GetInt(name string) int {
	return int(s.Value(name, 0).AsInt())
}

func (s *Source) GetDouble(name string) float64 {
	return s.Value(name, 0).AsFloat()
}

func (s *Source) SessionInfo() *domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Source) Channels() []domain.ChannelDesc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChannelDesc, len(s.channels))
	copy(out, s.channels)
	return out
}

// Value returns the zero Value of the declared type for out of range
// indexes, and a zero char for unknown channels.
func (s *Source) Value(name string, index int) domain.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vals, ok := s.values[name]
	if !ok {
		return domain.Value{}
	}
	if index < 0 || index >= len(vals) {
		return domain.Zero(s.channels[s.index[name]].Type)
	}
	return vals[index]
}

func (s *Source) Lookup(name string, index int) (domain.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vals, ok := s.values[name]
	if !ok || index < 0 || index >= len(vals) {
		return domain.Value{}, false
	}
	return vals[index], true
}

var _ ports.Source = (*Source)(nil)
