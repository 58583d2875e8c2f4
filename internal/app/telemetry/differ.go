// Package telemetry diffs the flat channel catalog of a telemetry source
// against the values last recorded for each channel element.
package telemetry

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ghalamif/SimRecorder/internal/domain"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

// ErrShapeMismatch is returned when the source reports a value whose type
// differs from the type declared in its channel catalog.
var ErrShapeMismatch = errors.New("telemetry shape mismatch")

// Classifier decides from a channel name alone whether the channel is
// recorded and how often.
type Classifier struct {
	ignored  map[string]struct{}
	throttle map[string]int
}

// NewClassifier builds the static tables and applies the policy additions.
func NewClassifier(pol ports.Policy) *Classifier {
	c := &Classifier{
		ignored:  make(map[string]struct{}, len(defaultIgnored)+len(pol.Ignore)),
		throttle: make(map[string]int, len(defaultThrottle)+len(pol.Throttle)),
	}
	for _, name := range defaultIgnored {
		c.ignored[name] = struct{}{}
	}
	for _, name := range pol.Ignore {
		c.ignored[name] = struct{}{}
	}
	for name, secs := range defaultThrottle {
		c.throttle[name] = secs
	}
	for name, secs := range pol.Throttle {
		c.throttle[name] = secs
	}
	return c
}

func (c *Classifier) Ignored(name string) bool {
	_, ok := c.ignored[name]
	return ok
}

// ThrottleSeconds returns 0 for channels checked on every poll.
func (c *Classifier) ThrottleSeconds(name string) int {
	return c.throttle[name]
}

type channel struct {
	desc            domain.ChannelDesc
	values          []domain.Value
	ignored         bool
	throttleSeconds int

	recorded     bool
	lastRecorded int
}

func newChannel(desc domain.ChannelDesc, c *Classifier) *channel {
	count := desc.Count
	if count < 0 {
		count = 0
	}
	ch := &channel{
		desc:            desc,
		values:          make([]domain.Value, count),
		ignored:         c.Ignored(desc.Name),
		throttleSeconds: c.ThrottleSeconds(desc.Name),
	}
	zero := domain.Zero(desc.Type)
	for i := range ch.values {
		ch.values[i] = zero
	}
	return ch
}

// due applies the time gate. A counter that went backwards re-opens the gate.
func (ch *channel) due(tick, rate int) bool {
	if ch.throttleSeconds <= 0 || !ch.recorded || tick < ch.lastRecorded {
		return true
	}
	return tick-ch.lastRecorded >= ch.throttleSeconds*rate
}

// Stats summarises the captured catalog.
type Stats struct {
	Tracked   int
	Ignored   int
	Throttled int
}

// Differ owns the retained channel catalog of one connection. It is not safe
// for concurrent use; one recorder loop owns it.
type Differ struct {
	classifier *Classifier
	channels   []*channel
	captured   bool
}

func NewDiffer(c *Classifier) *Differ {
	if c == nil {
		c = NewClassifier(ports.Policy{})
	}
	return &Differ{classifier: c}
}

// Reset discards the catalog together with all throttle state. The next
// connected poll captures a fresh one.
func (d *Differ) Reset() {
	d.channels = nil
	d.captured = false
}

func (d *Differ) Captured() bool { return d.captured }

func (d *Differ) Stats() Stats {
	var s Stats
	for _, ch := range d.channels {
		switch {
		case ch.ignored:
			s.Ignored++
		case ch.throttleSeconds > 0:
			s.Throttled++
		}
	}
	s.Tracked = len(d.channels) - s.Ignored
	return s
}

// Poll compares every eligible channel element against its retained value
// and appends one record per changed element to b. A disconnected source
// resets the catalog and records nothing.
func (d *Differ) Poll(src ports.Source, b *domain.Batch) error {
	if !src.IsConnected() {
		d.Reset()
		return nil
	}
	if !d.captured {
		d.capture(src.Channels())
		if !d.captured {
			return nil
		}
	}

	tick, rate := src.TickCount(), src.TickRate()
	for _, ch := range d.channels {
		if ch.ignored || !ch.due(tick, rate) {
			continue
		}
		for i := range ch.values {
			v, ok := src.Lookup(ch.desc.Name, i)
			if !ok {
				continue
			}
			if v.Type != ch.desc.Type {
				return fmt.Errorf("%w: %s[%d] declared %s, got %s", ErrShapeMismatch, ch.desc.Name, i, ch.desc.Type, v.Type)
			}
			if v.Equal(ch.values[i]) {
				continue
			}
			ch.values[i] = v
			ch.recorded = true
			ch.lastRecorded = tick
			b.Add(ch.desc.Name+"["+strconv.Itoa(i)+"]", v.String())
		}
	}
	return nil
}

func (d *Differ) capture(descs []domain.ChannelDesc) {
	if len(descs) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(descs))
	d.channels = make([]*channel, 0, len(descs))
	for _, desc := range descs {
		if _, dup := seen[desc.Name]; dup {
			continue
		}
		seen[desc.Name] = struct{}{}
		d.channels = append(d.channels, newChannel(desc, d.classifier))
	}
	d.captured = true
}
