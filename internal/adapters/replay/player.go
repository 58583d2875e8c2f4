package replay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ghalamif/SimRecorder/internal/adapters/memsource"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

var ErrAlreadyPlaying = errors.New("replay already started")

// Player applies script frames to an in-memory source at the script tick
// rate scaled by speed. A speed of zero or less plays as fast as possible.
type Player struct {
	script *Script
	speed  float64

	mu      sync.Mutex
	src     *memsource.Source
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func NewPlayer(script *Script, speed float64) *Player {
	return &Player{script: script, speed: speed}
}

// Source returns the source of the current or last playback.
func (p *Player) Source() *memsource.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

// Done is closed when the current playback reaches the end of the script or
// is stopped. It is nil before the first Start.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Start plays the script from the beginning into a fresh source.
func (p *Player) Start(n ports.Notifier) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrAlreadyPlaying
	}

	src := memsource.New(p.script.TickRate)
	for _, desc := range p.script.Channels {
		src.DefineChannel(desc)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.src = src
	p.cancel = cancel
	p.done = done
	p.started = true

	go p.play(ctx, src, n, done)
	return nil
}

// Stop halts playback and waits for the player goroutine. The source keeps
// its last state.
func (p *Player) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	cancel, done := p.cancel, p.done
	p.started = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (p *Player) play(ctx context.Context, src *memsource.Source, n ports.Notifier, done chan struct{}) {
	defer close(done)

	interval := p.tickInterval()
	connected := false
	for i, fr := range p.script.Frames {
		if delta := fr.Tick - src.TickCount(); delta > 0 && i > 0 {
			if !sleep(ctx, time.Duration(delta)*interval) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		src.SetTickCount(fr.Tick)
		for _, a := range fr.Values {
			src.Set(a.Channel, a.Values...)
		}
		if fr.SessionInfo != nil {
			src.SetSessionInfo(fr.SessionInfo)
		}

		want := connected
		switch {
		case fr.Connected != nil:
			want = *fr.Connected
		case i == 0:
			want = true
		}
		reconnected := false
		if want != connected {
			src.SetConnected(want)
			if want {
				n.SetSource(src)
				reconnected = true
			} else {
				n.SetSource(nil)
			}
			connected = want
		}
		if !connected {
			continue
		}

		if fr.SessionInfo != nil || (reconnected && src.SessionInfo() != nil) {
			n.SignalSessionInfoReady()
		}
		n.SignalTelemetryReady()

		for r := 0; r < fr.Repeat; r++ {
			if !sleep(ctx, interval) {
				return
			}
			src.AdvanceTick(1)
			n.SignalTelemetryReady()
		}
	}
}

func (p *Player) tickInterval() time.Duration {
	if p.speed <= 0 || p.script.TickRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(p.script.TickRate) / p.speed)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var _ ports.Feed = (*Player)(nil)
