package simrecorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ghalamif/SimRecorder/internal/adapters/memsource"
	"github.com/ghalamif/SimRecorder/internal/domain"
)

// stubFeed attaches a fixed source on Start and signals both loops once.
type stubFeed struct {
	src     *memsource.Source
	started bool
	stopped bool
}

func (f *stubFeed) Start(n Notifier) error {
	f.started = true
	n.SetSource(f.src)
	n.SignalSessionInfoReady()
	n.SignalTelemetryReady()
	return nil
}

func (f *stubFeed) Stop() error {
	f.stopped = true
	return nil
}

type stubObservability struct{}

func (s *stubObservability) LogInfo(string, ...Field)            {}
func (s *stubObservability) LogError(string, error, ...Field)    {}
func (s *stubObservability) LogCritical(string, error, ...Field) {}
func (s *stubObservability) IncCounter(string, float64)          {}
func (s *stubObservability) ObserveLatency(string, float64)      {}
func (s *stubObservability) SetGauge(string, float64)            {}
func (s *stubObservability) RecordLoopFailure(string, error)     {}

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := replayConfig(t, singleFrame)

	flow, err := ConfFromConfig(cfg, WithFlowOptions(WithLogger(quietLogger())))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected flow to keep the provided config")
	}

	feed := &stubFeed{src: memsource.New(60)}
	obs := &stubObservability{}
	rt, err := flow.
		StreamIN(StreamInFeed(feed)).
		StreamOUT(StreamOutObservability(obs))
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if rt.feed != feed {
		t.Fatalf("expected custom feed to be wired")
	}
	if rt.obs != obs {
		t.Fatalf("expected custom observability to be wired")
	}

	if _, err := ConfFromConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	var nilFlow *Flow
	if _, err := nilFlow.StreamOUT(); err == nil {
		t.Fatalf("expected error for nil flow")
	}
}

func TestFlowRunWithCallback(t *testing.T) {
	cfg := replayConfig(t, singleFrame)
	dir := t.TempDir()
	path := filepath.Join(dir, "recorder.yaml")
	raw := "recorder:\n" +
		"  session_info_path: " + cfg.Recorder.SessionInfoPath + "\n" +
		"  telemetry_path: " + cfg.Recorder.TelemetryPath + "\n" +
		"metrics:\n  addr: 127.0.0.1:0\n" +
		"source:\n  kind: replay\n" +
		"replay:\n  path: " + cfg.Replay.Path + "\n  speed: 0\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flow, err := Conf(path, WithFlowOptions(WithLogger(quietLogger())))
	if err != nil {
		t.Fatalf("Conf returned error: %v", err)
	}

	var mu sync.Mutex
	got := map[string][]Batch{}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = flow.Run(ctx, StreamOutCallback(func(sink string, b Batch) error {
		mu.Lock()
		defer mu.Unlock()
		got[sink] = append(got[sink], b)
		return nil
	}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got[LoopSessionInfo]) != 1 {
		t.Fatalf("expected one session info batch, got %+v", got[LoopSessionInfo])
	}
	if len(got[LoopTelemetry]) != 1 {
		t.Fatalf("expected one telemetry batch, got %+v", got[LoopTelemetry])
	}
	tel := got[LoopTelemetry][0]
	if tel.SessionNum != 0 || tel.SessionTime != 12.5 {
		t.Fatalf("unexpected batch stamp %d:%v", tel.SessionNum, tel.SessionTime)
	}
	want := []ChangeRecord{{Path: "FuelLevel[0]", Value: "41.5"}, {Path: "TireSetsUsed[0]", Value: "1"}}
	if len(tel.Records) != len(want) {
		t.Fatalf("unexpected records %+v", tel.Records)
	}
	for i := range want {
		if tel.Records[i] != want[i] {
			t.Fatalf("record %d: got %+v, want %+v", i, tel.Records[i], want[i])
		}
	}

	if _, err := os.Stat(cfg.Recorder.TelemetryPath); !os.IsNotExist(err) {
		t.Fatalf("callback sinks should replace the change-log files, stat err = %v", err)
	}
}

func TestFlowRunStopsOnCancel(t *testing.T) {
	cfg := replayConfig(t, singleFrame)
	flow, err := ConfFromConfig(cfg, WithFlowOptions(WithLogger(quietLogger())))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	src := memsource.New(60)
	src.SetConnected(true)
	src.Set("PitsOpen", domain.Bool(true))
	feed := &stubFeed{src: src}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := flow.StreamIN(StreamInFeed(feed)).Run(ctx, StreamOutCallback(func(string, Batch) error { return nil })); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
	if !feed.started || !feed.stopped {
		t.Fatalf("expected feed to be started and stopped, got %+v", feed)
	}
}

func TestFlowRejectsFeedAndSource(t *testing.T) {
	cfg := replayConfig(t, singleFrame)
	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	_, err = flow.
		StreamIN(StreamInFeed(&stubFeed{src: memsource.New(60)}), StreamInSource(memsource.New(60))).
		StreamOUT()
	if !errors.Is(err, errFeedAndSource) {
		t.Fatalf("expected errFeedAndSource, got %v", err)
	}
}

func TestFlowReplayAndFileOverrides(t *testing.T) {
	scripted := replayConfig(t, singleFrame)
	cfg := replayConfig(t, singleFrame)
	cfg.Replay.Path = filepath.Join(t.TempDir(), "missing.yaml")

	dir := t.TempDir()
	telemetryPath := filepath.Join(dir, "telemetry.log")

	flow, err := ConfFromConfig(cfg, WithFlowOptions(WithLogger(quietLogger())))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = flow.
		StreamIN(StreamInReplay(scripted.Replay.Path, 0)).
		Run(ctx, StreamOutFiles("", telemetryPath))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if cfg.Replay.Path != scripted.Replay.Path || cfg.Replay.PlaybackSpeed() != 0 {
		t.Fatalf("replay override not applied: %+v", cfg.Replay)
	}
	raw, err := os.ReadFile(telemetryPath)
	if err != nil {
		t.Fatalf("read telemetry log: %v", err)
	}
	if want := "\nSessionTime = 0:12.5000\nFuelLevel[0] = 41.5\nTireSetsUsed[0] = 1\n"; string(raw) != want {
		t.Fatalf("unexpected telemetry log %q", raw)
	}
	if _, err := os.Stat(cfg.Recorder.SessionInfoPath); err != nil {
		t.Fatalf("session info log should stay at its configured path: %v", err)
	}
}
