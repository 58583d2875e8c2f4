package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
replay:
  path: ./data/replay.yaml
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Recorder.SessionInfoPath != "./data/SessionInfo.txt" {
		t.Fatalf("expected default session info path, got %s", cfg.Recorder.SessionInfoPath)
	}
	if cfg.Recorder.TelemetryPath != "./data/TelemetryData.txt" {
		t.Fatalf("expected default telemetry path, got %s", cfg.Recorder.TelemetryPath)
	}
	if cfg.Recorder.BufferSize != 1<<20 {
		t.Fatalf("expected BufferSize default 1MiB, got %d", cfg.Recorder.BufferSize)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Source.Kind != SourceReplay {
		t.Fatalf("expected default source kind replay, got %s", cfg.Source.Kind)
	}
	if cfg.Replay.PlaybackSpeed() != 1 {
		t.Fatalf("expected default replay speed 1, got %v", cfg.Replay.PlaybackSpeed())
	}
}

func TestParseRecorderPolicyAndOPCUA(t *testing.T) {
	data := `
recorder:
  telemetry_path: /tmp/telemetry.txt
  buffer_size: 4096
  ignore: [LapDistPct]
  throttle:
    AirTemp: 30
source:
  kind: opcua
opcua:
  endpoint: opc.tcp://localhost:4840
  publish_interval: 100ms
  nodes:
    - node_id: "ns=2;s=Sim.FuelLevel"
      type: float
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Recorder.BufferSize != 4096 {
		t.Fatalf("expected buffer size 4096, got %d", cfg.Recorder.BufferSize)
	}
	if len(cfg.Recorder.Ignore) != 1 || cfg.Recorder.Ignore[0] != "LapDistPct" {
		t.Fatalf("unexpected ignore list %v", cfg.Recorder.Ignore)
	}
	if cfg.Recorder.Throttle["AirTemp"] != 30 {
		t.Fatalf("expected AirTemp throttle 30, got %d", cfg.Recorder.Throttle["AirTemp"])
	}
	if cfg.OPCUA.PublishInterval != 100*time.Millisecond {
		t.Fatalf("expected publish interval 100ms, got %s", cfg.OPCUA.PublishInterval)
	}
	if cfg.OPCUA.Nodes[0].Channel != "FuelLevel" {
		t.Fatalf("expected channel fallback to node identifier, got %s", cfg.OPCUA.Nodes[0].Channel)
	}
	if cfg.Replay.Path != "" {
		t.Fatalf("replay path should stay empty for opcua, got %s", cfg.Replay.Path)
	}
}

func TestParseZeroSpeedMeansUnpaced(t *testing.T) {
	cfg, err := Parse([]byte("replay:\n  path: r.yaml\n  speed: 0\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Replay.PlaybackSpeed() != 0 {
		t.Fatalf("expected speed 0, got %v", cfg.Replay.PlaybackSpeed())
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]struct {
		data string
		want string
	}{
		"unknown kind":      {"source:\n  kind: shm\n", "unknown source.kind"},
		"missing replay":    {"source:\n  kind: replay\n", "replay.path"},
		"negative speed":    {"replay:\n  path: r.yaml\n  speed: -1\n", "replay.speed"},
		"negative throttle": {"recorder:\n  throttle: {AirTemp: -1}\nreplay:\n  path: r.yaml\n", "recorder.throttle.AirTemp"},
		"negative buffer":   {"recorder:\n  buffer_size: -1\nreplay:\n  path: r.yaml\n", "buffer_size"},
		"same paths":        {"recorder:\n  session_info_path: a.txt\n  telemetry_path: a.txt\nreplay:\n  path: r.yaml\n", "must differ"},
		"opcua endpoint":    {"source:\n  kind: opcua\n", "opcua config"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestExternalSourceNeedsNoFeedSection(t *testing.T) {
	cfg, err := Parse([]byte("source: {kind: external}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Source.Kind != SourceExternal {
		t.Fatalf("expected external source, got %s", cfg.Source.Kind)
	}
}
