// Command bridge drives the recorder from an in-process source, the way a
// simulator SDK binding would: update the source, then signal the loops.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/SimRecorder"
)

const sessionInfo = `
WeekendInfo:
  TrackName: roadamerica full
  TrackID: 18
DriverInfo:
  Drivers:
  - CarIdx: 0
    UserName: Jane O'Driver
`

func main() {
	cfg, err := simrecorder.ParseConfig([]byte("source: {kind: external}\n"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	src := simrecorder.NewMemorySource(60)
	rt, err := simrecorder.NewRuntime(cfg, simrecorder.WithSource(src))
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	doc, err := simrecorder.ParseSessionInfo([]byte(sessionInfo))
	if err != nil {
		log.Printf("session info: %v", err)
		return
	}
	src.SetSessionInfo(doc)
	src.SetConnected(true)
	rec := rt.Recorder()
	rec.SignalSessionInfoReady()

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	fuel := 60.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		tick := src.AdvanceTick(1)
		fuel -= 0.002
		src.Set("SessionNum", simrecorder.IntValue(0))
		src.Set("SessionTime", simrecorder.DoubleValue(float64(tick)/60))
		src.Set("FuelLevel", simrecorder.FloatValue(float32(fuel)))
		src.Set("Gear", simrecorder.IntValue(int32(1+(tick/180)%5)))
		rec.SignalTelemetryReady()
	}
}
