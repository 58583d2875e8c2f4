package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ghalamif/SimRecorder"
)

// Session info keeps going to its change log; telemetry batches are fanned
// out to a worker instead.
func main() {
	flow, err := simrecorder.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, batches, closeBatches := simrecorder.NewChannelSink("telemetry-fanout", 32)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fanoutWorker("laps", batches)
	}()

	err = flow.Run(ctx, simrecorder.StreamOutSinks(nil, telemetry))
	closeBatches()
	wg.Wait()
	if err != nil && err != context.Canceled {
		log.Fatalf("recorder error: %v", err)
	}
}

func fanoutWorker(name string, batches <-chan simrecorder.Batch) {
	for batch := range batches {
		fmt.Printf("[%s] %d changes at session %d:%.4f (%s)\n",
			name, len(batch.Records), batch.SessionNum, batch.SessionTime, time.Now().Format(time.RFC3339))
	}
}
