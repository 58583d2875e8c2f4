package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/SimRecorder/pkg/simrecorder"
)

func main() {
	flow, err := simrecorder.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(sink string, batch simrecorder.Batch) error {
		for _, rec := range batch.Records {
			fmt.Printf("%s %d:%.4f %s = %s\n", sink, batch.SessionNum, batch.SessionTime, rec.Path, rec.Value)
		}
		return nil
	}

	if err := flow.Run(ctx, simrecorder.StreamOutCallback(callback)); err != nil && err != context.Canceled {
		log.Fatalf("recorder error: %v", err)
	}
}
