package simrecorder

import (
	"errors"
	"testing"
	"time"
)

func sampleBatch() *Batch {
	b := &Batch{SessionNum: 2, SessionTime: 734.25}
	b.Add("PitsOpen[0]", "true")
	b.Add("CarIdxLap[3]", "12")
	return b
}

func TestNewCallbackSink(t *testing.T) {
	var received []Batch
	open := NewCallbackSink("cb", func(sink string, b Batch) error {
		if sink != "cb" {
			t.Errorf("unexpected sink name %q", sink)
		}
		received = append(received, b)
		return nil
	})
	sink, err := open()
	if err != nil {
		t.Fatalf("open returned error: %v", err)
	}

	input := sampleBatch()
	if err := sink.WriteBatch(input); err != nil {
		t.Fatalf("WriteBatch returned error: %v", err)
	}
	if err := sink.WriteBatch(&Batch{}); err != nil {
		t.Fatalf("empty WriteBatch returned error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(received))
	}

	input.Records[0].Value = "false"
	got := received[0]
	if got.SessionNum != 2 || got.SessionTime != 734.25 {
		t.Fatalf("mismatched stamp: %+v", got)
	}
	if got.Records[0].Value != "true" {
		t.Fatalf("expected records to be copied, got %+v", got.Records)
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink, err := NewCallbackSink("", nil)()
	if err != nil {
		t.Fatalf("open returned error: %v", err)
	}
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %q", sink.Name())
	}
	if err := sink.WriteBatch(sampleBatch()); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelSink(t *testing.T) {
	open, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()
	sink, err := open()
	if err != nil {
		t.Fatalf("open returned error: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- sink.WriteBatch(sampleBatch())
	}()

	var batch Batch
	select {
	case batch = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel batch")
	}
	if err := <-errCh; err != nil {
		t.Fatalf("WriteBatch returned error: %v", err)
	}
	if len(batch.Records) != 2 || batch.Records[1].Path != "CarIdxLap[3]" {
		t.Fatalf("unexpected batch data: %+v", batch)
	}

	// Closing the recorder side leaves the channel open.
	if err := sink.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	closeFn()
	if err := sink.WriteBatch(sampleBatch()); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	closeFn()
}
