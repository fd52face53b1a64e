package transport

import (
	"testing"
	"time"
)

func TestTelemetrySendWithNoClientsNeverBlocks(t *testing.T) {
	tel := NewTelemetry("127.0.0.1:0")
	defer tel.Close()

	done := make(chan struct{})
	go func() {
		_ = tel.Send(Snapshot{Bins: []BinSnapshot{{Bin: 10, Magnitude: 0.5}}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked with no connected clients")
	}
}

func TestTelemetrySendIgnoresWrongType(t *testing.T) {
	tel := NewTelemetry("127.0.0.1:0")
	defer tel.Close()

	if err := tel.Send("not a snapshot"); err != nil {
		t.Errorf("Send with wrong type returned error: %v", err)
	}
}

func TestTelemetryCloseIsIdempotentWithNoClients(t *testing.T) {
	tel := NewTelemetry("127.0.0.1:0")
	if err := tel.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := tel.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
