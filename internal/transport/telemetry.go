package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	speclog "spectral/internal/log"
)

// Snapshot is one telemetry frame: the analysis thread's most recent
// peak map and a compact view of every voice in the oscillator bank,
// silent ones included, broadcast to every connected client at most once per
// interval.
type Snapshot struct {
	Bins      []BinSnapshot   `json:"bins"`
	Voices    []VoiceSnapshot `json:"voices"`
	Timestamp int64           `json:"timestamp_ms"`
}

// BinSnapshot is one FFT peak, as published by the engine's BinMag.
type BinSnapshot struct {
	Bin       int     `json:"bin"`
	Magnitude float32 `json:"magnitude"`
}

// VoiceSnapshot is one oscillator's audible state.
type VoiceSnapshot struct {
	Amplitude float32 `json:"amplitude"`
	Increment float32 `json:"increment"`
}

// Telemetry is a websocket broadcaster of Snapshot frames. Send drops
// a frame rather than blocking the caller when a client's outbound
// buffer is full or no clients are connected; it is the one transport
// meant to run alongside the trigger worker's own timing, not on the
// audio thread.
type Telemetry struct {
	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]chan Snapshot

	server    *http.Server
	closeOnce sync.Once
	closeErr  error
}

// NewTelemetry starts an HTTP server on addr exposing a /ws endpoint
// that streams Snapshot frames as JSON to every connected client.
func NewTelemetry(addr string) *Telemetry {
	t := &Telemetry{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan Snapshot),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", t.handleWebSocket)
	t.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		speclog.Infof("telemetry: listening on %s", addr)
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			speclog.Errorf("telemetry: server error: %v", err)
		}
	}()

	return t
}

func (t *Telemetry) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		speclog.Errorf("telemetry: upgrade error: %v", err)
		return
	}

	outbox := make(chan Snapshot, 8)
	t.clientsMu.Lock()
	t.clients[conn] = outbox
	t.clientsMu.Unlock()
	speclog.Infof("telemetry: client connected, total %d", t.clientCount())

	go t.writeLoop(conn, outbox)

	// Block on any message (including close) to detect disconnect;
	// this transport never reads application data from the client.
	_, _, _ = conn.ReadMessage()
	t.clientsMu.Lock()
	delete(t.clients, conn)
	t.clientsMu.Unlock()
	close(outbox)
	conn.Close()
	speclog.Infof("telemetry: client disconnected, total %d", t.clientCount())
}

func (t *Telemetry) writeLoop(conn *websocket.Conn, outbox <-chan Snapshot) {
	for snap := range outbox {
		if err := conn.WriteJSON(snap); err != nil {
			speclog.Errorf("telemetry: write error: %v", err)
			return
		}
	}
}

func (t *Telemetry) clientCount() int {
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()
	return len(t.clients)
}

// Send queues snap for every connected client, dropping it for any
// client whose outbox is already full.
func (t *Telemetry) Send(data interface{}) error {
	snap, ok := data.(Snapshot)
	if !ok {
		return nil
	}
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()
	for _, outbox := range t.clients {
		select {
		case outbox <- snap:
		default:
		}
	}
	return nil
}

// Close shuts down the HTTP server and every client connection. Safe
// to call more than once; only the first call does any work.
func (t *Telemetry) Close() error {
	t.closeOnce.Do(func() {
		t.clientsMu.Lock()
		for conn, outbox := range t.clients {
			close(outbox)
			conn.Close()
		}
		t.clients = make(map[*websocket.Conn]chan Snapshot)
		t.clientsMu.Unlock()

		if t.server != nil {
			t.closeErr = t.server.Close()
		}
	})
	return t.closeErr
}

var _ Transport = (*Telemetry)(nil)

// NowMillis is the timestamp source for Snapshot.Timestamp, broken
// out so callers building a Snapshot don't need to import time
// directly.
func NowMillis() int64 { return time.Now().UnixMilli() }
