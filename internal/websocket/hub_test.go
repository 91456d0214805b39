package websocket

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecube/internal/operations"
)

var _ operations.WebSocketHub = (*Hub)(nil)

type mockConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  bool
	reads   chan []byte
}

func newMockConn() *mockConn {
	return &mockConn{reads: make(chan []byte)}
}

func (m *mockConn) WriteMessage(_ int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("closed")
	}
	m.written = append(m.written, data)
	return nil
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	data, ok := <-m.reads
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, data, nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) SetReadDeadline(time.Time) error { return nil }
func (m *mockConn) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConn) SetReadLimit(int64) {}
func (m *mockConn) SetPongHandler(func(string) error) {}
func (m *mockConn) RemoteAddr() string { return "127.0.0.1:9999" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_BroadcastToClients(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	a := NewClient(hub, newMockConn(), ClientConfig{}, "trace-a", testLogger())
	b := NewClient(hub, newMockConn(), ClientConfig{}, "", testLogger())
	hub.Register(a)
	hub.Register(b)

	hello := receive(t, a)
	assert.Equal(t, TypeConnection, hello.Type)
	assert.Equal(t, "trace-a", hello.TraceID)
	receive(t, b)
	assert.Equal(t, 2, hub.ClientCount())

	hub.BroadcastUpdate(operations.EventOperationSnapshot, "op-1", "running", map[string]int{"progress": 40})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, operations.EventOperationSnapshot, msg.Type)
		assert.Equal(t, "op-1", msg.Subject)
		assert.Equal(t, "running", msg.Status)
		assert.Equal(t, map[string]interface{}{"progress": float64(40)}, msg.Data)
		assert.NotEmpty(t, msg.Timestamp)
	}

	stats := hub.Stats()
	assert.Equal(t, int64(2), stats.TotalConnections)
	assert.Equal(t, int64(4), stats.MessagesSent)
	assert.Equal(t, 2, stats.ActiveClients)
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	c := NewClient(hub, newMockConn(), ClientConfig{}, "", testLogger())
	hub.Register(c)
	receive(t, c)

	hub.Unregister(c)
	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "send channel is closed")
	case <-time.After(time.Second):
		t.Fatal("client not unregistered")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_StopIsFinal(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()

	c := NewClient(hub, newMockConn(), ClientConfig{}, "", testLogger())
	hub.Register(c)
	receive(t, c)

	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())

	done := make(chan struct{})
	go func() {
		hub.BroadcastUpdate("x", "", "", nil)
		hub.Register(NewClient(hub, newMockConn(), ClientConfig{}, "", testLogger()))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls block after Stop")
	}
}

func TestClient_WritePumpForwardsAndCloses(t *testing.T) {
	hub := NewHub(testLogger())
	conn := newMockConn()
	c := NewClient(hub, conn, ClientConfig{PingPeriod: time.Hour, PongWait: 2 * time.Hour}, "", testLogger())

	finished := make(chan struct{})
	go func() {
		c.WritePump()
		close(finished)
	}()

	c.send <- []byte(`{"type":"a"}`)
	c.send <- []byte(`{"type":"b"}`)
	close(c.send)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("write pump did not stop")
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.True(t, conn.closed)
	require.Len(t, conn.written, 3, "two messages and the close frame")
	assert.Equal(t, `{"type":"a"}`, string(conn.written[0]))
	assert.Equal(t, `{"type":"b"}`, string(conn.written[1]))
}

func TestClientConfig_Defaults(t *testing.T) {
	cfg := ClientConfig{}.withDefaults()
	assert.Equal(t, DefaultWriteWait, cfg.WriteWait)
	assert.Equal(t, DefaultPongWait, cfg.PongWait)
	assert.Equal(t, DefaultPingPeriod, cfg.PingPeriod)

	cfg = ClientConfig{PongWait: 10 * time.Second, PingPeriod: 20 * time.Second}.withDefaults()
	assert.Equal(t, 9*time.Second, cfg.PingPeriod, "ping period must stay below pong wait")
}
