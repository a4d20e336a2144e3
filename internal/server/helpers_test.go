package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/relay"
	"github.com/Tyrowin/roomchat/internal/server"
)

const testOriginURL = "http://localhost:8080"

type testEnv struct {
	server   *httptest.Server
	hub      *server.Hub
	registry *prometheus.Registry
	wsURL    string
}

// newTestEnv starts a hub with metrics behind an httptest server and tears
// both down when the test ends.
func newTestEnv(t *testing.T, opts ...relay.Option) *testEnv {
	t.Helper()

	registry := prometheus.NewRegistry()
	metrics := server.NewMetrics(registry)
	engine, err := relay.NewEngine(append([]relay.Option{relay.WithObserver(metrics)}, opts...)...)
	require.NoError(t, err)

	hub := server.NewHub(engine, metrics)
	server.StartHub(hub)

	testServer := httptest.NewServer(server.SetupRoutes(hub, registry))
	t.Cleanup(func() {
		testServer.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})

	return &testEnv{
		server:   testServer,
		hub:      hub,
		registry: registry,
		wsURL:    buildWebSocketURL(testServer.URL),
	}
}

// configureServerForTest applies a config for the duration of the test.
func configureServerForTest(t *testing.T, mutate func(cfg *server.Config)) {
	t.Helper()
	cfg := server.NewConfig()
	if mutate != nil {
		mutate(cfg)
	}
	server.SetConfig(cfg)
	t.Cleanup(func() { server.SetConfig(nil) })
}

func buildWebSocketURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

// dial opens a WebSocket with the default allowed origin.
func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, err := dialWithOrigin(url, testOriginURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func dialWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := dialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

// readFrame reads one JSON frame, failing the test after two seconds.
func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// readFrameOfType skips frames until one of the wanted type arrives.
func readFrameOfType(t *testing.T, conn *websocket.Conn, frameType string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		frame := readFrame(t, conn)
		if frame["type"] == frameType {
			return frame
		}
	}
	t.Fatalf("no %q frame received", frameType)
	return nil
}

// expectNoMessage asserts nothing arrives within the wait window.
func expectNoMessage(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no message, got %s", data)
	}
}

// createRoom creates a room as name and returns its code.
func createRoom(t *testing.T, conn *websocket.Conn, name string) string {
	t.Helper()
	sendJSON(t, conn, map[string]any{"type": "createRoom", "name": name})
	frame := readFrame(t, conn)
	require.Equal(t, "roomCreated", frame["type"], "unexpected frame %v", frame)
	code, ok := frame["roomCode"].(string)
	require.True(t, ok)
	return code
}
