package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/relay"
	"github.com/Tyrowin/roomchat/internal/server"
)

// TestHealthHandler verifies the health endpoint reports live counts for any
// method.
func TestHealthHandler(t *testing.T) {
	engine, err := relay.NewEngine()
	require.NoError(t, err)
	hub := server.NewHub(engine, nil)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/", http.NoBody)
			rr := httptest.NewRecorder()

			server.HealthHandler(hub)(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
			assert.Equal(t, "RoomChat server is running! Rooms: 0, users: 0, connections: 0", rr.Body.String())
		})
	}
}

// TestHealthHandlerCountsRooms verifies the counts follow the hub's state.
func TestHealthHandlerCountsRooms(t *testing.T) {
	env := newTestEnv(t)
	createRoom(t, dial(t, env.wsURL), "a")
	createRoom(t, dial(t, env.wsURL), "b")

	require.Eventually(t, func() bool {
		resp, err := http.Get(env.server.URL + "/")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "RoomChat server is running! Rooms: 2, users: 2, connections: 2"
	}, 2*time.Second, 20*time.Millisecond)
}

// TestWebSocketHandlerRejectsNonGET verifies the method check runs before the
// upgrade.
func TestWebSocketHandlerRejectsNonGET(t *testing.T) {
	env := newTestEnv(t)

	methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}
	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			req, err := http.NewRequest(method, env.server.URL+"/ws", http.NoBody)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), "WebSocket endpoint only accepts GET requests.")
		})
	}
}

// TestWebSocketHandlerRequiresUpgrade verifies a plain GET is refused.
func TestWebSocketHandlerRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/ws", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Origin", testOriginURL)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestMetricsEndpoint verifies the Prometheus exposition is served.
func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	createRoom(t, dial(t, env.wsURL), "metrics")

	require.Eventually(t, func() bool {
		resp, err := http.Get(env.server.URL + "/metrics")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return strings.Contains(string(body), "roomchat_rooms 1") &&
			strings.Contains(string(body), "roomchat_ws_connections 1")
	}, 2*time.Second, 20*time.Millisecond)
}
