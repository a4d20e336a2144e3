package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler upgrades GET requests from allowed origins and registers
// the resulting client with hub.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		if !hub.Register(client) {
			log.Printf("Hub is shutting down; rejecting connection from %s", r.RemoteAddr)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			_ = conn.Close()
		}
	}
}

// HealthHandler reports that the server is up along with live room and user
// counts.
func HealthHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		stats := hub.Stats()
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintf(w, "RoomChat server is running! Rooms: %d, users: %d, connections: %d",
			stats.Rooms, stats.Sessions, stats.Connections)
	}
}
