package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// CreateServer creates an HTTP server for handler listening on port.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartHub runs hub's event loop in a new goroutine.
func StartHub(hub *Hub) {
	go hub.Run()
	log.Println("Hub started and ready to manage WebSocket connections")
}

// StartServer listens and serves until the server is shut down. A clean
// shutdown is not reported as an error.
func StartServer(server *http.Server) error {
	log.Printf("Server listening on port %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen on %s: %w", server.Addr, err)
	}
	return nil
}

// ShutdownServer stops accepting connections and waits for in-flight
// requests until ctx expires. Upgraded WebSocket connections are not tracked
// by the HTTP server; Hub.Shutdown closes them.
func ShutdownServer(ctx context.Context, server *http.Server) error {
	log.Println("Shutting down HTTP server...")

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return err
	}

	log.Println("HTTP server shutdown completed")
	return nil
}
