package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Tyrowin/roomchat/internal/relay"
	"github.com/Tyrowin/roomchat/internal/server"
)

func main() {
	log.Println("Starting RoomChat server...")

	config := server.NewConfigFromEnv()
	server.SetConfig(config)
	log.Printf("Port: %s", config.Port)
	log.Printf("Allowed origins: %v", config.AllowedOrigins)
	log.Printf("Max message size: %d bytes, send buffer: %d frames", config.MaxMessageSize, config.SendBufferSize)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := server.NewMetrics(registry)

	engine, err := relay.NewEngine(relay.WithObserver(metrics))
	if err != nil {
		log.Fatalf("Failed to create relay engine: %v", err)
	}

	hub := server.NewHub(engine, metrics)
	server.StartHub(hub)

	mux := server.SetupRoutes(hub, registry)
	httpServer := server.CreateServer(config.Port, mux)

	go func() {
		if err := server.StartServer(httpServer); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Println("Endpoints:")
	log.Println("  GET /         - Health check with room and user counts")
	log.Println("  GET /ws       - WebSocket endpoint")
	log.Println("  GET /metrics  - Prometheus metrics")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		config.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"server": func(ctx context.Context) error {
				return shutdown(ctx, httpServer, hub)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// shutdown stops accepting new connections first, then closes the open
// WebSocket sessions. gfshutdown runs its operations concurrently, so the
// order lives inside one operation.
func shutdown(ctx context.Context, httpServer *http.Server, hub *server.Hub) error {
	httpErr := server.ShutdownServer(ctx, httpServer)
	hubErr := hub.Shutdown(ctx)
	return errors.Join(httpErr, hubErr)
}
