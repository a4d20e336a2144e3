package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/relay"
	"github.com/Tyrowin/roomchat/internal/server"
)

// TestShutdownStopsServerThenHub verifies one call stops both the HTTP
// server and the hub.
func TestShutdownStopsServerThenHub(t *testing.T) {
	engine, err := relay.NewEngine()
	require.NoError(t, err)
	hub := server.NewHub(engine, nil)
	server.StartHub(hub)

	httpServer := server.CreateServer("127.0.0.1:0", server.SetupRoutes(hub, nil))
	errCh := make(chan error, 1)
	go func() { errCh <- server.StartServer(httpServer) }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx, httpServer, hub))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("StartServer did not return after shutdown")
	}
	assert.False(t, hub.Register(server.NewClient(nil, hub, "late")), "hub accepted a client after shutdown")
}
