package server

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Tyrowin/roomchat/internal/relay"
)

// Hub owns the relay engine and is the only goroutine that calls it. Clients
// feed it register, frame and unregister events through a single channel.
type Hub struct {
	engine  *relay.Engine
	metrics *Metrics

	clients map[*Client]struct{}
	events  chan clientEvent

	connections atomic.Int64
	sessions    atomic.Int64
	rooms       atomic.Int64

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Stats is a snapshot of the hub's counts, safe to read from any goroutine.
type Stats struct {
	Connections int
	Sessions    int
	Rooms       int
}

// NewHub creates a Hub around engine. metrics may be nil.
func NewHub(engine *relay.Engine, metrics *Metrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		engine:  engine,
		metrics: metrics,
		clients: make(map[*Client]struct{}),
		events:  make(chan clientEvent),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Register hands a freshly upgraded client to the hub, which starts its
// pumps. It returns false if the hub is shutting down.
func (h *Hub) Register(client *Client) bool {
	return h.dispatch(clientEvent{kind: eventRegister, client: client})
}

// dispatch delivers ev to the event loop unless the hub has stopped.
func (h *Hub) dispatch(ev clientEvent) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Stats returns the latest published counts.
func (h *Hub) Stats() Stats {
	return Stats{
		Connections: int(h.connections.Load()),
		Sessions:    int(h.sessions.Load()),
		Rooms:       int(h.rooms.Load()),
	}
}

// Run is the hub's event loop. It must run in its own goroutine and returns
// after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return
		case ev := <-h.events:
			h.handleEvent(ev)
		}
	}
}

func (h *Hub) handleEvent(ev clientEvent) {
	client := ev.client
	if client == nil {
		log.Printf("Received %s event without a client; skipping", ev.kind)
		return
	}

	switch ev.kind {
	case eventRegister:
		h.clients[client] = struct{}{}
		h.connections.Store(int64(len(h.clients)))
		h.metrics.connectionOpened()
		log.Printf("Client registered from %s. Total clients: %d", client.addr, len(h.clients))

		h.wg.Add(2)
		go func() {
			defer h.wg.Done()
			client.writePump()
		}()
		go func() {
			defer h.wg.Done()
			client.readPump()
		}()

	case eventFrame:
		if _, ok := h.clients[client]; !ok {
			return
		}
		h.engine.HandleFrame(client, ev.payload)

	case eventUnregister:
		if _, ok := h.clients[client]; !ok {
			return
		}
		delete(h.clients, client)
		h.engine.Disconnect(client)
		client.closeSend()
		h.connections.Store(int64(len(h.clients)))
		h.metrics.connectionClosed()
		log.Printf("Client unregistered from %s. Total clients: %d", client.addr, len(h.clients))
	}

	stats := h.engine.Stats()
	h.sessions.Store(int64(stats.Sessions))
	h.rooms.Store(int64(stats.Rooms))
}

// shutdownClients closes every connection still registered.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	for client := range h.clients {
		client.closeSend()
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Printf("Error closing client connection from %s: %v", client.addr, err)
			}
		}
	}

	log.Printf("Closed %d client connections", len(h.clients))
}

// Shutdown stops the event loop, closes all connections and waits for the
// client pumps to exit or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-ctx.Done():
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return ctx.Err()
	}
}
