package server

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the Prometheus collectors for the chat relay. It implements
// relay.Observer and also tracks WebSocket connections for the hub.
type Metrics struct {
	connections     prometheus.Gauge
	sessions        prometheus.Gauge
	rooms           prometheus.Gauge
	framesDelivered prometheus.Counter
	sendFailures    prometheus.Counter
	rejected        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_ws_connections",
			Help: "Current number of active websocket connections.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_sessions",
			Help: "Current number of connections bound to a room member.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_rooms",
			Help: "Current number of live rooms.",
		}),
		framesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_frames_delivered_total",
			Help: "Total frames queued for delivery to clients.",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_send_failures_total",
			Help: "Total frames that could not be queued for a client.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_requests_rejected_total",
			Help: "Total inbound requests rejected or ignored, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.connections, m.sessions, m.rooms, m.framesDelivered, m.sendFailures, m.rejected)
	return m
}

// StateChanged records the engine's registry and store sizes.
func (m *Metrics) StateChanged(sessions, rooms int) {
	m.sessions.Set(float64(sessions))
	m.rooms.Set(float64(rooms))
}

// FramesDelivered counts frames accepted by client send queues.
func (m *Metrics) FramesDelivered(n int) {
	m.framesDelivered.Add(float64(n))
}

// SendFailed counts one frame a client could not accept.
func (m *Metrics) SendFailed() {
	m.sendFailures.Inc()
}

// RequestRejected counts one rejected request.
func (m *Metrics) RequestRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) connectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) connectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}
