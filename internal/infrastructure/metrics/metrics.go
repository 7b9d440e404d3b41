package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChatMetrics groups the counters exposed by the realtime chat service.
type ChatMetrics struct {
	ConnectionsTotal  *prometheus.CounterVec
	FramesTotal       *prometheus.CounterVec
	MessagesPersisted prometheus.Counter
	BroadcastsTotal   prometheus.Counter
}

// NewChatMetrics registers and returns the chat collectors. It must be called
// at most once per process (collectors are registered on the default registry).
func NewChatMetrics() *ChatMetrics {
	connections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "delovrukah",
		Subsystem: "chat",
		Name:      "ws_connections_total",
		Help:      "Total websocket connection attempts by outcome.",
	}, []string{"outcome"})
	frames := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "delovrukah",
		Subsystem: "chat",
		Name:      "ws_frames_total",
		Help:      "Total inbound websocket frames by type and outcome.",
	}, []string{"type", "outcome"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "delovrukah",
		Subsystem: "chat",
		Name:      "messages_persisted_total",
		Help:      "Total chat messages written to storage.",
	})
	broadcasts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "delovrukah",
		Subsystem: "chat",
		Name:      "room_broadcasts_total",
		Help:      "Total room broadcasts fanned out to connected members.",
	})

	prometheus.MustRegister(connections, frames, persisted, broadcasts)
	return &ChatMetrics{
		ConnectionsTotal:  connections,
		FramesTotal:       frames,
		MessagesPersisted: persisted,
		BroadcastsTotal:   broadcasts,
	}
}

// Handler exposes the default prometheus registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
