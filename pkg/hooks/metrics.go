package hooks

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

// MetricsHook exports broker metrics as Prometheus collectors.
// Serve the registry with promhttp in the embedding program.
type MetricsHook struct {
	connectedClients prometheus.Gauge
	framesReceived   *prometheus.CounterVec
	framesSent       *prometheus.CounterVec
	bytesReceived    prometheus.Counter
	bytesSent        prometheus.Counter
	decodeErrors     prometheus.Counter
}

// NewMetricsHook creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to use the default registry.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	h := &MetricsHook{
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "udpmq_connected_clients",
			Help: "The current number of connected clients",
		}),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "udpmq_received_frames_total",
			Help: "The total number of received protocol frames",
		}, []string{"type"}),
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "udpmq_sent_frames_total",
			Help: "The total number of sent protocol frames",
		}, []string{"type"}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "udpmq_received_bytes_total",
			Help: "The total number of received bytes",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "udpmq_sent_bytes_total",
			Help: "The total number of sent bytes",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "udpmq_decode_errors_total",
			Help: "The total number of datagrams that failed to decode",
		}),
	}

	reg.MustRegister(
		h.connectedClients,
		h.framesReceived,
		h.framesSent,
		h.bytesReceived,
		h.bytesSent,
		h.decodeErrors,
	)

	return h
}

func (h *MetricsHook) ID() string { return "metrics" }

// ObserverHook implementation

func (h *MetricsHook) OnFrameReceived(bytes int, t packet.Type) {
	h.framesReceived.WithLabelValues(t.String()).Inc()
	h.bytesReceived.Add(float64(bytes))
}

func (h *MetricsHook) OnFrameSent(bytes int, t packet.Type) {
	h.framesSent.WithLabelValues(t.String()).Inc()
	h.bytesSent.Add(float64(bytes))
}

func (h *MetricsHook) OnDecodeError(err error) {
	h.decodeErrors.Inc()
}

// ConnectionHook implementation

func (h *MetricsHook) OnConnected(ctx context.Context, client broker.ClientInfo) {
	h.connectedClients.Inc()
}

func (h *MetricsHook) OnDisconnect(ctx context.Context, client broker.ClientInfo, err error) {
	h.connectedClients.Dec()
}
