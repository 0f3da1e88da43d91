package hooks

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

// SysHook publishes broker metrics to $SYS topics like Mosquitto.
// Topics published:
//   - $SYS/broker/version
//   - $SYS/broker/uptime
//   - $SYS/broker/clients/connected
//   - $SYS/broker/clients/total
//   - $SYS/broker/messages/received
//   - $SYS/broker/messages/sent
//   - $SYS/broker/bytes/received
//   - $SYS/broker/bytes/sent
type SysHook struct {
	publisher SysPublisher
	interval  time.Duration
	version   string

	// Metrics
	startTime    time.Time
	connected    atomic.Int64
	totalClients atomic.Int64
	msgsReceived atomic.Int64
	msgsSent     atomic.Int64
	bytesRecv    atomic.Int64
	bytesSent    atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// SysPublisher is called to publish $SYS messages.
// (*broker.Broker).Publish satisfies it.
type SysPublisher func(topic string, payload []byte, retain bool)

// SysConfig configures the $SYS hook.
type SysConfig struct {
	// Publisher is called to publish $SYS messages.
	Publisher SysPublisher

	// Interval is how often to publish metrics (default: 10s).
	Interval time.Duration

	// Version is the broker version string.
	Version string
}

// NewSysHook creates a new $SYS metrics hook.
func NewSysHook(cfg SysConfig) *SysHook {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	return &SysHook{
		publisher: cfg.Publisher,
		interval:  cfg.Interval,
		version:   cfg.Version,
		startTime: time.Now(),
	}
}

func (h *SysHook) ID() string { return "sys" }

// Start begins publishing $SYS metrics.
func (h *SysHook) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	// Publish static values
	h.publish("$SYS/broker/version", h.version)

	go h.loop(ctx)
}

// Stop stops publishing $SYS metrics.
func (h *SysHook) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	return nil
}

func (h *SysHook) loop(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.publishMetrics()
		}
	}
}

func (h *SysHook) publishMetrics() {
	uptime := int64(time.Since(h.startTime).Seconds())

	h.publish("$SYS/broker/uptime", strconv.FormatInt(uptime, 10))
	h.publish("$SYS/broker/clients/connected", strconv.FormatInt(h.connected.Load(), 10))
	h.publish("$SYS/broker/clients/total", strconv.FormatInt(h.totalClients.Load(), 10))
	h.publish("$SYS/broker/messages/received", strconv.FormatInt(h.msgsReceived.Load(), 10))
	h.publish("$SYS/broker/messages/sent", strconv.FormatInt(h.msgsSent.Load(), 10))
	h.publish("$SYS/broker/bytes/received", strconv.FormatInt(h.bytesRecv.Load(), 10))
	h.publish("$SYS/broker/bytes/sent", strconv.FormatInt(h.bytesSent.Load(), 10))
}

func (h *SysHook) publish(topic, value string) {
	if h.publisher != nil {
		h.publisher(topic, []byte(value), true)
	}
}

// ConnectionHook implementation

func (h *SysHook) OnConnected(ctx context.Context, client broker.ClientInfo) {
	h.connected.Add(1)
	h.totalClients.Add(1)
}

func (h *SysHook) OnDisconnect(ctx context.Context, client broker.ClientInfo, err error) {
	h.connected.Add(-1)
}

// ObserverHook implementation

func (h *SysHook) OnFrameReceived(bytes int, t packet.Type) {
	h.bytesRecv.Add(int64(bytes))
	if t == packet.TypePublish {
		h.msgsReceived.Add(1)
	}
}

func (h *SysHook) OnFrameSent(bytes int, t packet.Type) {
	h.bytesSent.Add(int64(bytes))
	if t == packet.TypePublish {
		h.msgsSent.Add(1)
	}
}

func (h *SysHook) OnDecodeError(err error) {}

// Metrics provides direct access to current metrics.
func (h *SysHook) Metrics() SysMetrics {
	return SysMetrics{
		Uptime:           time.Since(h.startTime),
		ClientsConnected: h.connected.Load(),
		ClientsTotal:     h.totalClients.Load(),
		MessagesReceived: h.msgsReceived.Load(),
		MessagesSent:     h.msgsSent.Load(),
		BytesReceived:    h.bytesRecv.Load(),
		BytesSent:        h.bytesSent.Load(),
	}
}

// SysMetrics holds current broker metrics.
type SysMetrics struct {
	Uptime           time.Duration
	ClientsConnected int64
	ClientsTotal     int64
	MessagesReceived int64
	MessagesSent     int64
	BytesReceived    int64
	BytesSent        int64
}
