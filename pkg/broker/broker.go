package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

// Config holds broker configuration.
type Config struct {
	// MaxQoS is the maximum QoS level granted to subscribers and applied
	// to deliveries.
	MaxQoS packet.QoS

	// RetainAvailable indicates whether retained messages are supported.
	// When false, the retain flag on inbound publishes is ignored.
	RetainAvailable bool

	// KeepAliveGrace multiplies the client keep-alive interval to obtain
	// the idle deadline after which the session is considered dead.
	KeepAliveGrace float64

	// SweepInterval is how often idle sessions are checked.
	SweepInterval time.Duration

	// Logger receives broker events. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxQoS:          packet.QoS2,
		RetainAvailable: true,
		KeepAliveGrace:  1.5,
		SweepInterval:   5 * time.Second,
	}
}

// Broker is the core UDPMQ broker. It is transport-agnostic: listeners
// feed it datagrams through HandleDatagram together with an Endpoint for
// the return path.
type Broker struct {
	config *Config
	hooks  *Hooks
	log    *slog.Logger

	// Client management
	clientsMu sync.RWMutex
	clients   map[string]*Client // clientID -> client
	byAddr    map[string]*Client // endpoint address -> client

	// Session management
	sessions *SessionManager

	// Subscriptions
	subscriptions *SubscriptionTree

	// Retained messages (in-memory default)
	retainedMu sync.RWMutex
	retained   map[string]*packet.Publish

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new broker with the given configuration.
func New(config *Config) *Broker {
	if config == nil {
		config = DefaultConfig()
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Broker{
		config:        config,
		hooks:         NewHooks(),
		log:           log,
		clients:       make(map[string]*Client),
		byAddr:        make(map[string]*Client),
		sessions:      NewSessionManager(),
		subscriptions: NewSubscriptionTree(),
		retained:      make(map[string]*packet.Publish),
		ctx:           ctx,
		cancel:        cancel,
	}

	if config.SweepInterval > 0 {
		b.wg.Add(1)
		go b.sweepLoop()
	}

	return b
}

// RegisterHook registers a hook for extending broker behavior.
func (b *Broker) RegisterHook(hook Hook) error {
	return b.hooks.Register(hook)
}

// RestoreSessions loads persisted sessions from the persistence hook and
// rebuilds their subscriptions. Call after registering hooks, before
// serving traffic.
func (b *Broker) RestoreSessions(ctx context.Context) error {
	ph := b.hooks.Persistence()
	if ph == nil {
		return nil
	}

	states, err := ph.LoadSessions(ctx)
	if err != nil {
		return err
	}

	for _, state := range states {
		sess := b.sessions.Create(state.ClientID)
		sess.restore(state)
		for filter, qos := range state.Subscriptions {
			b.subscriptions.Subscribe(filter, &Subscriber{
				ClientID: state.ClientID,
				QoS:      qos,
			})
		}
	}

	if len(states) > 0 {
		b.log.Info("restored sessions", "count", len(states))
	}
	return nil
}

// HandleDatagram processes a single inbound datagram from a listener.
// It decodes the frame and dispatches to the appropriate handler.
func (b *Broker) HandleDatagram(ep Endpoint, data []byte) {
	frame, err := packet.DecodeFrame(data)
	if err != nil {
		b.hooks.OnDecodeError(err)
		b.log.Debug("dropping undecodable datagram",
			"addr", ep.RemoteAddr(), "len", len(data), "error", err)
		return
	}

	b.hooks.OnFrameReceived(len(data), frame.Packet.Type())

	ctx := b.ctx

	if connect, ok := frame.Packet.(*packet.Connect); ok {
		b.handleConnect(ctx, ep, frame.MsgID, connect)
		return
	}

	client := b.clientByAddr(ep.RemoteAddr())
	if client == nil {
		b.log.Debug("dropping packet from unknown endpoint",
			"addr", ep.RemoteAddr(), "type", frame.Packet.Type().String())
		return
	}
	client.touch()
	b.sessionTouch(client.id)

	switch pkt := frame.Packet.(type) {
	case *packet.Publish:
		b.handlePublish(ctx, client, frame.MsgID, pkt)
	case *packet.Subscribe:
		b.handleSubscribe(ctx, client, frame.MsgID, pkt)
	case *packet.Pingreq:
		b.handlePingreq(ctx, client, frame.MsgID)
	case *packet.Disconnect:
		b.handleDisconnect(ctx, client)
	case *packet.Puback:
		// Delivery confirmation; no redelivery tracking over UDP.
	default:
		// CONNACK, SUBACK and PINGRESP travel broker-to-client only.
		b.log.Debug("dropping unexpected packet direction",
			"client", client.id, "type", frame.Packet.Type().String())
	}
}

// send frames and writes a packet to an endpoint.
func (b *Broker) send(ep Endpoint, msgID uint16, pkt packet.Packet) {
	frame := packet.NewFrame(msgID, pkt)
	data, err := frame.Encode()
	if err != nil {
		b.log.Error("dropping oversized outbound packet",
			"addr", ep.RemoteAddr(), "type", pkt.Type().String(), "error", err)
		return
	}
	if err := ep.WriteDatagram(data); err != nil {
		b.log.Warn("datagram write failed",
			"addr", ep.RemoteAddr(), "type", pkt.Type().String(), "error", err)
		return
	}
	b.hooks.OnFrameSent(len(data), pkt.Type())
}

func (b *Broker) clientByAddr(addr string) *Client {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return b.byAddr[addr]
}

func (b *Broker) clientByID(clientID string) *Client {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return b.clients[clientID]
}

// registerClient installs a client, displacing any previous client with
// the same id or endpoint address. Returns the displaced client, if any.
func (b *Broker) registerClient(client *Client) *Client {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()

	old := b.clients[client.id]
	if old != nil {
		delete(b.byAddr, old.RemoteAddr())
	}
	b.clients[client.id] = client
	b.byAddr[client.RemoteAddr()] = client
	return old
}

// unregisterClient removes a client if it is still the registered one.
func (b *Broker) unregisterClient(client *Client) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()

	if b.clients[client.id] == client {
		delete(b.clients, client.id)
	}
	if b.byAddr[client.RemoteAddr()] == client {
		delete(b.byAddr, client.RemoteAddr())
	}
}

func (b *Broker) sessionTouch(clientID string) {
	if sess := b.sessions.Get(clientID); sess != nil {
		sess.Touch()
	}
}

// sweepLoop expires clients that stayed silent past their keep-alive
// grace period.
func (b *Broker) sweepLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.sweepIdle()
		}
	}
}

func (b *Broker) sweepIdle() {
	b.clientsMu.RLock()
	stale := make([]*Client, 0)
	for _, client := range b.clients {
		if client.keepAlive == 0 {
			continue
		}
		deadline := time.Duration(float64(client.keepAlive)*b.config.KeepAliveGrace) * time.Second
		if client.idle() > deadline {
			stale = append(stale, client)
		}
	}
	b.clientsMu.RUnlock()

	for _, client := range stale {
		b.log.Info("expiring idle client",
			"client", client.id, "keepalive", client.keepAlive)
		b.dropClient(b.ctx, client, ErrKeepAliveExpired)
	}
}

// Shutdown gracefully shuts down the broker: stops background work,
// drops all clients and stops hooks.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.cancel()

	b.clientsMu.Lock()
	clients := make([]*Client, 0, len(b.clients))
	for _, client := range b.clients {
		clients = append(clients, client)
	}
	b.clientsMu.Unlock()

	for _, client := range clients {
		b.dropClient(context.Background(), client, ErrServerShutdown)
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return b.hooks.Stop()
}

// Stats returns broker statistics.
func (b *Broker) Stats() Stats {
	b.clientsMu.RLock()
	clientCount := len(b.clients)
	b.clientsMu.RUnlock()

	return Stats{
		Clients:       clientCount,
		Sessions:      b.sessions.Count(),
		Subscriptions: b.subscriptions.Count(),
		Retained:      b.retainedCount(),
	}
}

// Stats holds broker statistics.
type Stats struct {
	Clients       int
	Sessions      int
	Subscriptions int
	Retained      int
}

// Publish injects a broker-originated message for delivery to matching
// subscribers. Used for $SYS topics and internal messages.
func (b *Broker) Publish(topicName string, payload []byte, retain bool) {
	pkt := &packet.Publish{
		Topic:   topicName,
		QoS:     packet.QoS0,
		Retain:  retain,
		Payload: payload,
	}

	if retain && b.config.RetainAvailable {
		b.storeRetained(b.ctx, topicName, pkt)
	}

	b.route(b.ctx, "", pkt)
}
