package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/packet"
	"github.com/bromq-dev/udpmq/pkg/topic"
)

// RedisHook provides distributed state using Redis/Valkey.
// Features:
//   - Retained message storage (survives broker restart)
//   - Session persistence for broker restart and failover
//   - Cross-node message routing via Redis pub/sub
type RedisHook struct {
	client    *redis.Client
	log       *slog.Logger
	nodeID    string
	keyPrefix string
	publisher SysPublisher

	// For cross-node routing
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// RedisConfig configures the Redis hook.
type RedisConfig struct {
	// Addr is the Redis server address (default: "localhost:6379").
	Addr string

	// Password for Redis authentication (optional).
	Password string

	// DB is the Redis database number (default: 0).
	DB int

	// KeyPrefix is prepended to all Redis keys (default: "udpmq:").
	KeyPrefix string

	// NodeID uniquely identifies this broker node.
	// If empty, cross-node routing is disabled.
	NodeID string

	// Publisher injects messages from other nodes into the local broker.
	// (*broker.Broker).Publish satisfies it. Required when NodeID is set.
	Publisher SysPublisher

	// Logger receives hook events (default: slog.Default()).
	Logger *slog.Logger

	// Client allows providing a pre-configured Redis client.
	// If set, Addr/Password/DB are ignored.
	Client *redis.Client
}

// retainedMessage is the msgpack structure for stored retained messages.
type retainedMessage struct {
	Topic   string `msgpack:"topic"`
	Payload []byte `msgpack:"payload"`
	QoS     byte   `msgpack:"qos"`
}

// clusterMessage is the msgpack structure for cross-node pub/sub.
type clusterMessage struct {
	FromNode string `msgpack:"from"`
	Topic    string `msgpack:"topic"`
	Payload  []byte `msgpack:"payload"`
	QoS      byte   `msgpack:"qos"`
	Retain   bool   `msgpack:"retain"`
}

// sessionRecord is the msgpack structure for persisted sessions.
type sessionRecord struct {
	ClientID      string          `msgpack:"client_id"`
	Subscriptions map[string]byte `msgpack:"subscriptions"`
	CreatedAt     int64           `msgpack:"created_at"`
	LastSeen      int64           `msgpack:"last_seen"`
}

// NewRedisHook connects to Redis and starts the cluster listener when a
// node id is configured.
func NewRedisHook(cfg RedisConfig) (*RedisHook, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "udpmq:"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := &RedisHook{
		log:       cfg.Logger,
		nodeID:    cfg.NodeID,
		keyPrefix: cfg.KeyPrefix,
		publisher: cfg.Publisher,
	}

	if cfg.Client != nil {
		h.client = cfg.Client
	} else {
		h.client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	if h.nodeID != "" {
		h.startClusterListener()
	}

	h.log.Info("redis hook initialized",
		"addr", cfg.Addr,
		"prefix", cfg.KeyPrefix,
		"node_id", cfg.NodeID,
	)

	return h, nil
}

func (h *RedisHook) ID() string { return "redis" }

// Stop closes the Redis connection and stops the cluster listener.
func (h *RedisHook) Stop() error {
	if h.cancel != nil {
		h.cancel()
	}
	if h.pubsub != nil {
		h.pubsub.Close()
	}
	return h.client.Close()
}

// RetainHook implementation

// StoreRetained stores a retained message in Redis.
func (h *RedisHook) StoreRetained(ctx context.Context, topicName string, pkt *packet.Publish) error {
	// Empty payload = delete retained message
	if len(pkt.Payload) == 0 {
		return h.client.HDel(ctx, h.keyPrefix+"retained", topicName).Err()
	}

	msg := retainedMessage{
		Topic:   topicName,
		Payload: pkt.Payload,
		QoS:     byte(pkt.QoS),
	}

	data, err := msgpack.Marshal(&msg)
	if err != nil {
		return err
	}

	// Store in hash for efficient pattern matching
	return h.client.HSet(ctx, h.keyPrefix+"retained", topicName, data).Err()
}

// GetRetained retrieves retained messages matching a topic filter.
func (h *RedisHook) GetRetained(ctx context.Context, filter string) ([]*packet.Publish, error) {
	all, err := h.client.HGetAll(ctx, h.keyPrefix+"retained").Result()
	if err != nil {
		return nil, err
	}

	var results []*packet.Publish
	for topicName, data := range all {
		if !topic.Match(filter, topicName) {
			continue
		}

		var msg retainedMessage
		if err := msgpack.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}

		results = append(results, &packet.Publish{
			Topic:   msg.Topic,
			QoS:     packet.QoS(msg.QoS),
			Retain:  true,
			Payload: msg.Payload,
		})
	}

	return results, nil
}

// PersistenceHook implementation

// SaveSession persists session state in Redis.
func (h *RedisHook) SaveSession(ctx context.Context, state *broker.SessionState) error {
	rec := sessionRecord{
		ClientID:      state.ClientID,
		Subscriptions: make(map[string]byte, len(state.Subscriptions)),
		CreatedAt:     state.CreatedAt,
		LastSeen:      state.LastSeen,
	}
	for filter, qos := range state.Subscriptions {
		rec.Subscriptions[filter] = byte(qos)
	}

	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return err
	}

	return h.client.HSet(ctx, h.keyPrefix+"sessions", state.ClientID, data).Err()
}

// LoadSessions loads all persisted sessions from Redis.
func (h *RedisHook) LoadSessions(ctx context.Context) ([]*broker.SessionState, error) {
	all, err := h.client.HGetAll(ctx, h.keyPrefix+"sessions").Result()
	if err != nil {
		return nil, err
	}

	var results []*broker.SessionState
	for clientID, data := range all {
		var rec sessionRecord
		if err := msgpack.Unmarshal([]byte(data), &rec); err != nil {
			h.log.Warn("skipping undecodable session", "client", clientID, "error", err)
			continue
		}

		state := &broker.SessionState{
			ClientID:      rec.ClientID,
			Subscriptions: make(map[string]packet.QoS, len(rec.Subscriptions)),
			CreatedAt:     rec.CreatedAt,
			LastSeen:      rec.LastSeen,
		}
		for filter, qos := range rec.Subscriptions {
			state.Subscriptions[filter] = packet.QoS(qos)
		}
		results = append(results, state)
	}

	return results, nil
}

// DeleteSession removes persisted session state from Redis.
func (h *RedisHook) DeleteSession(ctx context.Context, clientID string) error {
	return h.client.HDel(ctx, h.keyPrefix+"sessions", clientID).Err()
}

// MessageHook implementation (cross-node routing)

// OnPublishReceived forwards messages to other nodes via Redis pub/sub.
func (h *RedisHook) OnPublishReceived(ctx context.Context, client broker.ClientInfo, pkt *packet.Publish) (*packet.Publish, error) {
	// Only forward if clustering is enabled
	if h.nodeID == "" {
		return nil, nil
	}

	msg := clusterMessage{
		FromNode: h.nodeID,
		Topic:    pkt.Topic,
		Payload:  pkt.Payload,
		QoS:      byte(pkt.QoS),
		Retain:   pkt.Retain,
	}

	data, err := msgpack.Marshal(&msg)
	if err != nil {
		return nil, nil // Don't fail the publish
	}

	h.client.Publish(ctx, h.keyPrefix+"cluster", data)

	return nil, nil
}

func (h *RedisHook) OnPublishDeliver(ctx context.Context, subscriber broker.ClientInfo, pkt *packet.Publish) (*packet.Publish, error) {
	return nil, nil
}

// startClusterListener subscribes to Redis pub/sub for cross-node messages.
func (h *RedisHook) startClusterListener() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.pubsub = h.client.Subscribe(ctx, h.keyPrefix+"cluster")

	go func() {
		ch := h.pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.handleClusterMessage([]byte(msg.Payload))
			}
		}
	}()
}

// handleClusterMessage injects messages from other nodes into the local
// broker.
func (h *RedisHook) handleClusterMessage(data []byte) {
	var msg clusterMessage
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return
	}

	// Ignore our own messages
	if msg.FromNode == h.nodeID {
		return
	}

	if h.publisher != nil {
		h.publisher(msg.Topic, msg.Payload, msg.Retain)
	}
}

// Client returns the underlying Redis client for advanced usage.
func (h *RedisHook) Client() *redis.Client {
	return h.client
}
