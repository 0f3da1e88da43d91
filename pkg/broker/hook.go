// Package broker provides the core UDPMQ datagram broker.
package broker

import (
	"context"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

// Hook provides extension points for customizing broker behavior.
// Implementations can intercept packet handling at various stages.
//
// Hook methods are called synchronously. For long-running operations,
// implementations should spawn goroutines internally.
type Hook interface {
	// ID returns a unique identifier for this hook.
	ID() string
}

// StopperHook is implemented by hooks that hold resources to release on
// broker shutdown.
type StopperHook interface {
	Hook

	// Stop releases the hook's resources.
	Stop() error
}

// AuthHook handles client authentication.
type AuthHook interface {
	Hook

	// OnConnect is called when a client sends a CONNECT packet.
	// Return nil to accept the connection, or an error to reject.
	// Return a ReturnCodeError to control the CONNACK return code.
	OnConnect(ctx context.Context, client ClientInfo, pkt *packet.Connect) error
}

// AuthzHook handles client authorization for operations.
type AuthzHook interface {
	Hook

	// CanSubscribe is called per filter in a SUBSCRIBE packet.
	// Return false to answer that filter with SubAckFailure.
	CanSubscribe(ctx context.Context, client ClientInfo, filter packet.Filter) bool

	// OnPublish is called before processing a PUBLISH packet.
	// Return nil to allow, an error to reject.
	OnPublish(ctx context.Context, client ClientInfo, pkt *packet.Publish) error

	// CanRead checks if a client can receive messages on a topic.
	// Called during delivery. Return false to skip this subscriber.
	CanRead(ctx context.Context, client ClientInfo, topic string) bool
}

// MessageHook handles message interception and transformation.
type MessageHook interface {
	Hook

	// OnPublishReceived is called when a PUBLISH is received.
	// Return a modified packet or nil to use the original.
	// Return an error to reject the publish.
	OnPublishReceived(ctx context.Context, client ClientInfo, pkt *packet.Publish) (*packet.Publish, error)

	// OnPublishDeliver is called before delivering a message to a
	// subscriber. Return a modified packet or nil to use the original.
	// Return an error to skip delivery to this subscriber.
	OnPublishDeliver(ctx context.Context, subscriber ClientInfo, pkt *packet.Publish) (*packet.Publish, error)
}

// ConnectionHook handles connection lifecycle events.
type ConnectionHook interface {
	Hook

	// OnConnected is called after a client successfully connects.
	OnConnected(ctx context.Context, client ClientInfo)

	// OnDisconnect is called when a client disconnects or its session
	// expires. err is nil for a clean DISCONNECT.
	OnDisconnect(ctx context.Context, client ClientInfo, err error)
}

// SessionHook handles session lifecycle events.
type SessionHook interface {
	Hook

	// OnSessionCreated is called when a new session is created.
	OnSessionCreated(ctx context.Context, client ClientInfo)

	// OnSessionResumed is called when an existing session is resumed.
	OnSessionResumed(ctx context.Context, client ClientInfo)

	// OnSessionEnded is called when a session ends (clean disconnect or
	// keep-alive expiry).
	OnSessionEnded(ctx context.Context, clientID string)
}

// RetainHook handles retained message storage.
// Registering one replaces the broker's in-memory retained store.
type RetainHook interface {
	Hook

	// StoreRetained stores a retained message for a topic.
	// An empty payload deletes the retained message.
	StoreRetained(ctx context.Context, topic string, pkt *packet.Publish) error

	// GetRetained retrieves retained messages matching a filter.
	GetRetained(ctx context.Context, filter string) ([]*packet.Publish, error)
}

// PersistenceHook handles session persistence across broker restarts.
type PersistenceHook interface {
	Hook

	// SaveSession persists session state.
	SaveSession(ctx context.Context, state *SessionState) error

	// LoadSessions loads all persisted sessions.
	LoadSessions(ctx context.Context) ([]*SessionState, error)

	// DeleteSession removes persisted session state.
	DeleteSession(ctx context.Context, clientID string) error
}

// ObserverHook receives wire-level events for metrics collection.
type ObserverHook interface {
	Hook

	// OnFrameReceived is called for every decoded inbound frame.
	OnFrameReceived(bytes int, t packet.Type)

	// OnFrameSent is called for every outbound frame.
	OnFrameSent(bytes int, t packet.Type)

	// OnDecodeError is called when an inbound datagram fails to decode.
	OnDecodeError(err error)
}

// ClientInfo provides read-only information about a connected client.
type ClientInfo interface {
	// ClientID returns the client identifier.
	ClientID() string

	// Username returns the username if provided during connect.
	Username() string

	// RemoteAddr returns the remote address of the client's endpoint.
	RemoteAddr() string

	// CleanSession returns whether the session is discarded on disconnect.
	CleanSession() bool

	// KeepAlive returns the keep-alive interval in seconds.
	KeepAlive() uint16
}

// SessionState represents persistent session state.
type SessionState struct {
	ClientID      string
	Subscriptions map[string]packet.QoS // topic filter -> QoS
	CreatedAt     int64                 // Unix timestamp
	LastSeen      int64                 // Unix timestamp
}

// ReturnCodeError is an error that carries a CONNACK return code.
// Auth hooks return it to control the code sent to a rejected client.
type ReturnCodeError struct {
	Code    packet.ConnectReturnCode
	Message string
}

func (e *ReturnCodeError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.String()
}

// NewReturnCodeError creates a new return code error.
func NewReturnCodeError(code packet.ConnectReturnCode, msg string) *ReturnCodeError {
	return &ReturnCodeError{Code: code, Message: msg}
}
