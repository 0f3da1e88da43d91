package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

// Hooks manages the registered hooks and dispatches events to them.
// All methods are safe for concurrent use.
type Hooks struct {
	mu sync.RWMutex

	all         []Hook
	auth        []AuthHook
	authz       []AuthzHook
	message     []MessageHook
	connection  []ConnectionHook
	session     []SessionHook
	observer    []ObserverHook
	retain      RetainHook
	persistence PersistenceHook
}

// NewHooks creates an empty hook registry.
func NewHooks() *Hooks {
	return &Hooks{}
}

// Register adds a hook, sorting it into every capability it implements.
// Only one RetainHook and one PersistenceHook may be registered.
func (h *Hooks) Register(hook Hook) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, existing := range h.all {
		if existing.ID() == hook.ID() {
			return fmt.Errorf("hook %q already registered", hook.ID())
		}
	}

	registered := false
	if ah, ok := hook.(AuthHook); ok {
		h.auth = append(h.auth, ah)
		registered = true
	}
	if zh, ok := hook.(AuthzHook); ok {
		h.authz = append(h.authz, zh)
		registered = true
	}
	if mh, ok := hook.(MessageHook); ok {
		h.message = append(h.message, mh)
		registered = true
	}
	if ch, ok := hook.(ConnectionHook); ok {
		h.connection = append(h.connection, ch)
		registered = true
	}
	if sh, ok := hook.(SessionHook); ok {
		h.session = append(h.session, sh)
		registered = true
	}
	if oh, ok := hook.(ObserverHook); ok {
		h.observer = append(h.observer, oh)
		registered = true
	}
	if rh, ok := hook.(RetainHook); ok {
		if h.retain != nil {
			return fmt.Errorf("retain hook already registered: %q", h.retain.ID())
		}
		h.retain = rh
		registered = true
	}
	if ph, ok := hook.(PersistenceHook); ok {
		if h.persistence != nil {
			return fmt.Errorf("persistence hook already registered: %q", h.persistence.ID())
		}
		h.persistence = ph
		registered = true
	}

	if !registered {
		return fmt.Errorf("hook %q implements no hook capability", hook.ID())
	}

	h.all = append(h.all, hook)
	return nil
}

// Stop stops every registered hook that implements StopperHook.
// The first error encountered is returned after all hooks were stopped.
func (h *Hooks) Stop() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for _, hook := range h.all {
		if sh, ok := hook.(StopperHook); ok {
			if err := sh.Stop(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// OnConnect runs auth hooks in registration order. The first error stops
// the chain and rejects the connection.
func (h *Hooks) OnConnect(ctx context.Context, client ClientInfo, pkt *packet.Connect) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.auth {
		if err := hook.OnConnect(ctx, client, pkt); err != nil {
			return err
		}
	}
	return nil
}

// CanSubscribe returns false if any authorization hook denies the filter.
func (h *Hooks) CanSubscribe(ctx context.Context, client ClientInfo, filter packet.Filter) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.authz {
		if !hook.CanSubscribe(ctx, client, filter) {
			return false
		}
	}
	return true
}

// OnPublish runs authorization hooks against an inbound publish.
func (h *Hooks) OnPublish(ctx context.Context, client ClientInfo, pkt *packet.Publish) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.authz {
		if err := hook.OnPublish(ctx, client, pkt); err != nil {
			return err
		}
	}
	return nil
}

// CanRead returns false if any authorization hook denies delivery.
func (h *Hooks) CanRead(ctx context.Context, client ClientInfo, topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.authz {
		if !hook.CanRead(ctx, client, topic) {
			return false
		}
	}
	return true
}

// OnPublishReceived lets message hooks transform or reject an inbound
// publish. Each hook receives the output of the previous one.
func (h *Hooks) OnPublishReceived(ctx context.Context, client ClientInfo, pkt *packet.Publish) (*packet.Publish, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.message {
		modified, err := hook.OnPublishReceived(ctx, client, pkt)
		if err != nil {
			return nil, err
		}
		if modified != nil {
			pkt = modified
		}
	}
	return pkt, nil
}

// OnPublishDeliver lets message hooks transform or skip a delivery.
func (h *Hooks) OnPublishDeliver(ctx context.Context, subscriber ClientInfo, pkt *packet.Publish) (*packet.Publish, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.message {
		modified, err := hook.OnPublishDeliver(ctx, subscriber, pkt)
		if err != nil {
			return nil, err
		}
		if modified != nil {
			pkt = modified
		}
	}
	return pkt, nil
}

// OnConnected notifies connection hooks of a successful connect.
func (h *Hooks) OnConnected(ctx context.Context, client ClientInfo) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.connection {
		hook.OnConnected(ctx, client)
	}
}

// OnDisconnect notifies connection hooks of a disconnect.
func (h *Hooks) OnDisconnect(ctx context.Context, client ClientInfo, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.connection {
		hook.OnDisconnect(ctx, client, err)
	}
}

// OnSessionCreated notifies session hooks of a new session.
func (h *Hooks) OnSessionCreated(ctx context.Context, client ClientInfo) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.session {
		hook.OnSessionCreated(ctx, client)
	}
}

// OnSessionResumed notifies session hooks of a resumed session.
func (h *Hooks) OnSessionResumed(ctx context.Context, client ClientInfo) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.session {
		hook.OnSessionResumed(ctx, client)
	}
}

// OnSessionEnded notifies session hooks of an ended session.
func (h *Hooks) OnSessionEnded(ctx context.Context, clientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.session {
		hook.OnSessionEnded(ctx, clientID)
	}
}

// OnFrameReceived notifies observers of a decoded inbound frame.
func (h *Hooks) OnFrameReceived(bytes int, t packet.Type) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.observer {
		hook.OnFrameReceived(bytes, t)
	}
}

// OnFrameSent notifies observers of an outbound frame.
func (h *Hooks) OnFrameSent(bytes int, t packet.Type) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.observer {
		hook.OnFrameSent(bytes, t)
	}
}

// OnDecodeError notifies observers of an undecodable datagram.
func (h *Hooks) OnDecodeError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.observer {
		hook.OnDecodeError(err)
	}
}

// Retain returns the registered retain hook, or nil.
func (h *Hooks) Retain() RetainHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.retain
}

// Persistence returns the registered persistence hook, or nil.
func (h *Hooks) Persistence() PersistenceHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.persistence
}
