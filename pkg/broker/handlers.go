package broker

import (
	"context"
	"errors"

	"github.com/bromq-dev/udpmq/pkg/packet"
	"github.com/bromq-dev/udpmq/pkg/topic"
)

// handleConnect authenticates the client, binds or creates its session
// and answers with a CONNACK echoing the request's message id.
func (b *Broker) handleConnect(ctx context.Context, ep Endpoint, msgID uint16, pkt *packet.Connect) {
	if pkt.ClientID == "" {
		b.send(ep, msgID, packet.NewConnack(false, packet.ConnectIdentifierRejected))
		return
	}

	client := newClient(ep, pkt.ClientID, pkt.Username, pkt.CleanSession, pkt.KeepAlive)

	if err := b.hooks.OnConnect(ctx, client, pkt); err != nil {
		code := packet.ConnectNotAuthorized
		var rce *ReturnCodeError
		if errors.As(err, &rce) {
			code = rce.Code
		}
		b.log.Info("connection rejected",
			"client", pkt.ClientID, "addr", ep.RemoteAddr(), "code", code.String())
		b.send(ep, msgID, packet.NewConnack(false, code))
		return
	}

	var (
		sess           *Session
		sessionPresent bool
	)
	if pkt.CleanSession {
		if old := b.sessions.Get(pkt.ClientID); old != nil {
			b.endSession(ctx, pkt.ClientID)
		}
		sess = b.sessions.Create(pkt.ClientID)
	} else {
		sess, sessionPresent = b.sessions.GetOrCreate(pkt.ClientID)
	}

	if old := b.registerClient(client); old != nil && old != client {
		b.log.Info("session taken over",
			"client", pkt.ClientID, "old_addr", old.RemoteAddr(), "new_addr", ep.RemoteAddr())
		b.hooks.OnDisconnect(ctx, old, ErrSessionTakenOver)
	}
	sess.SetClient(client)

	b.send(ep, msgID, packet.NewConnack(sessionPresent, packet.ConnectAccepted))

	b.log.Info("client connected",
		"client", pkt.ClientID, "addr", ep.RemoteAddr(),
		"keepalive", pkt.KeepAlive, "clean", pkt.CleanSession,
		"session_present", sessionPresent)

	b.hooks.OnConnected(ctx, client)
	if sessionPresent {
		b.hooks.OnSessionResumed(ctx, client)
	} else {
		b.hooks.OnSessionCreated(ctx, client)
	}
	b.persistSession(ctx, sess)
}

// handlePublish routes a publish to matching subscribers, updates the
// retained store and acknowledges QoS > 0 with a PUBACK echoing the
// request's message id.
func (b *Broker) handlePublish(ctx context.Context, client *Client, msgID uint16, pkt *packet.Publish) {
	if err := topic.ValidateName(pkt.Topic); err != nil {
		b.log.Debug("dropping publish with invalid topic",
			"client", client.id, "topic", pkt.Topic, "error", err)
		return
	}

	if err := b.hooks.OnPublish(ctx, client, pkt); err != nil {
		b.log.Debug("publish denied",
			"client", client.id, "topic", pkt.Topic, "error", err)
		return
	}

	modified, err := b.hooks.OnPublishReceived(ctx, client, pkt)
	if err != nil {
		b.log.Debug("publish rejected by hook",
			"client", client.id, "topic", pkt.Topic, "error", err)
		return
	}
	pkt = modified

	if pkt.Retain && b.config.RetainAvailable {
		b.storeRetained(ctx, pkt.Topic, pkt)
	}

	b.route(ctx, client.id, pkt)

	if pkt.QoS > packet.QoS0 {
		b.send(client.ep, msgID, &packet.Puback{})
	}
}

// route fans a publish out to every matching subscriber.
// The retain flag is cleared on routed copies; it only survives on
// deliveries from the retained store.
func (b *Broker) route(ctx context.Context, senderID string, pkt *packet.Publish) {
	for _, sub := range b.subscriptions.Match(pkt.Topic) {
		subscriber := b.clientByID(sub.ClientID)
		if subscriber == nil {
			// Session exists but the client is offline.
			continue
		}

		out := &packet.Publish{
			Topic:   pkt.Topic,
			QoS:     min(sub.QoS, pkt.QoS, b.config.MaxQoS),
			Payload: pkt.Payload,
		}
		b.deliver(ctx, subscriber, out)
	}
}

// deliver sends a publish to one client, applying read authorization and
// message hooks. Messages with QoS > 0 get a broker-allocated message id.
func (b *Broker) deliver(ctx context.Context, client *Client, pkt *packet.Publish) {
	if !b.hooks.CanRead(ctx, client, pkt.Topic) {
		return
	}

	modified, err := b.hooks.OnPublishDeliver(ctx, client, pkt)
	if err != nil {
		b.log.Debug("delivery skipped by hook",
			"client", client.id, "topic", pkt.Topic, "error", err)
		return
	}
	pkt = modified

	var msgID uint16
	if pkt.QoS > packet.QoS0 {
		msgID = client.allocID()
	}
	b.send(client.ep, msgID, pkt)
}

// handleSubscribe grants or denies each filter, answers with a SUBACK
// echoing the request's message id, then delivers matching retained
// messages for granted filters.
func (b *Broker) handleSubscribe(ctx context.Context, client *Client, msgID uint16, pkt *packet.Subscribe) {
	sess := b.sessions.Get(client.id)

	codes := make([]packet.SubAckReturnCode, len(pkt.Filters))
	granted := make([]packet.Filter, 0, len(pkt.Filters))

	for i, f := range pkt.Filters {
		if err := topic.ValidateFilter(f.Topic); err != nil {
			b.log.Debug("subscribe denied: invalid filter",
				"client", client.id, "filter", f.Topic, "error", err)
			codes[i] = packet.SubAckFailure
			continue
		}
		if !b.hooks.CanSubscribe(ctx, client, f) {
			b.log.Debug("subscribe denied by hook",
				"client", client.id, "filter", f.Topic)
			codes[i] = packet.SubAckFailure
			continue
		}

		qos := min(f.QoS, b.config.MaxQoS)
		codes[i] = packet.SubAckReturnCode(qos)

		b.subscriptions.Subscribe(f.Topic, &Subscriber{
			ClientID: client.id,
			QoS:      qos,
		})
		if sess != nil {
			sess.Subscribe(f.Topic, qos)
		}
		granted = append(granted, packet.Filter{Topic: f.Topic, QoS: qos})
	}

	b.send(client.ep, msgID, &packet.Suback{ReturnCodes: codes})

	if sess != nil {
		b.persistSession(ctx, sess)
	}

	if b.config.RetainAvailable {
		for _, f := range granted {
			b.sendRetained(ctx, client, f.Topic, f.QoS)
		}
	}
}

// handlePingreq answers with a PINGRESP echoing the request's message id.
func (b *Broker) handlePingreq(_ context.Context, client *Client, msgID uint16) {
	b.send(client.ep, msgID, &packet.Pingresp{})
}

// handleDisconnect ends the client's connection cleanly.
func (b *Broker) handleDisconnect(ctx context.Context, client *Client) {
	b.log.Info("client disconnected", "client", client.id, "addr", client.RemoteAddr())
	b.dropClient(ctx, client, nil)
}

// dropClient detaches a client from the broker. err is nil for a clean
// DISCONNECT. Clean sessions are removed; persistent sessions stay for a
// later resume.
func (b *Broker) dropClient(ctx context.Context, client *Client, err error) {
	b.unregisterClient(client)

	sess := b.sessions.Get(client.id)
	if sess != nil && sess.GetClient() == client {
		sess.SetClient(nil)
	}

	b.hooks.OnDisconnect(ctx, client, err)

	if client.cleanSession {
		b.endSession(ctx, client.id)
		return
	}
	if sess != nil {
		b.persistSession(ctx, sess)
	}
}

// endSession removes a session, its subscriptions and its persisted state.
func (b *Broker) endSession(ctx context.Context, clientID string) {
	b.subscriptions.UnsubscribeAll(clientID)
	b.sessions.Delete(clientID)

	if ph := b.hooks.Persistence(); ph != nil {
		if err := ph.DeleteSession(ctx, clientID); err != nil {
			b.log.Warn("session delete failed", "client", clientID, "error", err)
		}
	}
	b.hooks.OnSessionEnded(ctx, clientID)
}

func (b *Broker) persistSession(ctx context.Context, sess *Session) {
	ph := b.hooks.Persistence()
	if ph == nil {
		return
	}
	if err := ph.SaveSession(ctx, sess.State()); err != nil {
		b.log.Warn("session save failed", "client", sess.ClientID, "error", err)
	}
}
