package broker

import (
	"context"

	"github.com/bromq-dev/udpmq/pkg/packet"
	"github.com/bromq-dev/udpmq/pkg/topic"
)

// storeRetained stores or deletes a retained message.
// An empty payload clears the retained message for the topic.
func (b *Broker) storeRetained(ctx context.Context, topicName string, pkt *packet.Publish) {
	if rh := b.hooks.Retain(); rh != nil {
		if err := rh.StoreRetained(ctx, topicName, pkt); err != nil {
			b.log.Warn("retain hook store failed", "topic", topicName, "error", err)
		}
		return
	}

	b.retainedMu.Lock()
	defer b.retainedMu.Unlock()

	if len(pkt.Payload) == 0 {
		delete(b.retained, topicName)
		return
	}

	stored := &packet.Publish{
		Topic:   pkt.Topic,
		QoS:     pkt.QoS,
		Retain:  true,
		Payload: make([]byte, len(pkt.Payload)),
	}
	copy(stored.Payload, pkt.Payload)
	b.retained[topicName] = stored
}

// matchRetained returns retained messages matching a filter.
func (b *Broker) matchRetained(ctx context.Context, filter string) []*packet.Publish {
	if rh := b.hooks.Retain(); rh != nil {
		messages, err := rh.GetRetained(ctx, filter)
		if err != nil {
			b.log.Warn("retain hook lookup failed", "filter", filter, "error", err)
			return nil
		}
		return messages
	}

	b.retainedMu.RLock()
	defer b.retainedMu.RUnlock()

	var result []*packet.Publish
	for topicName, msg := range b.retained {
		if topic.Match(filter, topicName) {
			result = append(result, msg)
		}
	}
	return result
}

// sendRetained delivers retained messages matching a granted filter to a
// freshly subscribed client.
func (b *Broker) sendRetained(ctx context.Context, client *Client, filter string, grantedQoS packet.QoS) {
	for _, msg := range b.matchRetained(ctx, filter) {
		deliverQoS := min(grantedQoS, msg.QoS)

		pkt := &packet.Publish{
			Topic:   msg.Topic,
			QoS:     deliverQoS,
			Retain:  true,
			Payload: msg.Payload,
		}
		b.deliver(ctx, client, pkt)
	}
}

// retainedCount returns the number of retained messages in the in-memory
// store. Returns 0 when a retain hook owns storage.
func (b *Broker) retainedCount() int {
	b.retainedMu.RLock()
	defer b.retainedMu.RUnlock()
	return len(b.retained)
}
