package broker

import (
	"sync"

	"github.com/bromq-dev/udpmq/pkg/packet"
	"github.com/bromq-dev/udpmq/pkg/topic"
)

// Subscriber represents a subscription entry. Subscriptions are keyed by
// client identifier so they survive endpoint changes within a session.
type Subscriber struct {
	ClientID string
	QoS      packet.QoS
}

// SubscriptionTree is a trie-based structure for efficient topic matching.
// It supports wildcard subscriptions (+, #).
type SubscriptionTree struct {
	mu   sync.RWMutex
	root *trieNode
}

// trieNode represents a node in the subscription trie.
type trieNode struct {
	children    map[string]*trieNode
	subscribers map[string]*Subscriber // client id -> subscription at this level
}

// NewSubscriptionTree creates a new subscription tree.
func NewSubscriptionTree() *SubscriptionTree {
	return &SubscriptionTree{
		root: newTrieNode(),
	}
}

func newTrieNode() *trieNode {
	return &trieNode{
		children:    make(map[string]*trieNode),
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe adds a subscription to the tree. A subscription from the same
// client on the same filter replaces the previous one.
func (t *SubscriptionTree) Subscribe(filter string, sub *Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()

	levels := topic.Levels(filter)
	node := t.root

	for _, level := range levels {
		child, ok := node.children[level]
		if !ok {
			child = newTrieNode()
			node.children[level] = child
		}
		node = child
	}

	node.subscribers[sub.ClientID] = sub
}

// Unsubscribe removes a subscription from the tree.
func (t *SubscriptionTree) Unsubscribe(filter, clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	levels := topic.Levels(filter)
	node := t.root

	for _, level := range levels {
		child, ok := node.children[level]
		if !ok {
			return false
		}
		node = child
	}

	if _, ok := node.subscribers[clientID]; ok {
		delete(node.subscribers, clientID)
		return true
	}
	return false
}

// UnsubscribeAll removes all subscriptions for a client.
func (t *SubscriptionTree) UnsubscribeAll(clientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.unsubscribeAllRecursive(t.root, clientID)
}

func (t *SubscriptionTree) unsubscribeAllRecursive(node *trieNode, clientID string) {
	delete(node.subscribers, clientID)

	for _, child := range node.children {
		t.unsubscribeAllRecursive(child, clientID)
	}
}

// Match returns all subscribers that match a topic name.
// Each client appears at most once; overlapping filters keep the first
// subscription found.
func (t *SubscriptionTree) Match(topicName string) []*Subscriber {
	t.mu.RLock()
	defer t.mu.RUnlock()

	levels := topic.Levels(topicName)
	var result []*Subscriber
	seen := make(map[string]bool)

	// Topics starting with $ don't match wildcards at the first level
	isSysTopic := topic.IsSysTopic(topicName)

	t.matchRecursive(t.root, levels, 0, isSysTopic, &result, seen)

	return result
}

func (t *SubscriptionTree) matchRecursive(node *trieNode, levels []string, idx int, isSysTopic bool, result *[]*Subscriber, seen map[string]bool) {
	if idx == len(levels) {
		collect(node, result, seen)

		// "a/#" also matches "a" itself
		if hashNode, ok := node.children["#"]; ok {
			collect(hashNode, result, seen)
		}
		return
	}

	level := levels[idx]

	if child, ok := node.children[level]; ok {
		t.matchRecursive(child, levels, idx+1, isSysTopic, result, seen)
	}

	if isSysTopic && idx == 0 {
		return
	}

	if plusNode, ok := node.children["+"]; ok {
		t.matchRecursive(plusNode, levels, idx+1, isSysTopic, result, seen)
	}

	if hashNode, ok := node.children["#"]; ok {
		collect(hashNode, result, seen)
	}
}

func collect(node *trieNode, result *[]*Subscriber, seen map[string]bool) {
	for _, sub := range node.subscribers {
		if !seen[sub.ClientID] {
			seen[sub.ClientID] = true
			*result = append(*result, sub)
		}
	}
}

// Count returns the total number of subscriptions.
func (t *SubscriptionTree) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.countRecursive(t.root)
}

func (t *SubscriptionTree) countRecursive(node *trieNode) int {
	count := len(node.subscribers)
	for _, child := range node.children {
		count += t.countRecursive(child)
	}
	return count
}
