package hooks

import (
	"context"
	"strings"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/packet"
	"github.com/bromq-dev/udpmq/pkg/topic"
)

// ACLHook provides topic-based access control.
type ACLHook struct {
	rules         []ACLRule
	denyByDefault bool
}

// ACLRule defines an access control rule.
type ACLRule struct {
	// ClientID pattern (supports * wildcard, empty = any).
	ClientID string

	// Username pattern (supports * wildcard, empty = any).
	Username string

	// TopicFilter pattern (supports topic wildcards + and #).
	TopicFilter string

	// Access permissions.
	Read  bool
	Write bool
}

// ACLConfig configures the ACL hook.
type ACLConfig struct {
	// Rules defines the access control rules (evaluated in order).
	Rules []ACLRule

	// DenyByDefault denies access if no rule matches (default: false = allow).
	DenyByDefault bool
}

// NewACLHook creates a new access control hook.
func NewACLHook(cfg ACLConfig) *ACLHook {
	return &ACLHook{
		rules:         cfg.Rules,
		denyByDefault: cfg.DenyByDefault,
	}
}

func (h *ACLHook) ID() string { return "acl" }

// CanSubscribe checks read permission for a subscription filter.
func (h *ACLHook) CanSubscribe(ctx context.Context, client broker.ClientInfo, filter packet.Filter) bool {
	return h.canAccess(client, filter.Topic, true)
}

// OnPublish checks write permission for the topic.
func (h *ACLHook) OnPublish(ctx context.Context, client broker.ClientInfo, pkt *packet.Publish) error {
	if !h.canAccess(client, pkt.Topic, false) {
		return broker.NewReturnCodeError(packet.ConnectNotAuthorized, "publish denied by ACL")
	}
	return nil
}

// CanRead checks if a client can receive messages on a topic.
func (h *ACLHook) CanRead(ctx context.Context, client broker.ClientInfo, topicName string) bool {
	return h.canAccess(client, topicName, true)
}

func (h *ACLHook) canAccess(client broker.ClientInfo, topicPattern string, read bool) bool {
	for _, rule := range h.rules {
		if !h.matchClient(rule, client) {
			continue
		}
		if !topic.Match(rule.TopicFilter, topicPattern) {
			continue
		}
		// Rule matches - check permission
		if read {
			return rule.Read
		}
		return rule.Write
	}
	// No rule matched
	return !h.denyByDefault
}

func (h *ACLHook) matchClient(rule ACLRule, client broker.ClientInfo) bool {
	if rule.ClientID != "" && !matchPattern(rule.ClientID, client.ClientID()) {
		return false
	}
	if rule.Username != "" && !matchPattern(rule.Username, client.Username()) {
		return false
	}
	return true
}

// matchPattern matches a simple wildcard pattern (* = any).
func matchPattern(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		return strings.Contains(value, pattern[1:len(pattern)-1])
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(value, pattern[1:])
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(value, pattern[:len(pattern)-1])
	}
	return pattern == value
}

// AddRule adds a rule at runtime.
func (h *ACLHook) AddRule(rule ACLRule) {
	h.rules = append(h.rules, rule)
}

// ClearRules removes all rules.
func (h *ACLHook) ClearRules() {
	h.rules = nil
}
