package hooks

import (
	"context"
	"testing"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

func TestACLRules(t *testing.T) {
	h := NewACLHook(ACLConfig{
		Rules: []ACLRule{
			{Username: "sensor-*", TopicFilter: "sensors/#", Read: false, Write: true},
			{Username: "dashboard", TopicFilter: "sensors/#", Read: true, Write: false},
			{TopicFilter: "public/#", Read: true, Write: true},
		},
		DenyByDefault: true,
	})
	ctx := context.Background()

	sensor := fakeClient{id: "s1", username: "sensor-kitchen"}
	dashboard := fakeClient{id: "d1", username: "dashboard"}

	// Sensors may write but not read their topics.
	pub := packet.NewPublish("sensors/kitchen/temp", []byte("21"))
	if err := h.OnPublish(ctx, sensor, pub); err != nil {
		t.Errorf("sensor publish denied: %v", err)
	}
	if h.CanRead(ctx, sensor, "sensors/kitchen/temp") {
		t.Error("sensor read allowed")
	}

	// Dashboard may read but not write.
	if err := h.OnPublish(ctx, dashboard, pub); err == nil {
		t.Error("dashboard publish allowed")
	}
	if !h.CanSubscribe(ctx, dashboard, packet.Filter{Topic: "sensors/+/temp"}) {
		t.Error("dashboard subscribe denied")
	}

	// Everyone can use public topics.
	if err := h.OnPublish(ctx, sensor, packet.NewPublish("public/chat", []byte("hi"))); err != nil {
		t.Errorf("public publish denied: %v", err)
	}

	// Unmatched topics fall to the default.
	if h.CanRead(ctx, sensor, "private/other") {
		t.Error("deny-by-default did not deny")
	}
}

func TestACLAllowByDefault(t *testing.T) {
	h := NewACLHook(ACLConfig{})

	if !h.CanRead(context.Background(), fakeClient{id: "c"}, "any/topic") {
		t.Error("empty ACL must allow by default")
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"*", "anything", true},
		{"sensor-*", "sensor-kitchen", true},
		{"sensor-*", "dashboard", false},
		{"*-prod", "api-prod", true},
		{"*mid*", "has-mid-dle", true},
		{"exact", "exact", true},
		{"exact", "other", false},
	}

	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.value); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.value, got, tt.want)
		}
	}
}
