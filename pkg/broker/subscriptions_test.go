package broker

import (
	"testing"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

func TestTreeSubscribeAndMatch(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe("home/+/temp", &Subscriber{ClientID: "a", QoS: packet.QoS1})
	tree.Subscribe("home/kitchen/temp", &Subscriber{ClientID: "b", QoS: packet.QoS0})
	tree.Subscribe("office/#", &Subscriber{ClientID: "c", QoS: packet.QoS2})

	subs := tree.Match("home/kitchen/temp")
	if len(subs) != 2 {
		t.Fatalf("got %d subscribers, want 2", len(subs))
	}

	subs = tree.Match("office/desk/lamp")
	if len(subs) != 1 || subs[0].ClientID != "c" {
		t.Fatalf("got %v, want only client c", subs)
	}

	if subs := tree.Match("garage/door"); len(subs) != 0 {
		t.Errorf("got %d subscribers for unmatched topic", len(subs))
	}
}

func TestTreeMultiWildcardMatchesParent(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe("office/#", &Subscriber{ClientID: "a", QoS: packet.QoS0})

	if subs := tree.Match("office"); len(subs) != 1 {
		t.Errorf("a/# must match a itself: got %d", len(subs))
	}
}

func TestTreeClientAppearsOnce(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe("a/#", &Subscriber{ClientID: "x", QoS: packet.QoS0})
	tree.Subscribe("a/+", &Subscriber{ClientID: "x", QoS: packet.QoS1})

	if subs := tree.Match("a/b"); len(subs) != 1 {
		t.Errorf("overlapping filters: got %d entries for one client", len(subs))
	}
}

func TestTreeResubscribeReplaces(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe("a/b", &Subscriber{ClientID: "x", QoS: packet.QoS0})
	tree.Subscribe("a/b", &Subscriber{ClientID: "x", QoS: packet.QoS2})

	if got := tree.Count(); got != 1 {
		t.Fatalf("got %d subscriptions, want 1", got)
	}
	subs := tree.Match("a/b")
	if len(subs) != 1 || subs[0].QoS != packet.QoS2 {
		t.Errorf("resubscribe did not replace: %v", subs)
	}
}

func TestTreeUnsubscribe(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe("a/b", &Subscriber{ClientID: "x", QoS: packet.QoS0})

	if !tree.Unsubscribe("a/b", "x") {
		t.Error("unsubscribe returned false for existing subscription")
	}
	if tree.Unsubscribe("a/b", "x") {
		t.Error("unsubscribe returned true for missing subscription")
	}
	if got := tree.Count(); got != 0 {
		t.Errorf("got %d subscriptions after unsubscribe", got)
	}
}

func TestTreeUnsubscribeAll(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe("a/b", &Subscriber{ClientID: "x", QoS: packet.QoS0})
	tree.Subscribe("c/+", &Subscriber{ClientID: "x", QoS: packet.QoS1})
	tree.Subscribe("a/b", &Subscriber{ClientID: "y", QoS: packet.QoS0})

	tree.UnsubscribeAll("x")

	if got := tree.Count(); got != 1 {
		t.Errorf("got %d subscriptions, want 1", got)
	}
	subs := tree.Match("a/b")
	if len(subs) != 1 || subs[0].ClientID != "y" {
		t.Errorf("wrong survivor: %v", subs)
	}
}

func TestTreeSysTopicsSkipWildcards(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe("#", &Subscriber{ClientID: "all", QoS: packet.QoS0})
	tree.Subscribe("$SYS/#", &Subscriber{ClientID: "sys", QoS: packet.QoS0})

	subs := tree.Match("$SYS/broker/uptime")
	if len(subs) != 1 || subs[0].ClientID != "sys" {
		t.Errorf("$SYS topic matched a top-level wildcard: %v", subs)
	}

	subs = tree.Match("normal/topic")
	if len(subs) != 1 || subs[0].ClientID != "all" {
		t.Errorf("normal topic: %v", subs)
	}
}
