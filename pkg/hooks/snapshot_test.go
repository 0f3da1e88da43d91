package hooks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

func TestSnapshotRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.snapshot")
	ctx := context.Background()

	h := NewSnapshotHook(path)
	state := &broker.SessionState{
		ClientID: "durable",
		Subscriptions: map[string]packet.QoS{
			"home/+/temp": packet.QoS1,
			"office/#":    packet.QoS0,
		},
		CreatedAt: 1700000000,
		LastSeen:  1700000100,
	}
	if err := h.SaveSession(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh hook reads the same file, as after a broker restart.
	restored := NewSnapshotHook(path)
	states, err := restored.LoadSessions(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("got %d sessions, want 1", len(states))
	}
	got := states[0]
	if got.ClientID != "durable" || got.CreatedAt != 1700000000 {
		t.Errorf("session fields lost: %+v", got)
	}
	if got.Subscriptions["home/+/temp"] != packet.QoS1 {
		t.Errorf("subscriptions lost: %+v", got.Subscriptions)
	}
}

func TestSnapshotDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.snapshot")
	ctx := context.Background()

	h := NewSnapshotHook(path)
	h.SaveSession(ctx, &broker.SessionState{ClientID: "a"})
	h.SaveSession(ctx, &broker.SessionState{ClientID: "b"})

	if err := h.DeleteSession(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	states, err := NewSnapshotHook(path).LoadSessions(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(states) != 1 || states[0].ClientID != "b" {
		t.Errorf("got %+v, want only session b", states)
	}
}

func TestSnapshotMissingFile(t *testing.T) {
	h := NewSnapshotHook(filepath.Join(t.TempDir(), "does-not-exist"))

	states, err := h.LoadSessions(context.Background())
	if err != nil {
		t.Fatalf("missing file must load as empty: %v", err)
	}
	if len(states) != 0 {
		t.Errorf("got %d sessions from missing file", len(states))
	}
}
