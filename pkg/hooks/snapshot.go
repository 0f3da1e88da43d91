package hooks

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bromq-dev/udpmq/pkg/broker"
)

// SnapshotHook persists sessions to a msgpack file on local disk.
// Every change rewrites the file through an atomic rename, so a crash
// never leaves a half-written snapshot.
type SnapshotHook struct {
	path string

	mu       sync.Mutex
	sessions map[string]*broker.SessionState
}

// NewSnapshotHook creates a file-backed persistence hook. The file is
// read on first LoadSessions; a missing file is an empty snapshot.
func NewSnapshotHook(path string) *SnapshotHook {
	return &SnapshotHook{
		path:     path,
		sessions: make(map[string]*broker.SessionState),
	}
}

func (h *SnapshotHook) ID() string { return "snapshot" }

// SaveSession persists session state.
func (h *SnapshotHook) SaveSession(_ context.Context, state *broker.SessionState) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[state.ClientID] = state
	return h.flush()
}

// LoadSessions loads all persisted sessions from the snapshot file.
func (h *SnapshotHook) LoadSessions(_ context.Context) ([]*broker.SessionState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var stored []*broker.SessionState
	if err := msgpack.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	h.sessions = make(map[string]*broker.SessionState, len(stored))
	for _, state := range stored {
		h.sessions[state.ClientID] = state
	}
	return stored, nil
}

// DeleteSession removes persisted session state.
func (h *SnapshotHook) DeleteSession(_ context.Context, clientID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[clientID]; !ok {
		return nil
	}
	delete(h.sessions, clientID)
	return h.flush()
}

// flush writes the snapshot. Callers hold h.mu.
func (h *SnapshotHook) flush() error {
	states := make([]*broker.SessionState, 0, len(h.sessions))
	for _, state := range h.sessions {
		states = append(states, state)
	}

	data, err := msgpack.Marshal(states)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), h.path)
}
