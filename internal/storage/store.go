// Package storage provides cart snapshot persistence.
//
// The cart treats durability as best effort: a failed save is logged by
// the caller and the in-memory cart stays authoritative. Snapshots carry
// their save time so hydration can reject stale carts.
package storage

import (
	"context"
	"sync"

	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// Store is the persistence contract for cart snapshots.
type Store interface {
	// Save persists the snapshot, replacing any previous one.
	Save(ctx context.Context, snap types.CartSnapshot) error
	// Load returns the persisted snapshot, ok=false when absent.
	Load(ctx context.Context) (types.CartSnapshot, bool, error)
	// Delete removes the persisted snapshot.
	Delete(ctx context.Context) error
}

// Memory is an in-process Store, used in tests and when the kiosk runs
// without a persistence backend.
type Memory struct {
	mu   sync.Mutex
	snap types.CartSnapshot
	set  bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, snap types.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.set = true
	return nil
}

func (m *Memory) Load(_ context.Context) (types.CartSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return types.CartSnapshot{}, false, nil
	}
	return m.snap, true, nil
}

func (m *Memory) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = types.CartSnapshot{}
	m.set = false
	return nil
}
