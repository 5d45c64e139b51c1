package cache

import (
	"context"
	"sync"
	"time"

	"github.com/johnquangdev/meeting-capture/internal/domain/repositories"
)

// MemoryStatusStore is the in-process fallback for deployments without
// Redis. Entries expire like their Redis counterparts so a crashed session
// does not stay listed forever.
type MemoryStatusStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
}

type memoryItem struct {
	state      string
	expireTime time.Time
}

// NewMemoryStatusStore creates a new in-memory status store
func NewMemoryStatusStore() *MemoryStatusStore {
	store := &MemoryStatusStore{
		items: make(map[string]*memoryItem),
	}

	// Cleanup goroutine removes expired items
	go store.cleanupExpired()

	return store
}

// SetSessionState records the current state of an active session
func (ms *MemoryStatusStore) SetSessionState(_ context.Context, meetingID, state string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[meetingID] = &memoryItem{
		state:      state,
		expireTime: time.Now().Add(sessionTTL),
	}
	return nil
}

// ClearSession removes a session entry
func (ms *MemoryStatusStore) ClearSession(_ context.Context, meetingID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, meetingID)
	return nil
}

// ListSessions retrieves all currently published sessions
func (ms *MemoryStatusStore) ListSessions(_ context.Context) ([]repositories.SessionStatus, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := time.Now()
	var sessions []repositories.SessionStatus
	for id, item := range ms.items {
		if now.After(item.expireTime) {
			continue
		}
		sessions = append(sessions, repositories.SessionStatus{
			MeetingID: id,
			State:     item.state,
		})
	}
	return sessions, nil
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStatusStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ms.mu.Lock()
		now := time.Now()
		for key, item := range ms.items {
			if now.After(item.expireTime) {
				delete(ms.items, key)
			}
		}
		ms.mu.Unlock()
	}
}
