package ws

import (
	"sort"
	"sync"
	"time"
)

// ConnectionRecord maps a user to their single live connection.
type ConnectionRecord struct {
	UserID      int
	ConnID      string
	ConnectedAt time.Time
}

// Registry is the single source of truth for who is online. One live
// presence slot per user: a later registration replaces an earlier one.
// Mutations happen only on the hub's run loop; the mutex exists so message
// delivery can look up receivers from request goroutines.
type Registry struct {
	mu      sync.RWMutex
	records map[int]ConnectionRecord
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[int]ConnectionRecord)}
}

// Register inserts or overwrites the mapping for userID.
func (r *Registry) Register(userID int, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[userID] = ConnectionRecord{
		UserID:      userID,
		ConnID:      connID,
		ConnectedAt: time.Now(),
	}
}

// Unregister removes the mapping only if the stored connection ID matches
// the one disconnecting. A stale disconnect (the user already reconnected)
// must not evict the newer connection. Reports whether a record was removed.
func (r *Registry) Unregister(userID int, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[userID]
	if !ok || record.ConnID != connID {
		return false
	}
	delete(r.records, userID)
	return true
}

// Lookup returns the connection ID currently registered for userID.
func (r *Registry) Lookup(userID int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[userID]
	return record.ConnID, ok
}

// OnlineUsers returns the current key set, sorted for stable output.
func (r *Registry) OnlineUsers() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]int, 0, len(r.records))
	for userID := range r.records {
		users = append(users, userID)
	}
	sort.Ints(users)
	return users
}
