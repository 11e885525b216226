package conversation

import (
	"fmt"
	"sync"
)

// KeyMutex serializes work per (tenant, end user) key. Distinct keys run
// in parallel; same-key operations queue up in FIFO arrival order, which
// keeps ownership transitions and booking rechecks from interleaving.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyMutex constructs an empty lock table.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a conversation key and returns its unlock
// function.
func (k *KeyMutex) Lock(tenantID, userID string) func() {
	key := fmt.Sprintf("%s:%s", tenantID, userID)

	k.mu.Lock()
	lock, exists := k.locks[key]
	if !exists {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
