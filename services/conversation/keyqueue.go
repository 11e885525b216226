package conversation

import (
	"fmt"
	"sync"
)

// KeyQueue runs submitted tasks one at a time per conversation key, in
// arrival order. Distinct keys drain concurrently. Unlike a bare mutex,
// which hands the lock to whichever waiter the scheduler wakes first,
// the queue preserves FIFO order for a key across submissions.
type KeyQueue struct {
	mu      sync.Mutex
	pending map[string][]func()
}

// NewKeyQueue constructs an empty queue table.
func NewKeyQueue() *KeyQueue {
	return &KeyQueue{pending: make(map[string][]func())}
}

// Submit appends the task to the key's queue and returns immediately.
// The first task for an idle key starts a drainer goroutine; the drainer
// exits once the key's queue is empty.
func (q *KeyQueue) Submit(tenantID, userID string, task func()) {
	key := fmt.Sprintf("%s:%s", tenantID, userID)

	q.mu.Lock()
	queue, running := q.pending[key]
	q.pending[key] = append(queue, task)
	q.mu.Unlock()

	if !running {
		go q.drain(key)
	}
}

// drain owns the key's map entry until the queue empties. Deleting the
// entry under the lock is what lets Submit detect an idle key.
func (q *KeyQueue) drain(key string) {
	for {
		q.mu.Lock()
		queue := q.pending[key]
		if len(queue) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		task := queue[0]
		q.pending[key] = queue[1:]
		q.mu.Unlock()

		task()
	}
}
