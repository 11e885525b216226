package conversation

import (
	"sync"
	"testing"
	"time"
)

func TestKeyQueuePreservesSubmissionOrder(t *testing.T) {
	q := NewKeyQueue()

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		q.Submit("tenant-1", "+34600000001", func() {
			defer wg.Done()
			// Yield so a later submission could overtake if ordering
			// relied on scheduler luck.
			time.Sleep(time.Millisecond)
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d; order: %v", v, i, got)
		}
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 tasks to run, got %d", len(got))
	}
}

func TestKeyQueueDistinctKeysDrainConcurrently(t *testing.T) {
	q := NewKeyQueue()

	release := make(chan struct{})
	q.Submit("tenant-1", "+34600000001", func() { <-release })

	done := make(chan struct{})
	q.Submit("tenant-1", "+34600000002", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a different conversation key should not wait behind a blocked one")
	}
	close(release)
}

func TestKeyQueueRestartsAfterDraining(t *testing.T) {
	q := NewKeyQueue()

	first := make(chan struct{})
	q.Submit("tenant-1", "+34600000001", func() { close(first) })
	select {
	case <-first:
	case <-time.After(time.Second):
		t.Fatal("first task did not run")
	}

	// The drainer for the key has exited by now (or is about to); a new
	// submission must start it again.
	second := make(chan struct{})
	q.Submit("tenant-1", "+34600000001", func() { close(second) })
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("task submitted after drain did not run")
	}
}
