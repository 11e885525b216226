package conversation

import (
	"sync"
	"testing"
	"time"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := NewKeyMutex()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("tenant-1", "+34600000001")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("same-key holders should never overlap, saw %d concurrent", maxActive)
	}
}

func TestKeyMutexDistinctKeysRunInParallel(t *testing.T) {
	km := NewKeyMutex()

	unlockA := km.Lock("tenant-1", "+34600000001")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("tenant-1", "+34600000002")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a different conversation key should not block")
	}
}

func TestKeyMutexReacquireAfterUnlock(t *testing.T) {
	km := NewKeyMutex()

	unlock := km.Lock("tenant-1", "+34600000001")
	unlock()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("tenant-1", "+34600000001")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock should be reacquirable after release")
	}
}
