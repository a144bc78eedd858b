package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	var l Locker
	var mu sync.Mutex
	active, maxActive := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("main/2023-02-01")
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
		t.Errorf("expected at most one holder, saw %d", maxActive)
	}
	if l.Len() != 0 {
		t.Errorf("expected released keys to be forgotten, %d remain", l.Len())
	}
}

func TestLockDistinctKeysDoNotBlock(t *testing.T) {
	var l Locker
	unlockMain := l.Lock("main/2023-02-01")
	defer unlockMain()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("archive/2023-02-01")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	var l Locker
	unlock := l.Lock("k")
	unlock()
	unlock()

	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	// The key must still be lockable after a double unlock.
	again := l.Lock("k")
	again()
}
