package util

import (
	"sync"
	"testing"
)

func TestThreadSafeQueueOrder(t *testing.T) {
	q := NewThreadSafeQueue[int]()
	for i := 0; i < 3; i++ {
		q.Push(i)
	}
	if v, ok := q.Pop(); !ok || v != 0 {
		t.Fatalf("Pop() = %d, %v, want 0, true", v, ok)
	}
	all := q.PopAll()
	if len(all) != 2 || all[0] != 1 || all[1] != 2 {
		t.Errorf("PopAll() = %v, want [1 2]", all)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue returned ok")
	}
	if q.PopAll() != nil {
		t.Error("PopAll() on empty queue returned items")
	}
}

func TestThreadSafeQueueConcurrentPush(t *testing.T) {
	q := NewThreadSafeQueue[int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()
	if got := q.Len(); got != 800 {
		t.Errorf("Len() = %d, want 800", got)
	}
}
