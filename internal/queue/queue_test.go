package queue

import (
	"sync"
	"testing"
)

type message struct {
	Seq  int
	Text string
}

func TestQueue_PopOrder(t *testing.T) {
	q := New[message]()

	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty pop to report false")
	}

	q.Push(message{Seq: 1, Text: "landing"}, message{Seq: 2, Text: "takeoff"})
	first, ok := q.Pop()
	if !ok || first.Seq != 1 {
		t.Errorf("expected seq 1, got %+v", first)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueue_GetAndEmpty(t *testing.T) {
	q := New[message]()
	q.Push(message{Seq: 1}, message{Seq: 2}, message{Seq: 3})

	items := q.GetAndEmpty()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, item := range items {
		if item.Seq != i+1 {
			t.Errorf("item %d: expected seq %d, got %d", i, i+1, item.Seq)
		}
	}
	if !q.Empty() {
		t.Error("expected queue to be empty after GetAndEmpty")
	}

	// the returned slice must not alias the queue's new backing array
	q.Push(message{Seq: 9})
	if items[0].Seq != 1 {
		t.Errorf("drained slice was overwritten: %+v", items[0])
	}
}

func TestQueue_BoundedDropsOldest(t *testing.T) {
	q := NewBounded[int](3)
	q.Push(1, 2, 3)
	q.Push(4, 5)

	got := q.GetAndEmpty()
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
	if q.Dropped() != 2 {
		t.Errorf("expected 2 dropped, got %d", q.Dropped())
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New[int]()
	q.Push(1, 2)
	q.Clear()
	if !q.Empty() {
		t.Error("expected empty queue after Clear")
	}
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(n*100 + j)
			}
		}(i)
	}
	wg.Wait()

	if q.Len() != 1000 {
		t.Errorf("expected 1000 items, got %d", q.Len())
	}
}
