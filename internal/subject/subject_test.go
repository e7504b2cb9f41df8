package subject

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSubscribeNext(t *testing.T) {
	var s Subject[int]
	var got []int
	sub := s.Subscribe(func(v int) { got = append(got, v) })
	s.Next(1)
	s.Next(2)
	sub.Unsubscribe()
	s.Next(3)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestUnsubscribeMidDispatch(t *testing.T) {
	var s Subject[int]
	var sub1 *Subscription
	var first, second []int
	sub1 = s.Subscribe(func(v int) {
		first = append(first, v)
		sub1.Unsubscribe() // must not skip the next observer
	})
	s.Subscribe(func(v int) { second = append(second, v) })
	s.Next(1)
	s.Next(2)
	if len(first) != 1 {
		t.Errorf("first observer got %v, want one value", first)
	}
	if len(second) != 2 {
		t.Errorf("second observer got %v, want two values", second)
	}
}

func TestSubscribeMidDispatchNotNotified(t *testing.T) {
	var s Subject[int]
	var late []int
	s.Subscribe(func(v int) {
		if v == 1 {
			s.Subscribe(func(v int) { late = append(late, v) })
		}
	})
	s.Next(1)
	if len(late) != 0 {
		t.Fatalf("late subscriber saw the in-flight value: %v", late)
	}
	s.Next(2)
	if len(late) != 1 || late[0] != 2 {
		t.Fatalf("late subscriber got %v, want [2]", late)
	}
}

func TestDoubleUnsubscribe(t *testing.T) {
	var s Subject[string]
	sub := s.Subscribe(func(string) {})
	sub.Unsubscribe()
	sub.Unsubscribe()
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

// Dispatch and unsubscribe may run on different goroutines: a delayed
// error commit publishes from its timer goroutine while the subscriber
// tears down on its own. Exercised under the race detector.
func TestConcurrentNextAndUnsubscribe(t *testing.T) {
	var s Subject[int]
	var delivered atomic.Int64
	subs := make([]*Subscription, 64)
	for i := range subs {
		subs[i] = s.Subscribe(func(int) { delivered.Add(1) })
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Next(i)
		}
	}()
	go func() {
		defer wg.Done()
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()
	wg.Wait()
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after all unsubscribed", s.Len())
	}
	before := delivered.Load()
	s.Next(1)
	if delivered.Load() != before {
		t.Fatalf("delivery after all observers unsubscribed")
	}
}

func TestClose(t *testing.T) {
	var s Subject[int]
	n := 0
	s.Subscribe(func(int) { n++ })
	s.Close()
	s.Next(1)
	if n != 0 {
		t.Fatalf("observer notified after Close")
	}
}
