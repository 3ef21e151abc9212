package state

import (
	"sync"
	"testing"
)

type step string

const (
	idle    step = "idle"
	waiting step = "waiting"
)

func TestStoreLifecycle(t *testing.T) {
	s := New(idle)
	if got := s.Get(7); got != idle {
		t.Fatalf("Get = %q, want idle", got)
	}
	s.Set(7, waiting)
	if got := s.Get(7); got != waiting || !s.Active(7) {
		t.Fatalf("Get = %q active=%v", got, s.Active(7))
	}
	if s.Active(8) {
		t.Fatal("values must be keyed per user")
	}
	s.Set(7, idle)
	if s.Active(7) || s.Len() != 0 {
		t.Fatal("idle must drop the entry")
	}
	s.Set(9, waiting)
	s.Clear(9)
	if s.Get(9) != idle {
		t.Fatal("Clear must reset to idle")
	}
}

func TestStoreZeroValueIsIdle(t *testing.T) {
	s := New(idle)
	s.Set(1, "")
	if s.Active(1) {
		t.Fatal("zero value must not be stored")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New(idle)
	var wg sync.WaitGroup
	for i := range int64(32) {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, waiting)
			_ = s.Get(id)
			s.Clear(id)
		}(i)
	}
	wg.Wait()
	if n := s.Len(); n != 0 {
		t.Fatalf("Len = %d, want 0", n)
	}
}
