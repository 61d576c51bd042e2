package rag

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("lookup on empty registry must miss")
	}

	handle := &MockCollection{name: "a"}
	r.Register("a", handle)
	got, ok := r.Lookup("a")
	if !ok || got.Name() != "a" {
		t.Fatalf("unexpected lookup result: %v %v", got, ok)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register("a", &MockCollection{name: "first"})
	r.Register("a", &MockCollection{name: "second"})
	got, _ := r.Lookup("a")
	if got.Name() != "second" {
		t.Fatalf("expected last write to win, got %s", got.Name())
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", r.Len())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("col-%d", i)
		go func() {
			defer wg.Done()
			r.Register(id, &MockCollection{name: id})
		}()
		go func() {
			defer wg.Done()
			r.Lookup(id)
		}()
	}
	wg.Wait()
	if r.Len() != 50 {
		t.Fatalf("expected 50 sessions, got %d", r.Len())
	}
}
