package store

import (
	"context"
	"errors"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Get(ctx, "@RocketShoes:cart"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty dir, got %v", err)
	}

	if err := s.Set(ctx, "@RocketShoes:cart", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "@RocketShoes:cart", []byte(`[{"id":2}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, "@RocketShoes:cart")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":2}]` {
		t.Fatalf("expected last write, got %s", got)
	}

	// a second store over the same directory sees the same value
	again, _ := NewFileStore(s.Dir)
	got, err = again.Get(ctx, "@RocketShoes:cart")
	if err != nil || string(got) != `[{"id":2}]` {
		t.Fatalf("reopened store: %s, %v", got, err)
	}
}

func TestFileStore_RequiresDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := []byte(`[1]`)
	if err := s.Set(ctx, "k", in); err != nil {
		t.Fatalf("Set: %v", err)
	}
	in[1] = '9'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[1]` {
		t.Fatalf("stored value aliased caller slice: %s", got)
	}
	if _, err := s.Get(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
