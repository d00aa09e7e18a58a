package store

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "record:1", "payload"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	val, ok, err := s.Get(ctx, "record:1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !ok || val != "payload" {
		t.Errorf("Expected stored payload, got %q ok=%v", val, ok)
	}

	_, ok, err = s.Get(ctx, "record:missing")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if ok {
		t.Error("Expected missing key to report not found")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Set(ctx, "record:1", "payload")
	if err := s.Delete(ctx, "record:1"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "record:1"); ok {
		t.Error("Expected key to be gone after delete")
	}

	// Deleting a missing key is a no-op.
	if err := s.Delete(ctx, "record:missing"); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestMemoryStoreListKeysByPrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Set(ctx, "record:b", "1")
	s.Set(ctx, "record:a", "2")
	s.Set(ctx, "cache:x", "3")

	keys, err := s.ListKeys(ctx, "record:")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(keys))
	}
	if keys[0] != "record:a" || keys[1] != "record:b" {
		t.Errorf("Expected sorted record keys, got %v", keys)
	}

	keys, _ = s.ListKeys(ctx, "nope:")
	if len(keys) != 0 {
		t.Errorf("Expected no keys for unknown prefix, got %v", keys)
	}
}
