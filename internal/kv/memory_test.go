package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("unexpected value: %q", got)
	}

	// Stored bytes must not alias the caller's slice.
	got[0] = 'X'
	again, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if string(again) != "v1" {
		t.Fatalf("stored value was mutated through a returned slice: %q", again)
	}

	if err := store.Put(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = store.Get(ctx, "k")
	if err != nil || string(got) != "v2" {
		t.Fatalf("expected overwrite to v2, got %q err=%v", got, err)
	}
}

func TestMemoryDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
