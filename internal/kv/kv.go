package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no value exists for the key.
	ErrNotFound = errors.New("kv: not found")
	// ErrUnavailable wraps backend failures such as refused connections or
	// timeouts. Callers decide their own retry policy.
	ErrUnavailable = errors.New("kv: storage unavailable")
)

// Store is the key-value persistence collaborator consumed by the auth core.
// Swapping the backing implementation must not change any auth contract.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
