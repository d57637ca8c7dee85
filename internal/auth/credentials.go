package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"translogica.org/internal/kv"
)

const credentialsKey = "translogica/auth/credentials"

// CredentialStore maps usernames to hashed secrets. It is owned by the
// Service: directory reads never touch it, and a credential exists if and
// only if the matching directory record exists.
type CredentialStore struct {
	mu      sync.RWMutex
	store   kv.Store
	hasher  Hasher
	decoy   string
	secrets map[string]string // username -> encoded verifier
}

func newCredentialStore(store kv.Store, hasher Hasher) (*CredentialStore, error) {
	// The decoy keeps Verify cost uniform for unknown usernames.
	decoy, err := hasher.Hash("translogica-decoy")
	if err != nil {
		return nil, err
	}
	return &CredentialStore{
		store:   store,
		hasher:  hasher,
		decoy:   decoy,
		secrets: make(map[string]string),
	}, nil
}

// Load restores persisted credentials. Call once at startup.
func (c *CredentialStore) Load(ctx context.Context) error {
	raw, err := c.store.Get(ctx, credentialsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storageError(err)
	}
	secrets := make(map[string]string)
	if err := json.Unmarshal(raw, &secrets); err != nil {
		return fmt.Errorf("decode credentials: %w", err)
	}
	c.mu.Lock()
	c.secrets = secrets
	c.mu.Unlock()
	return nil
}

// Verify reports whether a credential exists for username and secret matches.
// It reveals nothing about which half of the pair failed, and an unknown
// username still pays for one comparison.
func (c *CredentialStore) Verify(ctx context.Context, username, secret string) bool {
	c.mu.RLock()
	encoded, ok := c.secrets[username]
	c.mu.RUnlock()
	if !ok {
		_ = c.hasher.Compare(c.decoy, secret)
		return false
	}
	return c.hasher.Compare(encoded, secret) == nil
}

// Set hashes and stores the secret for username.
func (c *CredentialStore) Set(ctx context.Context, username, secret string) error {
	encoded, err := c.hasher.Hash(secret)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, existed := c.secrets[username]
	c.secrets[username] = encoded
	if err := c.persistLocked(ctx); err != nil {
		if existed {
			c.secrets[username] = prev
		} else {
			delete(c.secrets, username)
		}
		return err
	}
	return nil
}

// Remove deletes the credential for username. Removing an absent credential
// is a no-op; referential integrity is enforced by the Service.
func (c *CredentialStore) Remove(ctx context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, existed := c.secrets[username]
	if !existed {
		return nil
	}
	delete(c.secrets, username)
	if err := c.persistLocked(ctx); err != nil {
		c.secrets[username] = prev
		return err
	}
	return nil
}

func (c *CredentialStore) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(c.secrets)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := c.store.Put(ctx, credentialsKey, raw); err != nil {
		return storageError(err)
	}
	return nil
}
