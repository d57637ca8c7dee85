package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"translogica.org/internal/kv"
)

const sessionsKey = "translogica/auth/sessions"

// Session binds an opaque token to an authenticated identity snapshot. The
// role inside the snapshot is resolved at login time; later directory edits
// do not change an established session until the next login.
type Session struct {
	User          User      `json:"user"`
	EstablishedAt time.Time `json:"established_at"`
}

// Manager keys live sessions by opaque id. Requests may touch different
// sessions concurrently, so all access goes through the lock. Absence of a
// session means anonymous.
type Manager struct {
	mu       sync.RWMutex
	store    kv.Store
	now      func() time.Time
	sessions map[string]Session
}

func newManager(store kv.Store, now func() time.Time) *Manager {
	return &Manager{
		store:    store,
		now:      now,
		sessions: make(map[string]Session),
	}
}

// Restore loads the persisted session snapshot. Call once at startup.
func (m *Manager) Restore(ctx context.Context) error {
	raw, err := m.store.Get(ctx, sessionsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storageError(err)
	}
	sessions := make(map[string]Session)
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return fmt.Errorf("decode sessions: %w", err)
	}
	m.mu.Lock()
	m.sessions = sessions
	m.mu.Unlock()
	return nil
}

// Establish installs a fresh session for user and returns its id. Each login
// mints its own id, so a concurrent logout can only clear a session that
// already exists.
func (m *Manager) Establish(ctx context.Context, user User) (string, Session, error) {
	id := uuid.NewString()
	session := Session{User: user, EstablishedAt: m.now().UTC()}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = session
	if err := m.persistLocked(ctx); err != nil {
		delete(m.sessions, id)
		return "", Session{}, err
	}
	return id, session, nil
}

// Current returns the session for id, if one is live.
func (m *Manager) Current(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Clear removes the session for id. Clearing an absent or already cleared
// session succeeds; the state afterwards is anonymous either way.
func (m *Manager) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, existed := m.sessions[id]
	if !existed {
		return nil
	}
	delete(m.sessions, id)
	if err := m.persistLocked(ctx); err != nil {
		m.sessions[id] = prev
		return err
	}
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(m.sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := m.store.Put(ctx, sessionsKey, raw); err != nil {
		return storageError(err)
	}
	return nil
}
