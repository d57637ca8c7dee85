package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"translogica.org/internal/ids"
	"translogica.org/internal/kv"
)

const directoryKey = "translogica/auth/users"

// Directory is the authoritative identity record: id to User, with unique
// usernames. Mutations are only reachable through the Service, which checks
// action permissions first.
type Directory struct {
	mu    sync.RWMutex
	store kv.Store
	now   func() time.Time
	users map[string]User   // id -> record
	names map[string]string // username -> id
}

func newDirectory(store kv.Store, now func() time.Time) *Directory {
	return &Directory{
		store: store,
		now:   now,
		users: make(map[string]User),
		names: make(map[string]string),
	}
}

// Load restores the persisted directory. Call once at startup.
func (d *Directory) Load(ctx context.Context) error {
	raw, err := d.store.Get(ctx, directoryKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storageError(err)
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return fmt.Errorf("decode user directory: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = make(map[string]User, len(users))
	d.names = make(map[string]string, len(users))
	for _, u := range users {
		d.users[u.ID] = u
		d.names[u.Username] = u.ID
	}
	return nil
}

// FindByUsername looks a record up by its unique username.
func (d *Directory) FindByUsername(username string) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.names[username]
	if !ok {
		return User{}, false
	}
	return d.users[id], true
}

// FindByID looks a record up by its opaque identifier.
func (d *Directory) FindByID(id string) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	return u, ok
}

// List returns every record ordered by id (ULIDs sort by creation time).
func (d *Directory) List() []User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of records.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

// Insert assigns a fresh id and stores the record. The username must not be
// taken already.
func (d *Directory) Insert(ctx context.Context, u User) (User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if !u.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, u.Role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.names[u.Username]; taken {
		return User{}, fmt.Errorf("%w: %s", ErrDuplicateUsername, u.Username)
	}

	now := d.now().UTC()
	u.ID = ids.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	d.users[u.ID] = u
	d.names[u.Username] = u.ID

	if err := d.persistLocked(ctx); err != nil {
		delete(d.users, u.ID)
		delete(d.names, u.Username)
		return User{}, err
	}
	return u, nil
}

// Update merges the given fields into an existing record.
func (d *Directory) Update(ctx context.Context, id string, upd UserUpdate) (User, error) {
	if upd.Role != nil && !upd.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *upd.Role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}

	u := prev
	if upd.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*upd.DisplayName)
	}
	if upd.Email != nil {
		u.Email = strings.TrimSpace(strings.ToLower(*upd.Email))
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.CIN != nil {
		u.CIN = strings.TrimSpace(*upd.CIN)
	}
	if upd.City != nil {
		u.City = strings.TrimSpace(*upd.City)
	}
	if upd.Address != nil {
		u.Address = strings.TrimSpace(*upd.Address)
	}
	u.UpdatedAt = d.now().UTC()
	d.users[id] = u

	if err := d.persistLocked(ctx); err != nil {
		d.users[id] = prev
		return User{}, err
	}
	return u, nil
}

// Delete removes a record. Deleting an absent id is an error, including the
// second delete of the same id.
func (d *Directory) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	delete(d.users, id)
	delete(d.names, u.Username)

	if err := d.persistLocked(ctx); err != nil {
		d.users[id] = u
		d.names[u.Username] = id
		return err
	}
	return nil
}

// reinstate restores a previously deleted record verbatim. Used by the
// Service to roll back a partially applied delete.
func (d *Directory) reinstate(ctx context.Context, u User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
	d.names[u.Username] = u.ID
	return d.persistLocked(ctx)
}

func (d *Directory) persistLocked(ctx context.Context) error {
	users := make([]User, 0, len(d.users))
	for _, u := range d.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode user directory: %w", err)
	}
	if err := d.store.Put(ctx, directoryKey, raw); err != nil {
		return storageError(err)
	}
	return nil
}
