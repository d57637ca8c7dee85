package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"translogica.org/internal/kv"
)

// Actions gating the user-management operations.
const (
	ActionAddUser    = "add-user"
	ActionEditUser   = "edit-user"
	ActionDeleteUser = "delete-user"
)

// Service orchestrates login, logout and user management. It exclusively owns
// the user directory and the credential store; every mutation of either goes
// through here, behind an action-permission check.
type Service struct {
	catalog  *Catalog
	engine   *Engine
	dir      *Directory
	creds    *CredentialStore
	sessions *Manager
	hasher   Hasher
	now      func() time.Time

	// writeMu serializes paired directory+credential mutations so the two
	// stores never diverge under concurrent requests. Login does not take it.
	writeMu sync.Mutex
}

// ServiceOption configures Service construction.
type ServiceOption func(*Service) error

// WithHasher swaps the secret verification strategy.
func WithHasher(h Hasher) ServiceOption {
	return func(s *Service) error {
		if h == nil {
			return errors.New("auth: hasher is required")
		}
		s.hasher = h
		return nil
	}
}

// WithClock overrides the time source. Useful in tests.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService wires the catalog and the persistence collaborator into a ready
// service. The catalog must already be validated.
func NewService(catalog *Catalog, store kv.Store, opts ...ServiceOption) (*Service, error) {
	if catalog == nil {
		return nil, errors.New("auth: catalog is required")
	}
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	svc := &Service{
		catalog: catalog,
		engine:  NewEngine(catalog),
		hasher:  NewArgon2Hasher(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	creds, err := newCredentialStore(store, svc.hasher)
	if err != nil {
		return nil, err
	}
	svc.dir = newDirectory(store, svc.now)
	svc.creds = creds
	svc.sessions = newManager(store, svc.now)
	return svc, nil
}

// Load restores persisted state. Call once before serving requests.
func (s *Service) Load(ctx context.Context) error {
	if err := s.dir.Load(ctx); err != nil {
		return err
	}
	if err := s.creds.Load(ctx); err != nil {
		return err
	}
	return s.sessions.Restore(ctx)
}

// Seed installs the given accounts when the directory is empty. A populated
// directory is left untouched.
func (s *Service) Seed(ctx context.Context, seed []SeedUser) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.dir.Len() > 0 {
		return nil
	}
	for _, su := range seed {
		if _, err := s.insert(ctx, su.User, su.Secret); err != nil {
			return err
		}
	}
	return nil
}

// Login authenticates the username/secret pair and establishes a session.
// Unknown usernames and bad secrets are indistinguishable to the caller and
// are never logged. No directory lock is held during secret verification.
func (s *Service) Login(ctx context.Context, username, secret string) (User, string, error) {
	username = strings.TrimSpace(username)
	user, found := s.dir.FindByUsername(username)
	// Verify runs even when the username is unknown so both failures cost
	// about the same.
	if !s.creds.Verify(ctx, username, secret) || !found {
		return User{}, "", ErrInvalidCredentials
	}
	id, _, err := s.sessions.Establish(ctx, user)
	if err != nil {
		return User{}, "", err
	}
	return user, id, nil
}

// Logout clears the session for id. It always succeeds, including when the
// session is already anonymous; only a storage fault can fail it.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

// Current returns the identity snapshot bound to sessionID.
func (s *Service) Current(sessionID string) (User, bool) {
	session, ok := s.sessions.Current(sessionID)
	if !ok {
		return User{}, false
	}
	return session.User, true
}

// CanReachRoute answers route-level gating for the session.
func (s *Service) CanReachRoute(sessionID, route string) bool {
	return s.engine.CanReachRoute(s.session(sessionID), route)
}

// CanPerform answers action-level gating for the session.
func (s *Service) CanPerform(sessionID, action string) bool {
	return s.engine.CanPerform(s.session(sessionID), action)
}

// HasAnyRole answers an explicit role requirement for the session. An empty
// requirement list allows any authenticated session.
func (s *Service) HasAnyRole(sessionID string, required ...Role) bool {
	return s.engine.HasAnyRole(s.session(sessionID), required...)
}

// ListUsers returns the directory for an authenticated caller. Records never
// include secrets.
func (s *Service) ListUsers(sessionID string) ([]User, error) {
	if s.session(sessionID) == nil {
		return nil, ErrPermissionDenied
	}
	return s.dir.List(), nil
}

// FindUser returns a single record for an authenticated caller.
func (s *Service) FindUser(sessionID, id string) (User, error) {
	if s.session(sessionID) == nil {
		return User{}, ErrPermissionDenied
	}
	u, ok := s.dir.FindByID(id)
	if !ok {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return u, nil
}

// AddUser creates a directory record and its credential together. If the
// credential write fails the directory insertion is rolled back; the two
// stores never diverge.
func (s *Service) AddUser(ctx context.Context, sessionID string, input NewUser) (User, error) {
	if !s.CanPerform(sessionID, ActionAddUser) {
		return User{}, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Secret) == "" {
		return User{}, fmt.Errorf("%w: secret is required", ErrInvalidInput)
	}
	if email := strings.TrimSpace(input.Email); email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.insert(ctx, User{
		Username:    input.Username,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Email:       strings.TrimSpace(strings.ToLower(input.Email)),
		Role:        input.Role,
		CIN:         strings.TrimSpace(input.CIN),
		City:        strings.TrimSpace(input.City),
		Address:     strings.TrimSpace(input.Address),
	}, input.Secret)
}

// UpdateUser merges the partial fields into an existing record. Established
// sessions keep their login-time snapshot; a role change takes effect at the
// next login.
func (s *Service) UpdateUser(ctx context.Context, sessionID, id string, upd UserUpdate) (User, error) {
	if !s.CanPerform(sessionID, ActionEditUser) {
		return User{}, ErrPermissionDenied
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.dir.Update(ctx, id, upd)
}

// DeleteUser removes the record and its credential together, with the same
// rollback guarantee as AddUser. Deleting a missing id fails with ErrNotFound.
func (s *Service) DeleteUser(ctx context.Context, sessionID, id string) error {
	if !s.CanPerform(sessionID, ActionDeleteUser) {
		return ErrPermissionDenied
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	user, ok := s.dir.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if err := s.dir.Delete(ctx, id); err != nil {
		return err
	}
	// Credential removal comes second: if it fails the record is reinstated
	// and the credential is still in place, so the stores stay paired.
	if err := s.creds.Remove(ctx, user.Username); err != nil {
		if rbErr := s.dir.reinstate(ctx, user); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

// SessionCount reports the number of live sessions for the metrics gauge.
func (s *Service) SessionCount() int {
	return s.sessions.Len()
}

func (s *Service) session(sessionID string) *Session {
	if sessionID == "" {
		return nil
	}
	session, ok := s.sessions.Current(sessionID)
	if !ok {
		return nil
	}
	return &session
}

// insert performs the paired directory+credential write. Callers hold writeMu.
func (s *Service) insert(ctx context.Context, u User, secret string) (User, error) {
	created, err := s.dir.Insert(ctx, u)
	if err != nil {
		return User{}, err
	}
	if err := s.creds.Set(ctx, created.Username, secret); err != nil {
		if rbErr := s.dir.Delete(ctx, created.ID); rbErr != nil {
			return User{}, errors.Join(err, rbErr)
		}
		return User{}, err
	}
	return created, nil
}
