package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"translogica.org/internal/kv"
)

// failingStore wraps a Store and fails writes on demand.
type failingStore struct {
	kv.Store
	mu       sync.Mutex
	failPuts bool
}

func (f *failingStore) setFailPuts(v bool) {
	f.mu.Lock()
	f.failPuts = v
	f.mu.Unlock()
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failPuts
	f.mu.Unlock()
	if fail {
		return errors.New("disk on fire")
	}
	return f.Store.Put(ctx, key, value)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return newTestServiceWithStore(t, kv.NewMemory())
}

func newTestServiceWithStore(t *testing.T, store kv.Store) *Service {
	t.Helper()
	svc, err := NewService(DefaultCatalog(), store, WithHasher(testHasher()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := svc.Seed(ctx, DefaultSeed()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return svc
}

func loginAs(t *testing.T, svc *Service, username, secret string) string {
	t.Helper()
	_, sessionID, err := svc.Login(context.Background(), username, secret)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return sessionID
}

func TestLoginSeededAdmin(t *testing.T) {
	svc := newTestService(t)

	user, sessionID, err := svc.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Fatalf("unexpected role: %s", user.Role)
	}

	current, ok := svc.Current(sessionID)
	if !ok || current.Username != "admin" {
		t.Fatalf("current should return the admin identity: %+v ok=%v", current, ok)
	}
	if !svc.CanPerform(sessionID, ActionAddUser) {
		t.Fatal("admin session should be allowed to add users")
	}
	if !svc.CanReachRoute(sessionID, "/settings") {
		t.Fatal("admin session should reach /settings")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _, badSecret := svc.Login(ctx, "admin", "wrong")
	_, _, badUser := svc.Login(ctx, "nosuchuser", "anything")

	if !errors.Is(badSecret, ErrInvalidCredentials) {
		t.Fatalf("wrong secret: expected ErrInvalidCredentials, got %v", badSecret)
	}
	if !errors.Is(badUser, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", badUser)
	}
	if badSecret.Error() != badUser.Error() {
		t.Fatalf("the two failures must be indistinguishable: %q vs %q", badSecret, badUser)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sessionID := loginAs(t, svc, "admin", "admin123")

	if err := svc.Logout(ctx, sessionID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := svc.Current(sessionID); ok {
		t.Fatal("current should be anonymous after logout")
	}
	if err := svc.Logout(ctx, sessionID); err != nil {
		t.Fatalf("second logout should succeed, got %v", err)
	}
	if _, ok := svc.Current(sessionID); ok {
		t.Fatal("current should stay anonymous")
	}
}

func TestAddUserThenLoginAndDeleteUserThenLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	adminSession := loginAs(t, svc, "admin", "admin123")

	created, err := svc.AddUser(ctx, adminSession, NewUser{
		Username:    "newdriver",
		DisplayName: "New Driver",
		Email:       "newdriver@translogica.fr",
		Role:        RoleOperations,
		Secret:      "roadworthy",
	})
	if err != nil {
		t.Fatalf("add user: %v", err)
	}

	if _, _, err := svc.Login(ctx, "newdriver", "roadworthy"); err != nil {
		t.Fatalf("login with fresh credentials: %v", err)
	}

	if err := svc.DeleteUser(ctx, adminSession, created.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	// Directory and credential removal are atomic: the login path sees only
	// invalid credentials, never a half-deleted account.
	if _, _, err := svc.Login(ctx, "newdriver", "roadworthy"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after delete, got %v", err)
	}

	if err := svc.DeleteUser(ctx, adminSession, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should err with ErrNotFound, got %v", err)
	}
}

func TestAddUserRoundTripOmitsSecret(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	adminSession := loginAs(t, svc, "admin", "admin123")

	input := NewUser{
		Username:    "auditor",
		DisplayName: "Auditor",
		Email:       "auditor@translogica.fr",
		Role:        RoleCommercial,
		CIN:         "Z111222",
		City:        "Oujda",
		Address:     "Rue de la Gare",
		Secret:      "s3cret-value",
	}
	created, err := svc.AddUser(ctx, adminSession, input)
	if err != nil {
		t.Fatalf("add user: %v", err)
	}

	got, err := svc.FindUser(adminSession, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Username != input.Username || got.DisplayName != input.DisplayName ||
		got.Email != input.Email || got.Role != input.Role ||
		got.CIN != input.CIN || got.City != input.City || got.Address != input.Address {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.ID == "" {
		t.Fatal("expected generated id")
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "s3cret-value") || strings.Contains(strings.ToLower(string(raw)), "secret") {
		t.Fatalf("serialized user leaks secret material: %s", raw)
	}
}

func TestUserManagementRequiresPermission(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hrSession := loginAs(t, svc, "hr", "admin123")

	_, err := svc.AddUser(ctx, hrSession, NewUser{Username: "x", Email: "x@translogica.fr", Role: RoleHR, Secret: "pw"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("hr add-user: expected ErrPermissionDenied, got %v", err)
	}

	name := "n"
	if _, err := svc.UpdateUser(ctx, hrSession, "some-id", UserUpdate{DisplayName: &name}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("hr edit-user: expected ErrPermissionDenied, got %v", err)
	}
	if err := svc.DeleteUser(ctx, hrSession, "some-id"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("hr delete-user: expected ErrPermissionDenied, got %v", err)
	}

	// Anonymous callers are denied before any lookup happens.
	if _, err := svc.AddUser(ctx, "", NewUser{Username: "y", Email: "y@translogica.fr", Role: RoleHR, Secret: "pw"}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("anonymous add-user: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.ListUsers(""); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("anonymous list: expected ErrPermissionDenied, got %v", err)
	}
}

func TestConcurrentAddUserSameUsername(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	adminSession := loginAs(t, svc, "admin", "admin123")

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddUser(ctx, adminSession, NewUser{
				Username: "contended",
				Email:    "contended@translogica.fr",
				Role:     RolePlanner,
				Secret:   "pw",
			})
		}(i)
	}
	wg.Wait()

	var wins, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrDuplicateUsername):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || duplicates != attempts-1 {
		t.Fatalf("expected exactly one winner, got wins=%d duplicates=%d", wins, duplicates)
	}
}

func TestSessionRoleIsLoginTimeSnapshot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	adminSession := loginAs(t, svc, "admin", "admin123")
	hrSession := loginAs(t, svc, "hr", "admin123")

	hrUser, _ := svc.Current(hrSession)
	role := RoleAdmin
	if _, err := svc.UpdateUser(ctx, adminSession, hrUser.ID, UserUpdate{Role: &role}); err != nil {
		t.Fatalf("update role: %v", err)
	}

	// The live session keeps its login-time authorization.
	if svc.CanPerform(hrSession, ActionAddUser) {
		t.Fatal("role edit must not retroactively widen an established session")
	}

	// A fresh login picks up the new role.
	fresh := loginAs(t, svc, "hr", "admin123")
	if !svc.CanPerform(fresh, ActionAddUser) {
		t.Fatal("re-login should resolve the updated role")
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	adminSession := loginAs(t, svc, "admin", "admin123")

	name := "ghost"
	if _, err := svc.UpdateUser(ctx, adminSession, "01AAAAAAAAAAAAAAAAAAAAAAAA", UserUpdate{DisplayName: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorageFailuresSurfaceAndRollBack(t *testing.T) {
	store := &failingStore{Store: kv.NewMemory()}
	svc := newTestServiceWithStore(t, store)
	ctx := context.Background()
	adminSession := loginAs(t, svc, "admin", "admin123")

	store.setFailPuts(true)

	if _, _, err := svc.Login(ctx, "admin", "admin123"); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("login during outage: expected ErrStorageUnavailable, got %v", err)
	}
	if _, err := svc.AddUser(ctx, adminSession, NewUser{
		Username: "orphan",
		Email:    "orphan@translogica.fr",
		Role:     RolePlanner,
		Secret:   "pw",
	}); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("add during outage: expected ErrStorageUnavailable, got %v", err)
	}

	store.setFailPuts(false)

	// The failed insert must have left no half-created record behind.
	if _, ok := svc.dir.FindByUsername("orphan"); ok {
		t.Fatal("directory record leaked from a failed insert")
	}
	if _, _, err := svc.Login(ctx, "orphan", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for rolled-back account, got %v", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := kv.NewMemory()
	svc := newTestServiceWithStore(t, store)
	ctx := context.Background()

	if err := svc.Seed(ctx, DefaultSeed()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	users, err := svc.ListUsers(loginAs(t, svc, "admin", "admin123"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != len(DefaultSeed()) {
		t.Fatalf("expected %d seeded users, got %d", len(DefaultSeed()), len(users))
	}
}

func TestServiceStateSurvivesRestart(t *testing.T) {
	store := kv.NewMemory()
	svc := newTestServiceWithStore(t, store)
	ctx := context.Background()
	sessionID := loginAs(t, svc, "admin", "admin123")

	restarted, err := NewService(DefaultCatalog(), store, WithHasher(testHasher()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	current, ok := restarted.Current(sessionID)
	if !ok || current.Username != "admin" {
		t.Fatalf("session lost across restart: %+v ok=%v", current, ok)
	}
	if _, _, err := restarted.Login(ctx, "hr", "admin123"); err != nil {
		t.Fatalf("credentials lost across restart: %v", err)
	}
}
