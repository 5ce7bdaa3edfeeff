package credentials

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
)

func TestManagerRoundTrip(t *testing.T) {
	manager := NewManager(NewMemoryStore())

	if _, ok, err := manager.Get(); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v; want absent, nil", ok, err)
	}

	creds := Credentials{
		AccessToken: "gho_abc123",
		User:        api.User{ID: 1, Login: "octocat", Name: "The Octocat", Email: "octo@example.com"},
	}
	if err := manager.Set(creds); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	got, ok, err := manager.Get()
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v; want present, nil", ok, err)
	}
	if got.AccessToken != creds.AccessToken {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, creds.AccessToken)
	}
	if got.User.Login != "octocat" || got.User.Email != "octo@example.com" {
		t.Errorf("User = %+v, want original identity", got.User)
	}
}

func TestManagerRejectsPartialCredentials(t *testing.T) {
	manager := NewManager(NewMemoryStore())

	if err := manager.Set(Credentials{User: api.User{Login: "octocat"}}); err == nil {
		t.Error("Set() without token should fail")
	}
	if err := manager.Set(Credentials{AccessToken: "gho_abc"}); err == nil {
		t.Error("Set() without user should fail")
	}
}

// failingStore fails Set for a chosen key, to exercise the rollback path.
type failingStore struct {
	*MemoryStore
	failKey string
}

func (f *failingStore) Set(key, value string) error {
	if key == f.failKey {
		return fmt.Errorf("disk full")
	}
	return f.MemoryStore.Set(key, value)
}

func TestSetRollsBackTokenWhenUserWriteFails(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failKey: "user"}
	manager := NewManager(store)

	err := manager.Set(Credentials{
		AccessToken: "gho_abc",
		User:        api.User{Login: "octocat"},
	})
	if err == nil {
		t.Fatal("Set() should fail when the user write fails")
	}
	if !errors.IsAuth(err) {
		t.Errorf("storage failure should be an auth-kind error, got %v", err)
	}

	if _, ok, _ := store.Get("access_token"); ok {
		t.Error("token must be rolled back after a failed user write")
	}
	if _, ok, _ := manager.Get(); ok {
		t.Error("Get() must report absent after a failed atomic write")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	manager := NewManager(NewMemoryStore())

	if err := manager.Clear(); err != nil {
		t.Fatalf("Clear() on empty store failed: %v", err)
	}

	_ = manager.Set(Credentials{AccessToken: "gho_abc", User: api.User{Login: "octocat"}})
	if err := manager.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if err := manager.Clear(); err != nil {
		t.Fatalf("second Clear() failed: %v", err)
	}

	if _, ok, _ := manager.Get(); ok {
		t.Error("credentials should be absent after Clear()")
	}
}

func TestGetTreatsPartialStateAsAbsent(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set("access_token", "gho_orphan")

	manager := NewManager(store)
	if _, ok, err := manager.Get(); err != nil || ok {
		t.Errorf("Get() with orphan token = ok %v, err %v; want absent, nil", ok, err)
	}
}

func TestGetCorruptUserIsAnError(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set("access_token", "gho_abc")
	_ = store.Set("user", "{not json")

	manager := NewManager(store)
	_, _, err := manager.Get()
	if err == nil {
		t.Fatal("Get() with corrupt user JSON should fail")
	}
	if !errors.IsAuth(err) {
		t.Errorf("corrupt store should be an auth-kind error, got %v", err)
	}
}

func TestFileStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")

	manager := NewManager(NewFileStore(path))
	creds := Credentials{AccessToken: "gho_file", User: api.User{Login: "octocat"}}
	if err := manager.Set(creds); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	// A fresh manager over the same path sees the persisted pair.
	reopened := NewManager(NewFileStore(path))
	got, ok, err := reopened.Get()
	if err != nil || !ok {
		t.Fatalf("Get() after reopen = ok %v, err %v", ok, err)
	}
	if got.AccessToken != "gho_file" {
		t.Errorf("AccessToken = %q, want gho_file", got.AccessToken)
	}

	if err := reopened.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, ok, _ := reopened.Get(); ok {
		t.Error("credentials should be gone after Clear()")
	}
}
