package credentials

import (
	"encoding/json"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
)

// Persisted keys. The token is stored opaque; the user is stored as JSON.
const (
	keyAccessToken = "access_token"
	keyUser        = "user"
)

// Credentials couples a GitHub access token with the identity it belongs to.
// A token without a user (or vice versa) is never persisted.
type Credentials struct {
	AccessToken string
	User        api.User
}

// Manager owns credential persistence. The OAuth handler and explicit logout
// are the only writers; the workflow and poller only read.
type Manager struct {
	store Store
}

// NewManager creates a credential manager over the given store
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Get returns the stored credentials. The second return is false when no
// complete credential pair is stored; partial state (one key without the
// other) is treated as absent.
func (m *Manager) Get() (Credentials, bool, error) {
	token, tokenOK, err := m.store.Get(keyAccessToken)
	if err != nil {
		return Credentials{}, false, storeError("read access token", err)
	}

	userJSON, userOK, err := m.store.Get(keyUser)
	if err != nil {
		return Credentials{}, false, storeError("read user identity", err)
	}

	if !tokenOK || !userOK || token == "" {
		return Credentials{}, false, nil
	}

	var user api.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return Credentials{}, false, errors.Wrap(errors.KindAuth, errors.ErrCodeCredentialStore, "stored user identity is corrupt", err).
			WithSuggestion("Run 'vibecoder auth login' to re-authenticate")
	}

	return Credentials{AccessToken: token, User: user}, true, nil
}

// Set persists the credential pair. The write is atomic from the caller's
// point of view: if storing the user fails, the token is rolled back so a
// partial pair never survives.
func (m *Manager) Set(creds Credentials) error {
	if creds.AccessToken == "" {
		return errors.New(errors.KindAuth, errors.ErrCodeCredentialStore, "refusing to store empty access token")
	}
	if creds.User.Login == "" {
		return errors.New(errors.KindAuth, errors.ErrCodeCredentialStore, "refusing to store token without a user identity")
	}

	userJSON, err := json.Marshal(creds.User)
	if err != nil {
		return errors.Wrap(errors.KindAuth, errors.ErrCodeCredentialStore, "encode user identity", err)
	}

	if err := m.store.Set(keyAccessToken, creds.AccessToken); err != nil {
		return storeError("store access token", err)
	}
	if err := m.store.Set(keyUser, string(userJSON)); err != nil {
		// Roll back the token so we never keep half a credential pair.
		_ = m.store.Delete(keyAccessToken)
		return storeError("store user identity", err)
	}

	return nil
}

// Clear removes both credential keys. Clearing absent credentials succeeds.
func (m *Manager) Clear() error {
	if err := m.store.Delete(keyAccessToken); err != nil {
		return storeError("clear access token", err)
	}
	if err := m.store.Delete(keyUser); err != nil {
		return storeError("clear user identity", err)
	}
	return nil
}

func storeError(op string, cause error) error {
	return errors.Wrap(errors.KindAuth, errors.ErrCodeCredentialStore, op+" failed", cause).
		WithSuggestion("Check permissions on ~/.vibecoder")
}
