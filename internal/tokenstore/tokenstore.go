// Package tokenstore persists a single provider credential.
package tokenstore

import (
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/storage"
	"go.uber.org/zap"
)

// KeySuffix is appended to the provider id to form the storage key
const KeySuffix = "_token"

// TokenStore keeps at most one credential for one provider. An absent
// credential means no user is logged in.
type TokenStore struct {
	store storage.Store
	key   string
}

// New returns a TokenStore keyed by "<providerID>_token"
func New(store storage.Store, providerID string) *TokenStore {
	return &TokenStore{
		store: store,
		key:   Key(providerID),
	}
}

// Key returns the storage key for a provider
func Key(providerID string) string {
	return providerID + KeySuffix
}

// Persist overwrites any stored credential
func (t *TokenStore) Persist(token string) {
	t.store.Set(t.key, token)
	logger.Debug("Credential persisted", zap.String("key", t.key))
}

// Retrieve returns the stored credential, if any. An empty stored value
// reads as absent.
func (t *TokenStore) Retrieve() (string, bool) {
	token, ok := t.store.Get(t.key)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Clear removes the stored credential. Clearing an absent one is a no-op.
func (t *TokenStore) Clear() {
	t.store.Delete(t.key)
	logger.Debug("Credential cleared", zap.String("key", t.key))
}
