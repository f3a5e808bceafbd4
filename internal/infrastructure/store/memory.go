package store

import (
	"context"
	"sync"

	"session-hub/internal/domain"
)

// MemoryStore is an in-process credential store. Implements
// domain.CredentialStore. Used for tests and store-less deployments where
// persistence across restarts is not required.
type MemoryStore struct {
	mu         sync.RWMutex
	token      string
	identity   *domain.Identity
	remembered string
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSession stores the token and identity together.
func (s *MemoryStore) SaveSession(_ context.Context, token string, identity domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = &identity
	return nil
}

// ClearSession removes the token and identity together.
func (s *MemoryStore) ClearSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = nil
	return nil
}

// SetRememberedUsername stores the opted-in username.
func (s *MemoryStore) SetRememberedUsername(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remembered = username
	return nil
}

// DeleteRememberedUsername removes the remembered username.
func (s *MemoryStore) DeleteRememberedUsername(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remembered = ""
	return nil
}

// RememberedUsername reads the remembered username; "" when unset.
func (s *MemoryStore) RememberedUsername(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remembered, nil
}

// Session reports the stored token and identity, for tests that assert on
// the persisted slots.
func (s *MemoryStore) Session() (string, *domain.Identity) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return s.token, nil
	}
	identity := *s.identity
	return s.token, &identity
}
