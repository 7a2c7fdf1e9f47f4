package auth

import (
	"context"
	"sync"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// NewInMemoryCredentialStore returns a CredentialStore backed by an in-memory map.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{users: make(map[string]models.User)}
}

// InMemoryCredentialStore implements CredentialStore for tests and local development.
type InMemoryCredentialStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// Put inserts or replaces a user record.
func (s *InMemoryCredentialStore) Put(user models.User) {
	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
}

// FindByID retrieves a user by id.
func (s *InMemoryCredentialStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	user, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

// SetRefreshToken replaces the stored refresh token for userID.
func (s *InMemoryCredentialStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

// RefreshToken reports the stored refresh token. Useful for tests.
func (s *InMemoryCredentialStore) RefreshToken(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[userID].RefreshToken
}
