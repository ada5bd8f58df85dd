package credential

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository for tests
// and local development.
type MemoryRepository struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryRepository creates an empty in-memory credential repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{creds: make(map[string]Credential)}
}

// Get retrieves a user's stored credential.
func (r *MemoryRepository) Get(_ context.Context, userID string) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.creds[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &cred, nil
}

// Save upserts a user's credential.
func (r *MemoryRepository) Save(_ context.Context, cred *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[cred.UserID] = *cred
	return nil
}

// Delete removes a user's credential.
func (r *MemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.creds, userID)
	return nil
}
