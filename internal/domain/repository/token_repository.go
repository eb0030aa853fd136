package repository

import (
	"context"
	"sync"

	"clinic/internal/common"
)

// TokenRepository is the client's durable key/value slot storage for
// session tokens. Get returns common.ErrNotFound for an empty slot.
type TokenRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string) error
	Delete(ctx context.Context, key string) error
}

type memoryTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenRepository keeps tokens for the life of the process only.
func NewMemoryTokenRepository() TokenRepository {
	return &memoryTokenRepository{tokens: make(map[string]string)}
}

func (r *memoryTokenRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[key]
	if !ok {
		return "", common.ErrNotFound
	}
	return token, nil
}

func (r *memoryTokenRepository) Set(_ context.Context, key, token string) error {
	r.mu.Lock()
	r.tokens[key] = token
	r.mu.Unlock()
	return nil
}

func (r *memoryTokenRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.tokens, key)
	r.mu.Unlock()
	return nil
}
