package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"clinic/internal/common"
)

// fileTokenRepository persists all slots as one JSON object on disk,
// rewritten atomically on every change. Expired slots read as empty and
// are dropped from the file on the next write.
type fileTokenRepository struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
	now  func() time.Time
}

type fileToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

func (t fileToken) expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// NewFileTokenRepository stores slots in the JSON file at path. A positive
// ttl expires slots that long after they were set; zero keeps them until
// deleted.
func NewFileTokenRepository(path string, ttl time.Duration) (TokenRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("fileTokenRepository: empty path: %w", common.ErrBadRequest)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("fileTokenRepository: %w", err)
	}
	return &fileTokenRepository{path: path, ttl: ttl, now: time.Now}, nil
}

func (r *fileTokenRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens, err := r.load()
	if err != nil {
		return "", err
	}
	t, ok := tokens[key]
	if !ok || t.expired(r.now()) {
		return "", common.ErrNotFound
	}
	return t.Token, nil
}

func (r *fileTokenRepository) Set(_ context.Context, key, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens, err := r.load()
	if err != nil {
		return err
	}
	entry := fileToken{Token: token}
	if r.ttl > 0 {
		entry.ExpiresAt = r.now().Add(r.ttl).UTC()
	}
	tokens[key] = entry
	return r.save(tokens)
}

func (r *fileTokenRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := tokens[key]; !ok {
		return nil
	}
	delete(tokens, key)
	return r.save(tokens)
}

func (r *fileTokenRepository) load() (map[string]fileToken, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]fileToken), nil
	}
	if err != nil {
		return nil, fmt.Errorf("fileTokenRepository.load: %w", err)
	}
	tokens := make(map[string]fileToken)
	if len(data) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("fileTokenRepository.load: %w", err)
	}
	return tokens, nil
}

// save prunes expired slots before writing.
func (r *fileTokenRepository) save(tokens map[string]fileToken) error {
	now := r.now()
	for key, t := range tokens {
		if t.expired(now) {
			delete(tokens, key)
		}
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("fileTokenRepository.save: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("fileTokenRepository.save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("fileTokenRepository.save: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("fileTokenRepository.save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fileTokenRepository.save: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("fileTokenRepository.save: %w", err)
	}
	return nil
}
