// Package session holds the client's single authentication slot.
//
// A Session is the explicit, injected replacement for ambient token
// storage: the API client reads the bearer token through it and the auth
// service is the only writer.
package session

import (
	"context"
	"errors"
	"fmt"

	"clinic/internal/common"
	"clinic/internal/domain/repository"
)

// DefaultKey is the fixed storage key of a standalone client's slot.
const DefaultKey = "token"

type Session struct {
	repo repository.TokenRepository
	key  string
}

func New(repo repository.TokenRepository, key string) *Session {
	if key == "" {
		key = DefaultKey
	}
	return &Session{repo: repo, key: key}
}

// KeyFor namespaces the slot of one browser session.
func KeyFor(sid string) string {
	return DefaultKey + ":" + sid
}

func (s *Session) Key() string { return s.key }

// Token returns the stored token; ok is false when the slot is empty.
func (s *Session) Token(ctx context.Context) (token string, ok bool, err error) {
	token, err = s.repo.Get(ctx, s.key)
	if errors.Is(err, common.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session.Token: %w", err)
	}
	return token, token != "", nil
}

// Set overwrites the slot.
func (s *Session) Set(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	if err := s.repo.Set(ctx, s.key, token); err != nil {
		return fmt.Errorf("session.Set: %w", err)
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

// Present reports whether the slot holds a token. It does not talk to the
// server, so it can be true for a token the server no longer accepts.
func (s *Session) Present(ctx context.Context) (bool, error) {
	_, ok, err := s.Token(ctx)
	return ok, err
}
