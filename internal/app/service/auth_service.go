package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"clinic/internal/app/session"
	"clinic/internal/common"
	"clinic/internal/domain/model"
	"clinic/internal/platform/apiclient"
)

// AuthService is the client's auth session store: it is the only writer of
// the session slot.
type AuthService struct {
	api     *apiclient.Client
	session *session.Session
}

func NewAuthService(api *apiclient.Client, sess *session.Session) *AuthService {
	return &AuthService{api: api, session: sess}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	var user model.User
	if err := s.api.Do(ctx, http.MethodPost, "/register", req, &user, apiclient.WithoutAuth()); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &user, nil
}

// Login stores the returned token, replacing any previous one.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	var resp model.LoginResponse
	if err := s.api.Do(ctx, http.MethodPost, "/login", req, &resp, apiclient.WithoutAuth()); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return nil, &common.TransportError{Op: "POST /login", Err: errors.New("response carried no token")}
	}
	if err := s.session.Set(ctx, resp.Token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

// Logout clears the slot unconditionally.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// CurrentUser asks the server who the stored token belongs to. Any failure
// of that read is treated as an expired session: the slot is cleared and
// (nil, nil) is returned. A cancelled or expired ctx says nothing about the
// token, so the slot is kept and ctx.Err() is returned.
func (s *AuthService) CurrentUser(ctx context.Context) (*model.User, error) {
	present, err := s.session.Present(ctx)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}

	var user model.User
	if err := s.api.Do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Printf("AuthService.CurrentUser: %v: %v", common.ErrAuthExpired, err)
		if clearErr := s.session.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}
	return &user, nil
}

// IsAuthenticated is a local check only; the server may have stopped
// accepting the token.
func (s *AuthService) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.session.Present(ctx)
}
