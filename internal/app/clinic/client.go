// Package clinic assembles one client instance: a session slot, the API
// client reading it, the services, the cache and the route guard.
package clinic

import (
	"context"
	"time"

	"clinic/internal/app/access"
	"clinic/internal/app/query"
	"clinic/internal/app/service"
	"clinic/internal/app/session"
	"clinic/internal/domain/model"
	"clinic/internal/domain/repository"
	"clinic/internal/platform/apiclient"
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Tokens backs the session slot; Key selects the slot within it.
	Tokens     repository.TokenRepository
	Key        string
	StaleAfter time.Duration
	// APIOptions are passed through to apiclient.New (tests inject an
	// http.Client here).
	APIOptions []apiclient.Option
}

type Client struct {
	Session  *session.Session
	API      *apiclient.Client
	Auth     *service.AuthService
	Patients *query.PatientQueries
	Guard    *access.Guard

	cache *query.Cache
}

func New(opts Options) *Client {
	tokens := opts.Tokens
	if tokens == nil {
		tokens = repository.NewMemoryTokenRepository()
	}
	sess := session.New(tokens, opts.Key)

	apiOpts := append([]apiclient.Option(nil), opts.APIOptions...)
	if opts.Timeout > 0 {
		apiOpts = append(apiOpts, apiclient.WithTimeout(opts.Timeout))
	}
	api := apiclient.New(opts.BaseURL, sess, apiOpts...)

	auth := service.NewAuthService(api, sess)
	cache := query.NewCache(opts.StaleAfter)
	return &Client{
		Session:  sess,
		API:      api,
		Auth:     auth,
		Patients: query.NewPatientQueries(cache, service.NewPatientService(api)),
		Guard:    access.NewGuard(auth),
		cache:    cache,
	}
}

// Login signs in and drops anything cached for a previous user.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	resp, err := c.Auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Reset()
	return resp, nil
}

// Logout clears the session slot and everything cached under it.
func (c *Client) Logout(ctx context.Context) error {
	c.cache.Reset()
	return c.Auth.Logout(ctx)
}
