// Package stubapitest starts the stub API on an httptest server.
package stubapitest

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"clinic/internal/common/security"
	"clinic/internal/domain/model"
	"clinic/internal/stubapi"
)

// Password is used for every account created through CreateUser.
const Password = "secret1"

type Fixture struct {
	*stubapi.Server
	HTTP *httptest.Server

	requests atomic.Int64
}

// BaseURL is the API root the client should be configured with.
func (f *Fixture) BaseURL() string { return f.HTTP.URL + "/api" }

// Requests counts API calls served so far.
func (f *Fixture) Requests() int64 { return f.requests.Load() }

func Start(tb testing.TB) *Fixture {
	tb.Helper()
	srv := stubapi.NewServer(stubapi.NewStore(), security.NewTokenIssuer([]byte("stub-test-secret"), time.Hour))
	f := &Fixture{Server: srv}
	router := srv.Router()
	f.HTTP = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		router.ServeHTTP(w, r)
	}))
	tb.Cleanup(f.HTTP.Close)
	return f
}

// CreateUser registers an account directly in the store.
func (f *Fixture) CreateUser(tb testing.TB, username string, role model.Role) model.User {
	tb.Helper()
	hashed, err := security.HashPassword(Password)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	u, err := f.Store().CreateUser(username, hashed, role)
	if err != nil {
		tb.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// Token mints a valid bearer token for u without a login round trip.
func (f *Fixture) Token(tb testing.TB, u model.User) string {
	tb.Helper()
	token, err := f.Tokens().GenerateToken(u.ID, u.Username, string(u.Role))
	if err != nil {
		tb.Fatalf("generate token: %v", err)
	}
	return token
}

// AddPatient creates a patient directly in the store, attributed to by.
func (f *Fixture) AddPatient(req model.AddPatientRequest, by model.User) model.Patient {
	return f.Store().CreatePatient(req, by.ID)
}
