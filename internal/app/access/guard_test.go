package access

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"clinic/internal/app/service"
	"clinic/internal/app/session"
	"clinic/internal/domain/model"
	"clinic/internal/domain/repository"
	"clinic/internal/platform/apiclient"
	"clinic/internal/stubapi/stubapitest"
)

type fakeAuth struct {
	present bool
	user    *model.User
	err     error
	calls   int
}

func (f *fakeAuth) IsAuthenticated(context.Context) (bool, error) { return f.present, f.err }

func (f *fakeAuth) CurrentUser(context.Context) (*model.User, error) {
	f.calls++
	return f.user, nil
}

func TestEvaluate(t *testing.T) {
	doctor := &model.User{ID: "1", Username: "drwho", Role: model.RoleDoctor}
	reception := &model.User{ID: "2", Username: "frontdesk", Role: model.RoleReceptionist}

	tests := []struct {
		name     string
		auth     *fakeAuth
		path     string
		req      Requirement
		outcome  Outcome
		location string
	}{
		{"no token", &fakeAuth{}, "/patients/7", RequireAuth(), RedirectLogin, "/login?redirect=%2Fpatients%2F7"},
		{"token rejected", &fakeAuth{present: true}, "/patients", RequireAuth(), RedirectLogin, "/login?redirect=%2Fpatients"},
		{"any user", &fakeAuth{present: true, user: doctor}, "/patients", RequireAuth(), Allow, ""},
		{"role matches", &fakeAuth{present: true, user: doctor}, "/patients/7/notes", RequireRole(model.RoleDoctor), Allow, ""},
		{"role mismatch", &fakeAuth{present: true, user: reception}, "/patients/7/notes", RequireRole(model.RoleDoctor), RedirectHome, "/patients"},
		{"one of several", &fakeAuth{present: true, user: reception}, "/x", RequireRole(model.RoleDoctor, model.RoleReceptionist), Allow, ""},
		{"off-site path dropped", &fakeAuth{}, "//evil.example", RequireAuth(), RedirectLogin, "/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewGuard(tt.auth).Evaluate(context.Background(), tt.path, tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if d.Outcome != tt.outcome || d.Location != tt.location {
				t.Fatalf("got %v %q, want %v %q", d.Outcome, d.Location, tt.outcome, tt.location)
			}
			if d.Outcome == Allow && d.User != tt.auth.user {
				t.Fatal("allowed decision lacks the user")
			}
		})
	}
}

func TestEvaluateSkipsNetworkWithoutToken(t *testing.T) {
	auth := &fakeAuth{}
	NewGuard(auth).Evaluate(context.Background(), "/patients", RequireAuth())
	if auth.calls != 0 {
		t.Fatal("asked the server with no token stored")
	}
}

func TestEvaluateStoreFailure(t *testing.T) {
	boom := errors.New("store down")
	_, err := NewGuard(&fakeAuth{err: boom}).Evaluate(context.Background(), "/patients", RequireAuth())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	g := NewGuard(&fakeAuth{present: true, user: &model.User{Role: model.RoleDoctor}})
	if d, _ := g.RedirectIfAuthenticated(context.Background()); d.Outcome != RedirectHome {
		t.Fatalf("signed in: %v", d.Outcome)
	}
	g = NewGuard(&fakeAuth{present: true})
	if d, _ := g.RedirectIfAuthenticated(context.Background()); d.Outcome != Allow {
		t.Fatalf("stale token: %v", d.Outcome)
	}
}

// A receptionist entering the notes page is sent home against a live API.
func TestGuardAgainstAPI(t *testing.T) {
	api := stubapitest.Start(t)
	sess := session.New(repository.NewMemoryTokenRepository(), "")
	auth := service.NewAuthService(apiclient.New(api.BaseURL(), sess), sess)
	g := NewGuard(auth)
	ctx := context.Background()

	u := api.CreateUser(t, "frontdesk", model.RoleReceptionist)
	sess.Set(ctx, api.Token(t, u))

	d, err := g.Evaluate(ctx, "/patients/1/notes", RequirementFor(UpdateNotes))
	if err != nil || d.Outcome != RedirectHome {
		t.Fatalf("notes: %v %v", d.Outcome, err)
	}
	d, _ = g.Evaluate(ctx, "/patients/1/edit", RequirementFor(EditPatient))
	if d.Outcome != Allow || d.User.Username != "frontdesk" {
		t.Fatalf("edit: %+v", d)
	}

	sess.Set(ctx, "not-a-jwt")
	d, _ = g.Evaluate(ctx, "/patients", RequireAuth())
	if d.Outcome != RedirectLogin {
		t.Fatalf("bad token: %v", d.Outcome)
	}
	if ok, _ := sess.Present(ctx); ok {
		t.Fatal("bad token left in the slot")
	}
}

func TestSafeReturnPath(t *testing.T) {
	for in, want := range map[string]string{
		"/patients/1?x=y":       "/patients/1?x=y",
		"":                      "",
		"patients":              "",
		"//evil.example/x":      "",
		"/\\evil.example":       "",
		"https://evil.example/": "",
		"/login":                "",
	} {
		if got := SafeReturnPath(in); got != want {
			t.Errorf("SafeReturnPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReturnPath(t *testing.T) {
	tests := []struct {
		method, uri, want string
	}{
		{http.MethodGet, "/patients/p-1?sort=name", "/patients/p-1?sort=name"},
		{http.MethodHead, "/patients", "/patients"},
		{http.MethodPost, "/patients/p-1/delete", "/patients/p-1"},
		{http.MethodPost, "/patients/p-1/notes?x=y", "/patients/p-1"},
		{http.MethodPost, "/patients/add", "/patients"},
		{http.MethodPost, "/patients/a%2Fb/edit", "/patients/a%2Fb"},
		{http.MethodPost, "/logout", HomePath},
	}
	for _, tt := range tests {
		if got := ReturnPath(tt.method, tt.uri); got != tt.want {
			t.Errorf("ReturnPath(%s, %q) = %q, want %q", tt.method, tt.uri, got, tt.want)
		}
	}
}
