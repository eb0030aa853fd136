package clinic

import (
	"context"
	"testing"
	"time"

	"clinic/internal/app/access"
	"clinic/internal/app/service"
	"clinic/internal/domain/model"
	"clinic/internal/domain/repository"
	"clinic/internal/stubapi/stubapitest"
)

func TestLoginThenListSortedNewestFirst(t *testing.T) {
	api := stubapitest.Start(t)
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	api.Store().SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	u := api.CreateUser(t, "alice", model.RoleReceptionist)
	for _, name := range []string{"First In", "Second In", "Third In"} {
		api.AddPatient(model.AddPatientRequest{Name: name, Age: 30, Gender: model.GenderMale}, u)
	}

	c := New(Options{BaseURL: api.BaseURL()})
	resp, err := c.Auth.Login(ctx, model.LoginRequest{Username: "alice", Password: stubapitest.Password})
	if err != nil {
		t.Fatal(err)
	}
	if token, _, _ := c.Session.Token(ctx); token != resp.Token {
		t.Fatal("token not stored")
	}

	list, err := c.Patients.View(ctx, service.ListOptions{})
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %v %v", list, err)
	}
	for i, want := range []string{"Third In", "Second In", "First In"} {
		if list[i].Name != want {
			t.Fatalf("list[%d] = %s, want %s", i, list[i].Name, want)
		}
	}

	d, err := c.Guard.Evaluate(ctx, "/patients/add", access.RequirementFor(access.AddPatient))
	if err != nil || d.Outcome != access.Allow {
		t.Fatalf("guard: %+v %v", d, err)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	d, _ = c.Guard.Evaluate(ctx, "/patients", access.RequireAuth())
	if d.Outcome != access.RedirectLogin {
		t.Fatalf("after logout: %v", d.Outcome)
	}
}

func TestRegistryIsolatesSessions(t *testing.T) {
	api := stubapitest.Start(t)
	ctx := context.Background()
	api.CreateUser(t, "alice", model.RoleReceptionist)

	tokens := repository.NewMemoryTokenRepository()
	reg := NewRegistry(Options{BaseURL: api.BaseURL(), Tokens: tokens})

	a := reg.Get("browser-a")
	if reg.Get("browser-a") != a {
		t.Fatal("instance not reused")
	}
	b := reg.Get("browser-b")

	if _, err := a.Auth.Login(ctx, model.LoginRequest{Username: "alice", Password: stubapitest.Password}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := a.Auth.IsAuthenticated(ctx); !ok {
		t.Fatal("a not signed in")
	}
	if ok, _ := b.Auth.IsAuthenticated(ctx); ok {
		t.Fatal("b shares a's session")
	}

	// A fresh registry over the same repository resumes the session.
	resumed := NewRegistry(Options{BaseURL: api.BaseURL(), Tokens: tokens}).Get("browser-a")
	if user, _ := resumed.Auth.CurrentUser(ctx); user == nil || user.Username != "alice" {
		t.Fatalf("resumed user = %v", user)
	}

	if err := reg.Drop(ctx, "browser-a"); err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d", reg.Len())
	}
	if ok, _ := resumed.Auth.IsAuthenticated(ctx); ok {
		t.Fatal("slot survived drop")
	}
}

func TestRegistryEvictKeepsSlot(t *testing.T) {
	api := stubapitest.Start(t)
	ctx := context.Background()
	api.CreateUser(t, "alice", model.RoleReceptionist)

	reg := NewRegistry(Options{BaseURL: api.BaseURL()})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	idle := reg.Get("idle")
	if _, err := idle.Auth.Login(ctx, model.LoginRequest{Username: "alice", Password: stubapitest.Password}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(20 * time.Minute)
	reg.Get("busy")

	if n := reg.Evict(10 * time.Minute); n != 1 || reg.Len() != 1 {
		t.Fatalf("evicted %d, %d left", n, reg.Len())
	}
	again := reg.Get("idle")
	if again == idle {
		t.Fatal("evicted instance reused")
	}
	if ok, _ := again.Auth.IsAuthenticated(ctx); !ok {
		t.Fatal("session lost on eviction")
	}
}
