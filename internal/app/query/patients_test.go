package query

import (
	"context"
	"errors"
	"testing"

	"clinic/internal/app/service"
	"clinic/internal/app/session"
	"clinic/internal/common"
	"clinic/internal/domain/model"
	"clinic/internal/domain/repository"
	"clinic/internal/platform/apiclient"
	"clinic/internal/stubapi/stubapitest"
)

type fixture struct {
	api     *stubapitest.Fixture
	session *session.Session
	cache   *Cache
	q       *PatientQueries
}

func newFixture(t *testing.T, role model.Role) *fixture {
	t.Helper()
	api := stubapitest.Start(t)
	sess := session.New(repository.NewMemoryTokenRepository(), "")
	client := apiclient.New(api.BaseURL(), sess)
	cache := NewCache(0)
	f := &fixture{
		api:     api,
		session: sess,
		cache:   cache,
		q:       NewPatientQueries(cache, service.NewPatientService(client)),
	}
	f.login(t, "user-"+string(role), role)
	return f
}

func (f *fixture) login(t *testing.T, username string, role model.Role) model.User {
	t.Helper()
	u := f.api.CreateUser(t, username, role)
	if err := f.session.Set(context.Background(), f.api.Token(t, u)); err != nil {
		t.Fatal(err)
	}
	return u
}

var jane = model.AddPatientRequest{Name: "Jane Roe", Age: 40, Gender: model.GenderFemale, Phone: "555"}

func TestReadsAreCached(t *testing.T) {
	f := newFixture(t, model.RoleReceptionist)
	ctx := context.Background()

	if _, err := f.q.List(ctx); err != nil {
		t.Fatal(err)
	}
	n := f.api.Requests()
	if _, err := f.q.View(ctx, service.ListOptions{}); err != nil {
		t.Fatal(err)
	}
	if f.api.Requests() != n {
		t.Fatal("second list read hit the server")
	}
}

func TestCreateSeedsDetail(t *testing.T) {
	f := newFixture(t, model.RoleReceptionist)
	ctx := context.Background()
	if _, err := f.q.List(ctx); err != nil {
		t.Fatal(err)
	}

	resp, err := f.q.Create(ctx, jane)
	if err != nil {
		t.Fatal(err)
	}
	n := f.api.Requests()
	detail, err := f.q.Get(ctx, resp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if f.api.Requests() != n {
		t.Fatal("detail after create needed a round trip")
	}
	if detail.Name != jane.Name || detail.Phone != jane.Phone || detail.CreatedBy.Username != "user-receptionist" {
		t.Fatalf("seeded detail = %+v", detail)
	}

	list, err := f.q.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if f.api.Requests() != n+1 || len(list) != 1 {
		t.Fatalf("list not refetched after create: %d patients", len(list))
	}
}

func TestUpdateIsVisibleEverywhere(t *testing.T) {
	f := newFixture(t, model.RoleReceptionist)
	ctx := context.Background()
	resp, err := f.q.Create(ctx, jane)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.q.List(ctx); err != nil {
		t.Fatal(err)
	}

	name := "X Name"
	if _, err := f.q.Update(ctx, resp.ID, model.UpdatePatientRequest{Name: &name}); err != nil {
		t.Fatal(err)
	}
	detail, err := f.q.Get(ctx, resp.ID)
	if err != nil || detail.Name != name {
		t.Fatalf("detail after update: %+v %v", detail, err)
	}
	list, err := f.q.List(ctx)
	if err != nil || len(list) != 1 || list[0].Name != name {
		t.Fatalf("list after update: %+v %v", list, err)
	}
}

func TestUpdateNotesInvalidatesDetail(t *testing.T) {
	f := newFixture(t, model.RoleReceptionist)
	ctx := context.Background()
	resp, err := f.q.Create(ctx, jane)
	if err != nil {
		t.Fatal(err)
	}
	f.q.Get(ctx, resp.ID)

	f.login(t, "drwho", model.RoleDoctor)
	if _, err := f.q.UpdateNotes(ctx, resp.ID, "BP normal"); err != nil {
		t.Fatal(err)
	}
	detail, err := f.q.Get(ctx, resp.ID)
	if err != nil || detail.MedicalNotes != "BP normal" || detail.UpdatedBy.Username != "drwho" {
		t.Fatalf("detail = %+v %v", detail, err)
	}
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	f := newFixture(t, model.RoleReceptionist)
	ctx := context.Background()
	resp, err := f.q.Create(ctx, jane)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.q.Delete(ctx, resp.ID); err != nil {
		t.Fatal(err)
	}
	if _, fresh, ok := f.cache.Peek(PatientKey(resp.ID)); !ok || fresh {
		t.Fatalf("detail entry: present=%v fresh=%v, want stale", ok, fresh)
	}
	if _, err := f.q.Get(ctx, resp.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	list, _ := f.q.List(ctx)
	if len(list) != 0 {
		t.Fatalf("list still has %d patients", len(list))
	}
	if _, err := f.q.Delete(ctx, resp.ID); err == nil {
		t.Fatal("second delete succeeded")
	}
}

func TestFailedMutationLeavesCache(t *testing.T) {
	f := newFixture(t, model.RoleDoctor)
	ctx := context.Background()
	u := f.api.CreateUser(t, "frontdesk", model.RoleReceptionist)
	p := f.api.AddPatient(jane, u)

	if _, err := f.q.List(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.q.Get(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	name := "Other Name"
	if _, err := f.q.Update(ctx, p.ID, model.UpdatePatientRequest{Name: &name}); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("doctor update: %v", err)
	}
	if _, err := f.q.Delete(ctx, p.ID); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("doctor delete: %v", err)
	}
	if _, fresh, _ := f.cache.Peek(PatientsKey()); !fresh {
		t.Fatal("list invalidated by failed write")
	}
	if _, fresh, _ := f.cache.Peek(PatientKey(p.ID)); !fresh {
		t.Fatal("detail invalidated by failed write")
	}
}

func TestListReturnsCopies(t *testing.T) {
	f := newFixture(t, model.RoleReceptionist)
	ctx := context.Background()
	if _, err := f.q.Create(ctx, jane); err != nil {
		t.Fatal(err)
	}
	list, _ := f.q.List(ctx)
	list[0].Name = "mutated"
	again, _ := f.q.List(ctx)
	if again[0].Name != jane.Name {
		t.Fatal("caller mutation leaked into the cache")
	}
}
