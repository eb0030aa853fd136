package stubapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic/internal/common"
	"clinic/internal/common/security"
	"clinic/internal/domain/model"
)

type harness struct {
	srv    *Server
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := NewServer(NewStore(), security.NewTokenIssuer([]byte("k"), time.Hour))
	return &harness{srv: srv, router: srv.Router()}
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (int, common.Envelope[json.RawMessage]) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env common.Envelope[json.RawMessage]
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: body is not an envelope: %s", method, path, rec.Body.String())
	}
	return rec.Code, env
}

func (h *harness) login(t *testing.T, username string, role model.Role) string {
	t.Helper()
	code, env := h.do(t, http.MethodPost, "/api/register", "", model.RegisterRequest{
		Username: username, Password: "secret1", Role: role,
	})
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("register %s: %d %s", username, code, env.Error)
	}
	code, env = h.do(t, http.MethodPost, "/api/login", "", model.LoginRequest{Username: username, Password: "secret1"})
	if code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, code, env.Error)
	}
	var resp model.LoginResponse
	json.Unmarshal(env.Data, &resp)
	return resp.Token
}

func TestRegisterRejectsDuplicateAndInvalid(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", model.RoleReceptionist)

	code, env := h.do(t, http.MethodPost, "/api/register", "", model.RegisterRequest{
		Username: "alice", Password: "secret1", Role: model.RoleDoctor,
	})
	if code != http.StatusConflict || env.Success || env.Error == "" {
		t.Fatalf("duplicate register: %d %+v", code, env)
	}

	code, env = h.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "bob", "password": "secret1", "role": "nurse",
	})
	if code != http.StatusBadRequest || env.Success {
		t.Fatalf("invalid role: %d %+v", code, env)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", model.RoleDoctor)

	code, env := h.do(t, http.MethodPost, "/api/login", "", model.LoginRequest{Username: "alice", Password: "wrong-pass"})
	if code != http.StatusUnauthorized || env.Error != "invalid credentials" {
		t.Fatalf("got %d %+v", code, env)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/api/me", "/api/patients"} {
		code, env := h.do(t, http.MethodGet, path, "", nil)
		if code != http.StatusUnauthorized || env.Success {
			t.Errorf("%s without token: %d", path, code)
		}
		code, _ = h.do(t, http.MethodGet, path, "garbage", nil)
		if code != http.StatusUnauthorized {
			t.Errorf("%s with garbage token: %d", path, code)
		}
	}
}

func TestTokenRoleMustMatchUser(t *testing.T) {
	h := newHarness(t)
	h.login(t, "frontdesk", model.RoleReceptionist)
	user, _, err := h.srv.Store().FindUserByUsername("frontdesk")
	if err != nil {
		t.Fatal(err)
	}

	forged, err := h.srv.Tokens().GenerateToken(user.ID, user.Username, string(model.RoleDoctor))
	if err != nil {
		t.Fatal(err)
	}
	code, env := h.do(t, http.MethodGet, "/api/me", forged, nil)
	if code != http.StatusUnauthorized || env.Success {
		t.Fatalf("token with wrong role: %d %+v", code, env)
	}
	code, _ = h.do(t, http.MethodPatch, "/api/patients/p-1/notes", forged, map[string]string{"medicalNotes": "x"})
	if code != http.StatusUnauthorized {
		t.Fatalf("notes with wrong-role token: %d, want 401", code)
	}
}

func TestRoleRules(t *testing.T) {
	h := newHarness(t)
	reception := h.login(t, "frontdesk", model.RoleReceptionist)
	doctor := h.login(t, "drwho", model.RoleDoctor)

	add := model.AddPatientRequest{Name: "Jane Roe", Age: 40, Gender: model.GenderFemale}
	if code, _ := h.do(t, http.MethodPost, "/api/patients", doctor, add); code != http.StatusForbidden {
		t.Fatalf("doctor add: %d, want 403", code)
	}
	code, env := h.do(t, http.MethodPost, "/api/patients", reception, add)
	if code != http.StatusCreated {
		t.Fatalf("receptionist add: %d %s", code, env.Error)
	}
	var created model.AddPatientResponse
	json.Unmarshal(env.Data, &created)
	if created.CreatedBy != "frontdesk" || created.CreatedAt.IsZero() {
		t.Fatalf("created = %+v", created)
	}

	notes := model.UpdatePatientNotesRequest{MedicalNotes: "BP normal"}
	if code, _ := h.do(t, http.MethodPatch, "/api/patients/"+created.ID+"/notes", reception, notes); code != http.StatusForbidden {
		t.Fatalf("receptionist notes: %d, want 403", code)
	}
	if code, env := h.do(t, http.MethodPatch, "/api/patients/"+created.ID+"/notes", doctor, notes); code != http.StatusOK {
		t.Fatalf("doctor notes: %d %s", code, env.Error)
	}

	code, env = h.do(t, http.MethodGet, "/api/patients/"+created.ID, doctor, nil)
	if code != http.StatusOK {
		t.Fatalf("get: %d", code)
	}
	var detail model.PatientDetail
	json.Unmarshal(env.Data, &detail)
	if detail.MedicalNotes != "BP normal" || detail.CreatedBy.Username != "frontdesk" || detail.UpdatedBy.Username != "drwho" {
		t.Fatalf("detail = %+v", detail)
	}
	if detail.UpdatedAt.Before(detail.CreatedAt.Time) {
		t.Fatal("updatedAt before createdAt")
	}

	if code, _ := h.do(t, http.MethodDelete, "/api/patients/"+created.ID, doctor, nil); code != http.StatusForbidden {
		t.Fatalf("doctor delete: %d, want 403", code)
	}
	if code, _ := h.do(t, http.MethodDelete, "/api/patients/"+created.ID, reception, nil); code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
	code, env = h.do(t, http.MethodDelete, "/api/patients/"+created.ID, reception, nil)
	if code != http.StatusNotFound || env.Error != "patient not found" {
		t.Fatalf("second delete: %d %+v", code, env)
	}
}

func TestPartialUpdateKeepsOtherFields(t *testing.T) {
	h := newHarness(t)
	reception := h.login(t, "frontdesk", model.RoleReceptionist)

	code, env := h.do(t, http.MethodPost, "/api/patients", reception, model.AddPatientRequest{
		Name: "Jane Roe", Age: 40, Gender: model.GenderFemale, Phone: "555",
	})
	if code != http.StatusCreated {
		t.Fatal(env.Error)
	}
	var created model.AddPatientResponse
	json.Unmarshal(env.Data, &created)

	if code, env := h.do(t, http.MethodPut, "/api/patients/"+created.ID, reception, map[string]string{"name": "Jane Doe"}); code != http.StatusOK {
		t.Fatalf("update: %d %s", code, env.Error)
	}
	detail, err := h.srv.Store().GetPatient(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Name != "Jane Doe" || detail.Age != 40 || detail.Phone != "555" {
		t.Fatalf("detail = %+v", detail.Patient)
	}
}

func TestSeed(t *testing.T) {
	store := NewStore()
	if err := Seed(store); err != nil {
		t.Fatal(err)
	}
	if got := len(store.ListPatients()); got != len(demoPatients) {
		t.Fatalf("seeded %d patients", got)
	}
	if _, _, err := store.FindUserByUsername(DemoDoctor); err != nil {
		t.Fatal(err)
	}
}
