package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"clinic/internal/api/middleware"
	"clinic/internal/app/access"
	"clinic/internal/app/service"
	"clinic/internal/common"
	"clinic/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type PatientHandler struct {
	base
}

func NewPatientHandler(views *Views) *PatientHandler {
	return &PatientHandler{base: base{views: views}}
}

func (h *PatientHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Get("/", h.listPatients)
		authed.Get("/{id}", h.getPatient)
	})

	r.Group(func(reception chi.Router) {
		reception.Use(middleware.RequireRole(model.RoleReceptionist))
		reception.Get("/add", h.addForm)
		reception.Post("/add", h.addPatient)
		reception.Get("/{id}/edit", h.editForm)
		reception.Post("/{id}/edit", h.updatePatient)
		reception.Get("/{id}/delete", h.deleteForm)
		reception.Post("/{id}/delete", h.deletePatient)
	})

	r.Group(func(doctor chi.Router) {
		doctor.Use(middleware.RequireRole(model.RoleDoctor))
		doctor.Get("/{id}/notes", h.notesForm)
		doctor.Post("/{id}/notes", h.updateNotes)
	})
}

type sortColumn struct {
	Label string
	URL   string
	Arrow string
}

type listData struct {
	Query    string
	Patients []model.Patient
	Columns  []sortColumn
}

var listColumns = []struct{ key, label string }{
	{service.SortByName, "Name"},
	{service.SortByAge, "Age"},
	{service.SortByGender, "Gender"},
	{service.SortByPhone, "Phone"},
	{service.SortByCreatedAt, "Created"},
	{service.SortByUpdatedAt, "Updated"},
}

func listOptionsFromQuery(q url.Values) service.ListOptions {
	if q.Get("sort") == "" {
		opts := service.DefaultListOptions()
		opts.Query = q.Get("q")
		return opts
	}
	return service.ListOptions{
		Query: q.Get("q"),
		Sort:  q.Get("sort"),
		Desc:  q.Get("order") == "desc",
	}.Normalize()
}

// columns builds the header links; clicking the active column flips its
// direction.
func columns(opts service.ListOptions) []sortColumn {
	out := make([]sortColumn, 0, len(listColumns))
	for _, col := range listColumns {
		v := url.Values{}
		if opts.Query != "" {
			v.Set("q", opts.Query)
		}
		v.Set("sort", col.key)
		order := "asc"
		arrow := ""
		if col.key == opts.Sort {
			if opts.Desc {
				arrow = " ↓"
			} else {
				arrow = " ↑"
				order = "desc"
			}
		}
		v.Set("order", order)
		out = append(out, sortColumn{Label: col.label, URL: "/patients?" + v.Encode(), Arrow: arrow})
	}
	return out
}

func (h *PatientHandler) listPatients(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	opts := listOptionsFromQuery(r.URL.Query())
	p := newPage("Patients", currentUser(r), nil)

	patients, err := c.Patients.View(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err, "", p)
		return
	}
	p.Data = listData{Query: opts.Query, Patients: patients, Columns: columns(opts)}
	h.views.Render(w, http.StatusOK, "patients.html", p)
}

type detailData struct {
	Patient *model.PatientDetail
}

func (h *PatientHandler) getPatient(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	p := newPage("Patient", currentUser(r), nil)

	detail, err := c.Patients.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "", p)
		return
	}
	p.Title = detail.Name
	p.Data = detailData{Patient: detail}
	h.views.Render(w, http.StatusOK, "patient.html", p)
}

// patientForm keeps the raw inputs so a rejected form re-renders as typed.
type patientForm struct {
	Name    string
	Age     string
	Gender  string
	Address string
	Phone   string
}

type formData struct {
	Action string
	Cancel string
	Form   patientForm
}

func readPatientForm(r *http.Request) patientForm {
	return patientForm{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Age:     strings.TrimSpace(r.PostFormValue("age")),
		Gender:  r.PostFormValue("gender"),
		Address: strings.TrimSpace(r.PostFormValue("address")),
		Phone:   strings.TrimSpace(r.PostFormValue("phone")),
	}
}

func formFromPatient(p model.Patient) patientForm {
	return patientForm{
		Name:    p.Name,
		Age:     strconv.Itoa(p.Age),
		Gender:  string(p.Gender),
		Address: p.Address,
		Phone:   p.Phone,
	}
}

func parseAge(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	age, err := strconv.Atoi(s)
	if err != nil {
		return 0, &common.ValidationError{Fields: map[string]string{"age": "must be a whole number"}}
	}
	return age, nil
}

func (h *PatientHandler) addForm(w http.ResponseWriter, r *http.Request) {
	data := formData{Action: "/patients/add", Cancel: "/patients", Form: patientForm{Gender: string(model.GenderMale)}}
	h.views.Render(w, http.StatusOK, "patient_form.html", newPage("Add patient", currentUser(r), data))
}

func (h *PatientHandler) addPatient(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.views.RenderError(w, http.StatusBadRequest, currentUser(r), "Invalid form submission.")
		return
	}
	form := readPatientForm(r)
	p := newPage("Add patient", currentUser(r), formData{Action: "/patients/add", Cancel: "/patients", Form: form})

	age, err := parseAge(form.Age)
	if err != nil {
		h.fail(w, r, err, "patient_form.html", p)
		return
	}
	resp, err := c.Patients.Create(r.Context(), model.AddPatientRequest{
		Name:    form.Name,
		Age:     age,
		Gender:  model.Gender(form.Gender),
		Address: form.Address,
		Phone:   form.Phone,
	})
	if err != nil {
		h.fail(w, r, err, "patient_form.html", p)
		return
	}
	http.Redirect(w, r, "/patients/"+url.PathEscape(resp.ID), http.StatusSeeOther)
}

func (h *PatientHandler) editForm(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	p := newPage("Edit patient", currentUser(r), nil)

	detail, err := c.Patients.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "", p)
		return
	}
	p.Data = editData(id, formFromPatient(detail.Patient))
	h.views.Render(w, http.StatusOK, "patient_form.html", p)
}

func editData(id string, form patientForm) formData {
	path := "/patients/" + url.PathEscape(id)
	return formData{Action: path + "/edit", Cancel: path, Form: form}
}

// updatePatient sends only the fields that differ from the current record.
func (h *PatientHandler) updatePatient(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.views.RenderError(w, http.StatusBadRequest, currentUser(r), "Invalid form submission.")
		return
	}
	id := chi.URLParam(r, "id")
	form := readPatientForm(r)
	p := newPage("Edit patient", currentUser(r), editData(id, form))

	current, err := c.Patients.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "", p)
		return
	}
	age, err := parseAge(form.Age)
	if err != nil {
		h.fail(w, r, err, "patient_form.html", p)
		return
	}

	var req model.UpdatePatientRequest
	if form.Name != current.Name {
		req.Name = &form.Name
	}
	if age != current.Age {
		req.Age = &age
	}
	if g := model.Gender(form.Gender); g != current.Gender {
		req.Gender = &g
	}
	if form.Address != current.Address {
		req.Address = &form.Address
	}
	if form.Phone != current.Phone {
		req.Phone = &form.Phone
	}

	if !req.Empty() {
		if _, err := c.Patients.Update(r.Context(), id, req); err != nil {
			h.fail(w, r, err, "patient_form.html", p)
			return
		}
	}
	http.Redirect(w, r, "/patients/"+url.PathEscape(id), http.StatusSeeOther)
}

type notesData struct {
	ID    string
	Name  string
	Notes string
}

func (h *PatientHandler) notesForm(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	p := newPage("Update notes", currentUser(r), nil)

	detail, err := c.Patients.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "", p)
		return
	}
	p.Data = notesData{ID: id, Name: detail.Name, Notes: detail.MedicalNotes}
	h.views.Render(w, http.StatusOK, "notes.html", p)
}

func (h *PatientHandler) updateNotes(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.views.RenderError(w, http.StatusBadRequest, currentUser(r), "Invalid form submission.")
		return
	}
	id := chi.URLParam(r, "id")
	notes := r.PostFormValue("medicalNotes")
	p := newPage("Update notes", currentUser(r), notesData{ID: id, Notes: notes})

	if _, err := c.Patients.UpdateNotes(r.Context(), id, notes); err != nil {
		h.fail(w, r, err, "notes.html", p)
		return
	}
	http.Redirect(w, r, "/patients/"+url.PathEscape(id), http.StatusSeeOther)
}

// deleteForm asks for confirmation; only the POST deletes.
func (h *PatientHandler) deleteForm(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	p := newPage("Delete patient", currentUser(r), nil)

	detail, err := c.Patients.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "", p)
		return
	}
	p.Data = detailData{Patient: detail}
	h.views.Render(w, http.StatusOK, "delete_confirm.html", p)
}

func (h *PatientHandler) deletePatient(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	p := newPage("Delete patient", currentUser(r), nil)

	if _, err := c.Patients.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "", p)
		return
	}
	http.Redirect(w, r, access.HomePath, http.StatusSeeOther)
}
