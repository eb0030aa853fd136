package query

import (
	"context"

	"clinic/internal/app/service"
	"clinic/internal/domain/model"
)

// PatientQueries fronts PatientService with the cache. Reads go through
// the cache; each successful write updates it. A failed write leaves it
// untouched.
type PatientQueries struct {
	cache    *Cache
	patients *service.PatientService
}

func NewPatientQueries(cache *Cache, patients *service.PatientService) *PatientQueries {
	return &PatientQueries{cache: cache, patients: patients}
}

// List returns the patients in server order. The slice is the caller's.
func (q *PatientQueries) List(ctx context.Context) ([]model.Patient, error) {
	list, err := Fetch(ctx, q.cache, PatientsKey(), q.patients.List)
	if err != nil {
		return nil, err
	}
	return append([]model.Patient(nil), list...), nil
}

// View is List shaped for display: filtered and sorted per opts.
func (q *PatientQueries) View(ctx context.Context, opts service.ListOptions) ([]model.Patient, error) {
	list, err := Fetch(ctx, q.cache, PatientsKey(), q.patients.List)
	if err != nil {
		return nil, err
	}
	return service.ApplyListOptions(list, opts), nil
}

func (q *PatientQueries) Get(ctx context.Context, id string) (*model.PatientDetail, error) {
	detail, err := Fetch(ctx, q.cache, PatientKey(id), func(ctx context.Context) (model.PatientDetail, error) {
		d, err := q.patients.Get(ctx, id)
		if err != nil {
			return model.PatientDetail{}, err
		}
		return *d, nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create seeds the new patient's detail entry from the request and the
// server's reply, so opening it right away costs no round trip.
func (q *PatientQueries) Create(ctx context.Context, req model.AddPatientRequest) (*model.AddPatientResponse, error) {
	resp, err := q.patients.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	q.cache.Invalidate(PatientsKey())
	q.cache.Set(PatientKey(resp.ID), seedDetail(req, resp))
	return resp, nil
}

func seedDetail(req model.AddPatientRequest, resp *model.AddPatientResponse) model.PatientDetail {
	by := model.User{Username: resp.CreatedBy}
	return model.PatientDetail{
		Patient: model.Patient{
			ID:        resp.ID,
			Name:      req.Name,
			Age:       req.Age,
			Gender:    req.Gender,
			Address:   req.Address,
			Phone:     req.Phone,
			CreatedAt: resp.CreatedAt,
			UpdatedAt: resp.CreatedAt,
		},
		CreatedBy: by,
		UpdatedBy: by,
	}
}

func (q *PatientQueries) Update(ctx context.Context, id string, req model.UpdatePatientRequest) (*model.UpdatePatientResponse, error) {
	resp, err := q.patients.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	q.cache.Invalidate(PatientsKey(), PatientKey(id))
	return resp, nil
}

func (q *PatientQueries) UpdateNotes(ctx context.Context, id, notes string) (*model.UpdatePatientResponse, error) {
	resp, err := q.patients.UpdateNotes(ctx, id, notes)
	if err != nil {
		return nil, err
	}
	q.cache.Invalidate(PatientsKey(), PatientKey(id))
	return resp, nil
}

// Delete keeps the deleted patient's detail entry but marks it stale; the
// next read refetches and reports the patient as not found.
func (q *PatientQueries) Delete(ctx context.Context, id string) (*model.DeletePatientResponse, error) {
	resp, err := q.patients.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	q.cache.Invalidate(PatientsKey())
	q.cache.MarkStale(PatientKey(id))
	return resp, nil
}
