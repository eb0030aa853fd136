package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"clinic/internal/common"
	"clinic/internal/domain/model"
	"clinic/internal/platform/apiclient"
)

// PatientService is the typed data-access layer over the patients API.
// Every method unwraps the envelope and never swallows failures.
type PatientService struct {
	api *apiclient.Client
}

func NewPatientService(api *apiclient.Client) *PatientService {
	return &PatientService{api: api}
}

func patientPath(id string) string {
	return "/patients/" + url.PathEscape(id)
}

// List returns the server's array as-is; ordering and filtering are local
// concerns (see ListOptions).
func (s *PatientService) List(ctx context.Context) ([]model.Patient, error) {
	var patients []model.Patient
	if err := s.api.Do(ctx, http.MethodGet, "/patients", nil, &patients); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	if patients == nil {
		patients = []model.Patient{}
	}
	return patients, nil
}

// Get fails with common.ErrNotFound whenever the server reports failure;
// the server's message is preserved.
func (s *PatientService) Get(ctx context.Context, id string) (*model.PatientDetail, error) {
	if id == "" {
		return nil, &common.ValidationError{Fields: map[string]string{"id": "is required"}}
	}

	var detail model.PatientDetail
	if err := s.api.Do(ctx, http.MethodGet, patientPath(id), nil, &detail); err != nil {
		var envErr *common.EnvelopeError
		if errors.As(err, &envErr) {
			err = envErr.WithKind(common.ErrNotFound)
		}
		return nil, fmt.Errorf("get patient %s: %w", id, err)
	}
	return &detail, nil
}

func (s *PatientService) Create(ctx context.Context, req model.AddPatientRequest) (*model.AddPatientResponse, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	var resp model.AddPatientResponse
	if err := s.api.Do(ctx, http.MethodPost, "/patients", req, &resp); err != nil {
		return nil, fmt.Errorf("add patient: %w", err)
	}
	return &resp, nil
}

// Update sends only the supplied fields.
func (s *PatientService) Update(ctx context.Context, id string, req model.UpdatePatientRequest) (*model.UpdatePatientResponse, error) {
	if id == "" {
		return nil, &common.ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	if req.Empty() {
		return nil, &common.ValidationError{Fields: map[string]string{"patient": "no fields to update"}}
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	var resp model.UpdatePatientResponse
	if err := s.api.Do(ctx, http.MethodPut, patientPath(id), req, &resp); err != nil {
		return nil, fmt.Errorf("update patient %s: %w", id, err)
	}
	return &resp, nil
}

// UpdateNotes uses the narrow notes endpoint, open to doctors who lack
// general edit rights.
func (s *PatientService) UpdateNotes(ctx context.Context, id, notes string) (*model.UpdatePatientResponse, error) {
	if id == "" {
		return nil, &common.ValidationError{Fields: map[string]string{"id": "is required"}}
	}

	var resp model.UpdatePatientResponse
	body := model.UpdatePatientNotesRequest{MedicalNotes: notes}
	if err := s.api.Do(ctx, http.MethodPatch, patientPath(id)+"/notes", body, &resp); err != nil {
		return nil, fmt.Errorf("update notes %s: %w", id, err)
	}
	return &resp, nil
}

// Delete surfaces the server's failure for an id that is already gone.
func (s *PatientService) Delete(ctx context.Context, id string) (*model.DeletePatientResponse, error) {
	if id == "" {
		return nil, &common.ValidationError{Fields: map[string]string{"id": "is required"}}
	}

	var resp model.DeletePatientResponse
	if err := s.api.Do(ctx, http.MethodDelete, patientPath(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("delete patient %s: %w", id, err)
	}
	// Servers that answer with just {id} still mean success.
	resp.Success = true
	return &resp, nil
}
