package stubapi

import (
	"errors"
	"net/http"

	"clinic/internal/common"
	"clinic/internal/common/security"
	"clinic/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user, err := s.store.CreateUser(req.Username, hashed, req.Role)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), "username already taken")
		return
	}
	common.RespondWithData(w, http.StatusCreated, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, hashed, err := s.store.FindUserByUsername(req.Username)
	if err != nil || !security.CheckPasswordHash(req.Password, hashed) {
		common.RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.tokens.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	common.RespondWithData(w, http.StatusOK, model.LoginResponse{Token: token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	common.RespondWithData(w, http.StatusOK, user)
}

func (s *Server) listPatients(w http.ResponseWriter, r *http.Request) {
	common.RespondWithData(w, http.StatusOK, s.store.ListPatients())
}

func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	detail, err := s.store.GetPatient(chi.URLParam(r, "id"))
	if err != nil {
		respondWithErr(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, detail)
}

func (s *Server) addPatient(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req model.AddPatientRequest
	if !decode(w, r, &req) {
		return
	}
	p := s.store.CreatePatient(req, user.ID)
	common.RespondWithData(w, http.StatusCreated, model.AddPatientResponse{
		ID:        p.ID,
		CreatedBy: user.Username,
		CreatedAt: p.CreatedAt,
	})
}

func (s *Server) updatePatient(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req model.UpdatePatientRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := s.store.UpdatePatient(chi.URLParam(r, "id"), req, user.ID)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, model.UpdatePatientResponse{
		ID:        p.ID,
		UpdatedBy: user.Username,
		UpdatedAt: p.UpdatedAt,
	})
}

func (s *Server) updatePatientNotes(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req model.UpdatePatientNotesRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := s.store.UpdatePatientNotes(chi.URLParam(r, "id"), req.MedicalNotes, user.ID)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, model.UpdatePatientResponse{
		ID:        p.ID,
		UpdatedBy: user.Username,
		UpdatedAt: p.UpdatedAt,
	})
}

func (s *Server) deletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeletePatient(id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			respondWithErr(w, err)
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	common.RespondWithData(w, http.StatusOK, model.DeletePatientResponse{
		ID:      id,
		Success: true,
		Message: "patient deleted",
	})
}
