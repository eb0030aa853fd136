// Package stubapi is an in-memory implementation of the clinic REST API.
// It speaks the same envelope protocol and role rules as the real service
// and exists for tests and local development of the frontend.
package stubapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinic/internal/common"
	"clinic/internal/common/security"
	"clinic/internal/domain/model"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type Server struct {
	store  *Store
	tokens *security.TokenIssuer
}

func NewServer(store *Store, tokens *security.TokenIssuer) *Server {
	return &Server{store: store, tokens: tokens}
}

func (s *Server) Store() *Store { return s.store }

// Tokens exposes the issuer so tests can mint tokens directly.
func (s *Server) Tokens() *security.TokenIssuer { return s.tokens }

// Router mounts the API under /api.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", s.register)
		api.Post("/login", s.login)

		api.Group(func(authed chi.Router) {
			authed.Use(jwtauth.Verifier(s.tokens.Auth))
			authed.Use(s.Authenticator)

			authed.Get("/me", s.me)
			authed.Get("/patients", s.listPatients)
			authed.Get("/patients/{id}", s.getPatient)

			authed.Group(func(reception chi.Router) {
				reception.Use(RequireRole(model.RoleReceptionist))
				reception.Post("/patients", s.addPatient)
				reception.Put("/patients/{id}", s.updatePatient)
				reception.Delete("/patients/{id}", s.deletePatient)
			})

			authed.Group(func(doctors chi.Router) {
				doctors.Use(RequireRole(model.RoleDoctor))
				doctors.Patch("/patients/{id}/notes", s.updatePatientNotes)
			})
		})
	})

	return r
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := common.Validate(v); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func respondWithErr(w http.ResponseWriter, err error) {
	msg := err.Error()
	if errors.Is(err, common.ErrNotFound) {
		msg = "patient not found"
	}
	common.RespondWithError(w, common.HTTPStatusFromError(err), msg)
}
