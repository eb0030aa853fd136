package handler

import (
	"log"
	"net/http"

	"clinic/internal/api/middleware"
	"clinic/internal/app/access"
	"clinic/internal/app/clinic"
	"clinic/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	base
	registry *clinic.Registry
}

func NewAuthHandler(registry *clinic.Registry, views *Views) *AuthHandler {
	return &AuthHandler{base: base{views: views}, registry: registry}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(guest chi.Router) {
		guest.Use(middleware.GuestOnly)
		guest.Get("/login", h.loginForm)
		guest.Post("/login", h.login)
		guest.Get("/register", h.registerForm)
		guest.Post("/register", h.register)
	})
	r.Post("/logout", h.logout)
}

type loginData struct {
	Username string
	Redirect string
}

type registerData struct {
	Username string
	Role     string
}

func (h *AuthHandler) loginForm(w http.ResponseWriter, r *http.Request) {
	data := loginData{Redirect: access.SafeReturnPath(r.URL.Query().Get("redirect"))}
	h.views.Render(w, http.StatusOK, "login.html", newPage("Log in", nil, data))
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.views.RenderError(w, http.StatusBadRequest, nil, "Invalid form submission.")
		return
	}

	data := loginData{
		Username: r.PostFormValue("username"),
		Redirect: access.SafeReturnPath(r.URL.Query().Get("redirect")),
	}
	req := model.LoginRequest{Username: data.Username, Password: r.PostFormValue("password")}
	if _, err := c.Login(r.Context(), req); err != nil {
		h.fail(w, r, err, "login.html", newPage("Log in", nil, data))
		return
	}

	dest := data.Redirect
	if dest == "" {
		dest = access.HomePath
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *AuthHandler) registerForm(w http.ResponseWriter, r *http.Request) {
	data := registerData{Role: string(model.RoleReceptionist)}
	h.views.Render(w, http.StatusOK, "register.html", newPage("Register", nil, data))
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.views.RenderError(w, http.StatusBadRequest, nil, "Invalid form submission.")
		return
	}

	data := registerData{Username: r.PostFormValue("username"), Role: r.PostFormValue("role")}
	req := model.RegisterRequest{
		Username: data.Username,
		Password: r.PostFormValue("password"),
		Role:     model.Role(data.Role),
	}
	if _, err := c.Auth.Register(r.Context(), req); err != nil {
		h.fail(w, r, err, "register.html", newPage("Register", nil, data))
		return
	}
	http.Redirect(w, r, access.LoginPath, http.StatusSeeOther)
}

// logout clears the token and forgets the client instance.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := middleware.GetSessionIDFromContext(r.Context()); ok {
		if err := h.registry.Drop(r.Context(), sid); err != nil {
			log.Printf("AuthHandler.logout: %v", err)
		}
	}
	http.Redirect(w, r, access.LoginPath, http.StatusSeeOther)
}
