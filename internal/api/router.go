package api

import (
	"net/http"
	"time"

	"clinic/internal/api/handler"
	"clinic/internal/api/middleware"
	"clinic/internal/app/clinic"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	CookieSecure bool
}

func NewRouter(registry *clinic.Registry, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	views := handler.MustViews()

	// Every page below runs against the browser session's client instance.
	r.Group(func(web chi.Router) {
		web.Use(middleware.Workspace(registry, cfg.CookieSecure))

		web.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/patients", http.StatusSeeOther)
		})

		authHandler := handler.NewAuthHandler(registry, views)
		authHandler.RegisterRoutes(web)

		patientHandler := handler.NewPatientHandler(views)
		web.Route("/patients", patientHandler.RegisterRoutes)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		views.RenderError(w, http.StatusNotFound, nil, "Page not found.")
	})

	return r
}
