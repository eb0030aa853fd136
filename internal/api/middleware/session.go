package middleware

import (
	"context"
	"log"
	"net/http"

	"clinic/internal/app/access"
	"clinic/internal/app/clinic"
	"clinic/internal/domain/model"

	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "clinic_sid"

type contextKey string

const (
	SessionIDCtxKey contextKey = "sessionID"
	ClientCtxKey    contextKey = "client"
	UserCtxKey      contextKey = "user"
)

// Workspace binds each request to the client instance of its browser
// session, issuing a session cookie on first visit.
func Workspace(reg *clinic.Registry, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), SessionIDCtxKey, sid)
			ctx = context.WithValue(ctx, ClientCtxKey, reg.Get(sid))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require runs the route guard on entry. Allowed requests carry the
// signed-in user in their context; the rest are redirected.
func Require(req access.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := GetClientFromContext(r.Context())
			if !ok {
				http.Error(w, "Missing client session", http.StatusInternalServerError)
				return
			}

			d, err := c.Guard.Evaluate(r.Context(), access.ReturnPath(r.Method, r.URL.RequestURI()), req)
			if err != nil {
				log.Printf("middleware.Require: %v", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if d.Outcome != access.Allow {
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, d.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth admits any signed-in user.
func RequireAuth(next http.Handler) http.Handler {
	return Require(access.RequireAuth())(next)
}

// RequireRole admits signed-in users holding one of roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return Require(access.RequireRole(roles...))
}

// GuestOnly sends already signed-in sessions away from the login and
// register pages.
func GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClientFromContext(r.Context())
		if !ok {
			http.Error(w, "Missing client session", http.StatusInternalServerError)
			return
		}
		d, err := c.Guard.RedirectIfAuthenticated(r.Context())
		if err != nil {
			log.Printf("middleware.GuestOnly: %v", err)
		}
		if d.Outcome != access.Allow {
			http.Redirect(w, r, d.Location, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDCtxKey).(string)
	return sid, ok
}

func GetClientFromContext(ctx context.Context) (*clinic.Client, bool) {
	c, ok := ctx.Value(ClientCtxKey).(*clinic.Client)
	return c, ok
}

// GetUserFromContext returns the user admitted by Require.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(UserCtxKey).(*model.User)
	return u, ok && u != nil
}
