package handler

import (
	"errors"
	"log"
	"net/http"

	"clinic/internal/api/middleware"
	"clinic/internal/app/clinic"
	"clinic/internal/common"
	"clinic/internal/domain/model"
)

// base is shared by the page handlers.
type base struct {
	views *Views
}

func (b base) client(w http.ResponseWriter, r *http.Request) (*clinic.Client, bool) {
	c, ok := middleware.GetClientFromContext(r.Context())
	if !ok {
		b.views.RenderError(w, http.StatusInternalServerError, nil, "Missing client session.")
	}
	return c, ok
}

// fail renders err for a page. On a signed-in page a rejected token means
// the session ended on the server: the slot is cleared and the browser sent
// to log in again.
// Field errors re-render the form; everything else is shown on it as a
// message, or on the error page when there is no form.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error, form string, p *Page) {
	if p.User != nil && errors.Is(err, common.ErrUnauthorized) {
		if c, ok := middleware.GetClientFromContext(r.Context()); ok {
			if clearErr := c.Logout(r.Context()); clearErr != nil {
				log.Printf("handler: clear expired session: %v", clearErr)
			}
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	status := common.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("handler %s %s: %v", r.Method, r.URL.Path, err)
	}

	var vErr *common.ValidationError
	if errors.As(err, &vErr) {
		p.Errors = vErr.Fields
	}
	p.Error = common.UserMessage(err)

	if form == "" || errors.Is(err, common.ErrNotFound) {
		b.views.RenderError(w, status, p.User, p.Error)
		return
	}
	b.views.Render(w, status, form, p)
}

func currentUser(r *http.Request) *model.User {
	u, _ := middleware.GetUserFromContext(r.Context())
	return u
}
