// Package access decides, per route entry, whether the current session may
// see a page, and which patient actions the signed-in user may take.
//
// These checks shape the UI only. The API enforces the same rules.
package access

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"clinic/internal/domain/model"
)

// Paths the guard redirects to.
const (
	LoginPath = "/login"
	HomePath  = "/patients"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Decision is the result of one evaluation. User is set when Outcome is
// Allow; Location is set for redirects.
type Decision struct {
	Outcome  Outcome
	Location string
	User     *model.User
}

// Requirement is what a route asks of the session.
type Requirement struct {
	roles []model.Role
}

// RequireAuth admits any signed-in user.
func RequireAuth() Requirement { return Requirement{} }

// RequireRole admits signed-in users holding one of roles.
func RequireRole(roles ...model.Role) Requirement {
	return Requirement{roles: append([]model.Role(nil), roles...)}
}

func (r Requirement) admits(role model.Role) bool {
	if len(r.roles) == 0 {
		return true
	}
	for _, allowed := range r.roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Authenticator is the slice of the auth session store the guard needs.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) (bool, error)
	CurrentUser(ctx context.Context) (*model.User, error)
}

type Guard struct {
	auth Authenticator
}

func NewGuard(auth Authenticator) *Guard {
	return &Guard{auth: auth}
}

// Evaluate runs once per route entry. path is the page being entered and
// becomes the return destination of a login redirect. An error means the
// session store itself failed.
func (g *Guard) Evaluate(ctx context.Context, path string, req Requirement) (Decision, error) {
	ok, err := g.auth.IsAuthenticated(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("guard: %w", err)
	}
	if !ok {
		return loginRedirect(path), nil
	}

	user, err := g.auth.CurrentUser(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("guard: %w", err)
	}
	if user == nil {
		return loginRedirect(path), nil
	}
	if !req.admits(user.Role) {
		return Decision{Outcome: RedirectHome, Location: HomePath}, nil
	}
	return Decision{Outcome: Allow, User: user}, nil
}

// RedirectIfAuthenticated is for the login and register pages: a session
// that already has a valid user is sent to the patient list.
func (g *Guard) RedirectIfAuthenticated(ctx context.Context) (Decision, error) {
	ok, err := g.auth.IsAuthenticated(ctx)
	if err != nil || !ok {
		return Decision{Outcome: Allow}, err
	}
	user, err := g.auth.CurrentUser(ctx)
	if err != nil || user == nil {
		return Decision{Outcome: Allow}, err
	}
	return Decision{Outcome: RedirectHome, Location: HomePath, User: user}, nil
}

func loginRedirect(path string) Decision {
	loc := LoginPath
	if p := SafeReturnPath(path); p != "" {
		loc += "?redirect=" + url.QueryEscape(p)
	}
	return Decision{Outcome: RedirectLogin, Location: loc}
}

// ReturnPath is where a request should resume after signing in. A GET or
// HEAD resumes where it was; any other method resumes on the page one level
// up, since its route only accepts the submission.
func ReturnPath(method, requestURI string) string {
	if method == http.MethodGet || method == http.MethodHead {
		return requestURI
	}
	u, err := url.Parse(requestURI)
	if err != nil {
		return ""
	}
	p := strings.TrimSuffix(u.EscapedPath(), "/")
	if i := strings.LastIndex(p, "/"); i > 0 {
		return p[:i]
	}
	return HomePath
}

// SafeReturnPath returns p if it is a local absolute path and "" otherwise,
// so a redirect parameter can never send the browser off-site.
func SafeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return ""
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	if u.Path == LoginPath {
		return ""
	}
	return p
}
