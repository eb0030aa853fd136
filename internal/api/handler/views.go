package handler

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"

	"clinic/internal/app/access"
	"clinic/internal/app/service"
	"clinic/internal/domain/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page is what every view renders from. Data holds the page-specific part.
type Page struct {
	Title  string
	User   *model.User
	Access access.Access
	Error  string
	Errors map[string]string
	Data   any
}

func newPage(title string, user *model.User, data any) *Page {
	return &Page{Title: title, User: user, Access: access.For(user), Data: data}
}

// Views holds one parsed template set per page, each paired with the
// shared layout.
type Views struct {
	pages map[string]*template.Template
}

var viewFuncs = template.FuncMap{
	"truncate": service.TruncateNotes,
}

func NewViews() (*Views, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	v := &Views{pages: make(map[string]*template.Template)}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		t, err := template.New(path.Base(layoutFile)).Funcs(viewFuncs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, err
		}
		v.pages[path.Base(f)] = t
	}
	return v, nil
}

// MustViews is NewViews for the embedded, known-good templates.
func MustViews() *Views {
	v, err := NewViews()
	if err != nil {
		panic(err)
	}
	return v
}

// Render writes the page with the given status. Execution happens into a
// buffer so a template failure still yields a clean 500.
func (v *Views) Render(w http.ResponseWriter, status int, name string, p *Page) {
	t, ok := v.pages[name]
	if !ok {
		log.Printf("Views.Render: unknown page %q", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		log.Printf("Views.Render %s: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// RenderError shows a bare error page.
func (v *Views) RenderError(w http.ResponseWriter, status int, user *model.User, message string) {
	p := newPage(http.StatusText(status), user, nil)
	p.Error = message
	v.Render(w, status, "error.html", p)
}
