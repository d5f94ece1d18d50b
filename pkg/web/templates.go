package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/nav"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Shell texts
const (
	AppName     = "My App"
	FooterText  = "MyApp ©2025"
	WelcomeText = "Selamat datang di Dashboard"
)

// layouts and the pages rendered inside them
var pageLayouts = map[string]string{
	"login":    "auth",
	"home":     "shell",
	"section":  "shell",
	"notfound": "shell",
}

// pageData is what every template receives
type pageData struct {
	Title   string
	AppName string
	Footer  string
	Flash   *notify.Flash
	Nav     *nav.View

	// login form
	LoginPath string
	Email     string

	// section pages
	Section  string
	Resource string
	APIPath  string

	Welcome string
}

type pages struct {
	byName map[string]*template.Template
}

func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageLayouts))}
	for name, layout := range pageLayouts {
		tmpl, err := template.New(name).ParseFS(templateFS,
			"templates/"+layout+".html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		p.byName[name] = tmpl
	}
	return p, nil
}

// render executes a page into a buffer first so a template error becomes a
// clean 500 rather than half a page
func (p *pages) render(w http.ResponseWriter, status int, name string, data *pageData) {
	tmpl, ok := p.byName[name]
	if !ok {
		httputil.WriteInternalError(w, fmt.Errorf("unknown page %s", name))
		return
	}
	data.AppName = AppName
	data.Footer = FooterText

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, pageLayouts[name], data); err != nil {
		httputil.WriteInternalError(w, fmt.Errorf("failed to execute template: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// staticHandler serves /static/ straight from the embedded tree, whose
// root already holds the static directory
func staticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}
