// Package web holds the embedded HTML templates and static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/session"
)

//go:embed templates static
var assets embed.FS

const (
	layoutFile = "templates/layout.html"
	pagesDir   = "templates/pages"
)

// Base is the data every page shares with the layout.
type Base struct {
	Title     string
	ActiveNav string
	Username  string
	Flash     *session.Flash
	CSRFToken string
}

// Renderer executes a page inside the layout. Pages are named by their
// path under templates/pages without the extension, e.g. "opd/index".
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

// NewRenderer parses every page together with the layout.
func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	names, err := doublestar.Glob(assets, pagesDir+"/**/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(names)), logger: logger}
	for _, name := range names {
		t, err := template.New("layout").Funcs(funcs).ParseFS(assets, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, pagesDir+"/"), path.Ext(name))
		r.pages[key] = t
	}
	return r, nil
}

// Render writes the page with the given status. The page is rendered to a
// buffer first so a template error still yields a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.pages[name]
	if !ok {
		r.logger.Error("unknown template", zap.String("template", name))
		http.Error(w, "Terjadi kesalahan server.", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("render template failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "Terjadi kesalahan server.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Static serves the embedded assets under static/.
func Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

var funcs = template.FuncMap{
	"date":     domain.FormatDate,
	"datePtr":  domain.FormatDatePtr,
	"dateLong": domain.FormatDateLong,
	"dateTime": func(t time.Time) string { return t.Local().Format("02/01/2006 15:04") },
	"fileURL":  files.URL,
	"size":     humanSize,
	"add":      func(a, b int) int { return a + b },
	"join":     strings.Join,
	"hasID": func(ids []int64, id int64) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	},
	"isID": func(p *int64, id int64) bool { return p != nil && *p == id },
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"staffTypes": func() []domain.StaffReportType { return domain.StaffReportTypes },
	"issueKinds": func() []domain.IssueKind { return domain.ValidIssueKinds },
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
