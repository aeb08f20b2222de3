package web

import (
	"bytes"
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/format"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/view"
	webembed "github.com/erazemk/resaledesk/web"
)

// Templates holds one template set per page, each a clone of the layout.
type Templates struct {
	pages map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"euro": format.Amount,
		"date": format.Date,
		"tone": model.StatusTone,
		"path": func(v any) string { return url.PathEscape(fmt.Sprint(v)) },
	}
}

// pages lists the page templates rendered inside the layout.
var pages = []string{
	"login.html",
	"dashboard.html",
	"inventory.html",
	"orders.html",
	"financial.html",
	"deleted_orders.html",
	"photos.html",
}

// LoadTemplates parses the layout once and each page on top of a copy of it.
func LoadTemplates(tfs fs.FS) (*Templates, error) {
	layout, err := template.New("layout.html").Funcs(FuncMap()).ParseFS(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	ts := &Templates{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", page, err)
		}
		if ts.pages[page], err = clone.ParseFS(tfs, page); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", page, err)
		}
	}
	return ts, nil
}

// Render writes the page with status 200.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes the page into a buffer first, so a template error
// becomes a 500 instead of a truncated page.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.pages[name]
	if !ok {
		slog.Error("unknown page template", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("rendering page failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title    string
	Active   string
	Username string
	Notice   *view.Notice
}

// Server holds all dependencies for page handlers.
type Server struct {
	Client    *client.Client
	Journal   *sql.DB
	Secret    string
	Templates *Templates

	// LowStock is the dashboard's low-stock threshold.
	LowStock int
	// PageSize is the financial table's initial rows per page.
	PageSize int

	Now func() time.Time
}

// NewServer creates a server that talks to the backend through c and keeps
// sale attempts and revoked sessions in journalDB.
func NewServer(c *client.Client, journalDB *sql.DB, secret string) (*Server, error) {
	templates, err := LoadTemplates(webembed.TemplatesFS())
	if err != nil {
		return nil, err
	}
	return &Server{
		Client:    c,
		Journal:   journalDB,
		Secret:    secret,
		Templates: templates,
		LowStock:  aggregate.DefaultLowStockThreshold,
		PageSize:  view.DefaultPageSize,
		Now:       time.Now,
	}, nil
}

// page builds the base page data, taking the pending notice from the flash
// cookie unless the view produced a fresher one.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title, active string, notice *view.Notice) PageData {
	flash := readFlash(w, r)
	if notice == nil {
		notice = flash
	}
	pd := PageData{Title: title, Active: active, Notice: notice}
	if sess := SessionFrom(r.Context()); sess != nil {
		pd.Username = sess.Username
	}
	return pd
}
