package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/evmotion/dealer-portal/internal/backend"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/view"
)

// Page renders dashboard screens inside the shared shell.
type Page struct {
	templates *view.Engine
	csrf      *session.CSRFManager
	logger    *slog.Logger
}

// NewPage constructs a Page.
func NewPage(logger *slog.Logger, templates *view.Engine, csrf *session.CSRFManager) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{templates: templates, csrf: csrf, logger: logger}
}

// Logger exposes the page logger to handlers.
func (p *Page) Logger() *slog.Logger {
	return p.logger
}

// Data assembles the shell data of the current request: account, menu,
// CSRF token and the pending flash message.
func (p *Page) Data(r *http.Request, title string, data any) view.TemplateData {
	st := session.FromContext(r.Context())
	csrfToken, _ := p.csrf.EnsureToken(st)
	td := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       st.PopFlash(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if id, ok := st.Current(); ok {
		td.Account = id
		td.Menu = rbac.Menu(id.Role, r.URL.Path)
	}
	return td
}

// Render writes template name with status.
func (p *Page) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	if err := p.templates.RenderStatus(w, status, name, p.Data(r, title, data)); err != nil {
		p.logger.Error("render template", slog.Any("error", err), slog.String("template", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Redirect queues a flash message and sends the browser to location.
func (p *Page) Redirect(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if st := session.FromContext(r.Context()); st != nil && message != "" {
		st.AddFlash(kind, message)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// Unauthorized ends the session when the backend rejected its token and
// sends the browser to the login page. It reports whether err was handled.
func (p *Page) Unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	st := session.FromContext(r.Context())
	st.Logout()
	p.logger.Info("backend rejected session token", slog.String("path", r.URL.Path))
	http.Redirect(w, r, rbac.LoginURL(returnPath(r)), http.StatusSeeOther)
	return true
}

// LoadError turns a failed list load into the message shown above the table.
func LoadError(err error, endpoint, fallback string) string {
	if errors.Is(err, backend.ErrUnexpectedShape) {
		return fmt.Sprintf("Unexpected response from %s (expected an array)", endpoint)
	}
	return backend.Message(err, fallback)
}

// returnPath picks where login should forward to. Form posts return to the
// page that submitted them.
func returnPath(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RequestURI()
	}
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == r.Host) {
		return ref.RequestURI()
	}
	return rbac.DashboardPrefix
}
