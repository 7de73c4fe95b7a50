package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
	"github.com/evmotion/dealer-portal/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *session.Flash
	CurrentPath string
	Account     *session.Identity
	Menu        []rbac.MenuEntry
	Data        any
}

// Can reports whether the signed-in role may perform action.
func (d TemplateData) Can(action string) bool {
	if d.Account == nil {
		return false
	}
	return rbac.CanPerform(d.Account.Role, rbac.Action(action))
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate":     FormatDate,
		"formatDateTime": FormatDateTime,
		"money":          FormatMoney,
		"roles":          joinRoles,
		"tone":           statusTone,
		"orDash":         orDash,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes a named template and writes it with status. Nothing
// is written when execution fails.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Pager links the pages of a table.
type Pager struct {
	shared.Pagination
	PrevURL string
	NextURL string
}

// NewPager builds page links that keep the other query parameters of u.
func NewPager(p shared.Pagination, u *url.URL) Pager {
	pager := Pager{Pagination: p}
	link := func(page int) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		return u.Path + "?" + q.Encode()
	}
	if p.HasPrev() {
		pager.PrevURL = link(p.PrevPage())
	}
	if p.HasNext() {
		pager.NextURL = link(p.NextPage())
	}
	return pager
}
