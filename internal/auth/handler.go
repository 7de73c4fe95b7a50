package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
)

const (
	loginTitle       = "Login"
	loginFailed      = "login failed, please try again"
	loginSucceeded   = "Successfully log in"
	defaultLoginRate = 10
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	page      *dashboard.Page
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. loginRate caps login attempts per client
// IP per minute; zero selects the default.
func NewHandler(service *Service, page *dashboard.Page, loginRate int) *Handler {
	if loginRate <= 0 {
		loginRate = defaultLoginRate
	}
	limiter := httprate.Limit(loginRate, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	return &Handler{logger: page.Logger(), service: service, page: page, rateLimit: limiter}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(rbac.LoginPath, h.showLogin)
	r.With(h.rateLimit).Post(rbac.LoginPath, h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginPageData struct {
	Form   Credentials
	Errors map[string]string
	Next   string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	next := SafeNext(r.URL.Query().Get("next"))
	if _, ok := session.FromContext(r.Context()).Current(); ok {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.page.Render(w, r, http.StatusOK, "pages/login.html", loginTitle, loginPageData{
		Form:   Credentials{Remember: true},
		Errors: map[string]string{},
		Next:   next,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	creds := Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Remember: r.PostFormValue("remember") != "",
	}
	next := SafeNext(r.PostFormValue("next"))

	id, err := h.service.Authenticate(r.Context(), creds)
	if err == nil {
		err = session.FromContext(r.Context()).Login(id)
	}
	if err != nil {
		h.logger.Info("login rejected", slog.String("email", creds.Email), slog.Any("error", err))
		creds.Password = ""
		h.page.Render(w, r, http.StatusBadRequest, "pages/login.html", loginTitle, loginPageData{
			Form:   creds,
			Errors: shared.FormErrors(err, loginFailed),
			Next:   next,
		})
		return
	}

	h.logger.Info("login", slog.String("role", string(id.Role)), slog.String("user", id.UserID.String()), slog.Bool("remember", id.Remember))
	h.page.Redirect(w, r, next, session.FlashSuccess, loginSucceeded)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Logout()
	http.Redirect(w, r, rbac.HomePath, http.StatusSeeOther)
}

// SafeNext keeps post-login redirects on this site. Anything that is not a
// plain absolute path falls back to the dashboard.
func SafeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n") {
		return rbac.DashboardPrefix
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return rbac.DashboardPrefix
	}
	if u.Path == rbac.LoginPath {
		return rbac.DashboardPrefix
	}
	return u.RequestURI()
}
