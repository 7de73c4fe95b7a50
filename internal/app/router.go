package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/evmotion/dealer-portal/internal/auth"
	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/observability"
	"github.com/evmotion/dealer-portal/internal/platform/httpx"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/web"
)

// legacyAccountsPath is the old account management URL still linked from
// bookmarks.
const legacyAccountsPath = "/manageAccount"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Page      *dashboard.Page
	Sessions  *session.Manager
	CSRF      *session.CSRFManager
	Auth      *auth.Handler
	Dashboard *dashboard.Handler
	Metrics   *observability.Metrics
	// Ready reports whether session storage is reachable. Nil means always
	// ready.
	Ready func(ctx context.Context) error
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.RequestID, chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Ready != nil {
			if err := params.Ready(r.Context()); err != nil {
				params.Logger.Warn("readiness check failed", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "session storage unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:   params.Logger,
			Config:   params.Config,
			Sessions: params.Sessions,
			CSRF:     params.CSRF,
			Metrics:  params.Metrics,
		}) {
			r.Use(mw)
		}

		r.Get(rbac.HomePath, func(w http.ResponseWriter, r *http.Request) {
			params.Page.Render(w, r, http.StatusOK, "pages/landing.html", "EVMotion", nil)
		})
		r.Get(legacyAccountsPath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, rbac.Href(rbac.CapAccounts), http.StatusSeeOther)
		})
		params.Auth.MountRoutes(r)
		r.Route(rbac.DashboardPrefix, params.Dashboard.MountRoutes)
	})

	return r
}

// staticCacheHandler lets browsers cache embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
