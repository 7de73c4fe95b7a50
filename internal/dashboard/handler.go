package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evmotion/dealer-portal/internal/rbac"
)

// Area is a dashboard screen mounted under its capability path.
type Area interface {
	Capability() rbac.Capability
	MountRoutes(r chi.Router)
}

// Handler mounts every dashboard area behind the navigation guard.
type Handler struct {
	guard rbac.Middleware
	areas []Area
}

// NewHandler constructs a Handler.
func NewHandler(guard rbac.Middleware, areas ...Area) *Handler {
	return &Handler{guard: guard, areas: areas}
}

// MountRoutes registers the dashboard routes on r, which is expected to be
// mounted at /dashboard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, rbac.Href(rbac.DefaultCapability), http.StatusSeeOther)
	})
	for _, area := range h.areas {
		area := area
		r.Route("/"+string(area.Capability()), func(sub chi.Router) {
			sub.Use(h.guard.Require(area.Capability()))
			area.MountRoutes(sub)
		})
	}
}
