package testdrives

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
	"github.com/evmotion/dealer-portal/internal/view"
)

const dealerMissingMessage = "Dealer ID not found. Provide ?dealerId= in URL or login as Dealer Staff."

type Handler struct {
	service *Service
	page    *dashboard.Page
	logger  *slog.Logger
}

func NewHandler(service *Service, page *dashboard.Page) *Handler {
	return &Handler{service: service, page: page, logger: page.Logger()}
}

func (h *Handler) Capability() rbac.Capability {
	return rbac.CapTestDrives
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

type listPageData struct {
	TestDrives []TestDrive
	DealerID   string
	Query      string
	Pager      view.Pager
	LoadError  string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st := session.FromContext(r.Context())
	account, _ := st.Current()
	page, _ := strconv.Atoi(q.Get("page"))

	data := listPageData{DealerID: DealerID(q.Get("dealerId"), account), Query: q.Get("q")}
	rows, err := h.service.List(r.Context(), data.DealerID, data.Query)
	switch {
	case errors.Is(err, ErrDealerMissing):
		st.AddFlash(session.FlashWarning, dealerMissingMessage)
	case err != nil:
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("list test drives failed", slog.Any("error", err), slog.String("dealer", data.DealerID))
		data.LoadError = dashboard.LoadError(err, "/test-drives", "Failed to load test drives.")
	}
	var p shared.Pagination
	data.TestDrives, p = shared.Paginate(rows, page, shared.DefaultPerPage)
	data.Pager = view.NewPager(p, r.URL)

	h.page.Render(w, r, http.StatusOK, "pages/testdrives.html", "Manage TestDrive", data)
}
