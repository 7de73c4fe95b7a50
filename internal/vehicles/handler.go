package vehicles

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
	"github.com/evmotion/dealer-portal/internal/view"
)

const title = "Manage Car"

// Handler serves the vehicle catalog screens.
type Handler struct {
	service *Service
	page    *dashboard.Page
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, page *dashboard.Page) *Handler {
	return &Handler{service: service, page: page, logger: page.Logger()}
}

// Capability implements dashboard.Area.
func (h *Handler) Capability() rbac.Capability {
	return rbac.CapVehicles
}

// MountRoutes registers the catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/compare", h.compare)
	r.Get("/{id}", h.show)
	r.Get("/{id}/order", h.orderForm)
	r.Post("/{id}/order", h.placeOrder)
}

type listPageData struct {
	Vehicles      []Vehicle
	Manufacturers []string
	Filter        Filter
	Pager         view.Pager
	LoadError     string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{Query: q.Get("q"), Manufacturer: q.Get("manufacturer")}
	page, _ := strconv.Atoi(q.Get("page"))

	data := listPageData{Filter: filter}
	catalog, err := h.service.Catalog(r.Context(), filter)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("list vehicles failed", slog.Any("error", err))
		data.LoadError = dashboard.LoadError(err, "/vehicles", "Failed to load car data.")
	}
	data.Manufacturers = catalog.Manufacturers
	var p shared.Pagination
	data.Vehicles, p = shared.Paginate(catalog.Vehicles, page, shared.DefaultPerPage)
	data.Pager = view.NewPager(p, r.URL)

	h.page.Render(w, r, http.StatusOK, "pages/vehicles.html", title, data)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page.Render(w, r, http.StatusOK, "pages/vehicle_detail.html", "Vehicle Details: "+v.DisplayName(), map[string]any{
		"Vehicle": v,
		"Specs":   Specs(v),
	})
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["id"]
	cmp, err := h.service.Compare(r.Context(), ids)
	switch {
	case errors.Is(err, ErrTooManySelected):
		h.page.Redirect(w, r, rbac.Href(rbac.CapVehicles), session.FlashWarning, "You can compare up to 3 cars.")
		return
	case errors.Is(err, ErrTooFewSelected):
		h.page.Redirect(w, r, rbac.Href(rbac.CapVehicles), session.FlashWarning, "Select at least two cars to compare.")
		return
	case err != nil:
		h.fail(w, r, err)
		return
	}
	h.page.Render(w, r, http.StatusOK, "pages/vehicle_compare.html", "Compare Cars ("+strconv.Itoa(len(cmp.Vehicles))+" selected)", cmp)
}

type orderPageData struct {
	Vehicle Vehicle
	Order   OrderRequest
}

func (h *Handler) orderForm(w http.ResponseWriter, r *http.Request) {
	role, _ := session.FromContext(r.Context()).Role()
	quantity, _ := strconv.Atoi(r.URL.Query().Get("quantity"))
	v, order, err := h.service.QuoteOrder(r.Context(), role, chi.URLParam(r, "id"), quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page.Render(w, r, http.StatusOK, "pages/vehicle_order.html", "Confirm order request", orderPageData{Vehicle: v, Order: order})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	role, _ := session.FromContext(r.Context()).Role()
	quantity, _ := strconv.Atoi(r.PostFormValue("quantity"))
	id := chi.URLParam(r, "id")

	order, err := h.service.PlaceOrder(r.Context(), role, id, quantity)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		if errors.Is(err, ErrOrderForbidden) || errors.Is(err, ErrVehicleNotFound) {
			h.fail(w, r, err)
			return
		}
		h.logger.Error("order request failed", slog.Any("error", err), slog.String("vehicle", id))
		h.page.Redirect(w, r, rbac.Href(rbac.CapVehicles)+"/"+url.PathEscape(id), session.FlashDanger, "Order request could not be sent to EVM Staff.")
		return
	}
	h.logger.Info("order request sent", slog.String("vehicle", order.CarID.String()), slog.Int("quantity", order.Quantity))
	h.page.Redirect(w, r, rbac.Href(rbac.CapVehicles), session.FlashSuccess, "Order request sent to EVM Staff.")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if h.page.Unauthorized(w, r, err) {
		return
	}
	switch {
	case errors.Is(err, ErrVehicleNotFound):
		h.page.Redirect(w, r, rbac.Href(rbac.CapVehicles), session.FlashWarning, "Vehicle not found.")
	case errors.Is(err, ErrOrderForbidden):
		h.page.Redirect(w, r, rbac.Href(rbac.CapVehicles), session.FlashWarning, "Your role cannot place order requests.")
	default:
		h.logger.Error("vehicle request failed", slog.Any("error", err))
		h.page.Redirect(w, r, rbac.Href(rbac.CapVehicles), session.FlashDanger, dashboard.LoadError(err, "/vehicles", "Failed to load car data."))
	}
}
