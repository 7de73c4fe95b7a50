package contracts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evmotion/dealer-portal/internal/backend"
	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
	"github.com/evmotion/dealer-portal/internal/view"
)

// Handler serves the contract screens.
type Handler struct {
	service *Service
	page    *dashboard.Page
	logger  *slog.Logger
}

func NewHandler(service *Service, page *dashboard.Page) *Handler {
	return &Handler{service: service, page: page, logger: page.Logger()}
}

func (h *Handler) Capability() rbac.Capability {
	return rbac.CapContracts
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.form)
	r.Post("/new", h.create)
}

type listPageData struct {
	Contracts []Contract
	Statuses  []string
	Filter    Filter
	Pager     view.Pager
	LoadError string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{Query: q.Get("q"), PaymentStatus: q.Get("paymentStatus")}
	page, _ := strconv.Atoi(q.Get("page"))

	data := listPageData{Filter: filter}
	listing, err := h.service.List(r.Context(), filter)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("list contracts failed", slog.Any("error", err))
		data.LoadError = dashboard.LoadError(err, "/sale-contracts", "Failed to load contract data.")
	}
	data.Statuses = listing.Statuses
	var p shared.Pagination
	data.Contracts, p = shared.Paginate(listing.Contracts, page, shared.DefaultPerPage)
	data.Pager = view.NewPager(p, r.URL)

	h.page.Render(w, r, http.StatusOK, "pages/contracts.html", "Manage Contract", data)
}

type formPageData struct {
	Form      Form
	Customers []Customer
	Statuses  []string
	Errors    map[string]string
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	role, _ := st.Role()
	if !rbac.CanPerform(role, rbac.ActionCreateContract) {
		h.page.Redirect(w, r, rbac.Href(rbac.CapContracts), session.FlashWarning, "Your role cannot create contracts.")
		return
	}
	customers, err := h.customers(r)
	if h.page.Unauthorized(w, r, err) {
		return
	}
	account, _ := st.Current()
	form := h.service.Draft(customers, r.URL.Query().Get("customer"), account)
	h.renderForm(w, r, http.StatusOK, formPageData{Form: form, Customers: customers})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	role, _ := session.FromContext(r.Context()).Role()
	form := formFromRequest(r)

	payload, err := h.service.Create(r.Context(), role, form)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		if errors.Is(err, ErrCreateForbidden) {
			h.page.Redirect(w, r, rbac.Href(rbac.CapContracts), session.FlashWarning, "Your role cannot create contracts.")
			return
		}
		h.logger.Error("create contract failed", slog.Any("error", err))
		customers, cerr := h.customers(r)
		if h.page.Unauthorized(w, r, cerr) {
			return
		}
		h.renderForm(w, r, http.StatusBadRequest, formPageData{
			Form:      form,
			Customers: customers,
			Errors:    shared.FormErrors(err, backend.Message(err, "Failed to create contract")),
		})
		return
	}
	h.logger.Info("contract created", slog.String("vehicle", payload.VehicleID), slog.String("status", payload.PaymentStatus))
	h.page.Redirect(w, r, rbac.Href(rbac.CapContracts), session.FlashSuccess, "Contract created")
}

// customers loads the picker entries. Only an unauthorized error is
// returned; any other failure leaves the picker empty.
func (h *Handler) customers(r *http.Request) ([]Customer, error) {
	customers, err := h.service.Customers(r.Context())
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, err
		}
		h.logger.Warn("load contract customers failed", slog.Any("error", err))
		return nil, nil
	}
	return customers, nil
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, data formPageData) {
	data.Statuses = PaymentStatuses
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	h.page.Render(w, r, status, "pages/contract_form.html", "Create Contract", data)
}

func formFromRequest(r *http.Request) Form {
	return Form{
		Customer:        r.PostFormValue("customer"),
		CustomerName:    r.PostFormValue("customerName"),
		CustomerPhone:   r.PostFormValue("customerPhone"),
		CustomerEmail:   r.PostFormValue("customerEmail"),
		VehicleID:       r.PostFormValue("vehicleId"),
		ContractDate:    r.PostFormValue("contractDate"),
		PromotionAmount: r.PostFormValue("promotionAmount"),
		TotalAmount:     r.PostFormValue("totalAmount"),
		DealerID:        r.PostFormValue("dealerId"),
		PaymentMethodID: r.PostFormValue("paymentMethodId"),
		PaymentStatus:   r.PostFormValue("paymentStatus"),
	}
}
