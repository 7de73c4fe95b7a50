package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evmotion/dealer-portal/internal/backend"
	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
	"github.com/evmotion/dealer-portal/internal/view"
)

type Handler struct {
	service *Service
	page    *dashboard.Page
	logger  *slog.Logger
}

func NewHandler(service *Service, page *dashboard.Page) *Handler {
	return &Handler{service: service, page: page, logger: page.Logger()}
}

func (h *Handler) Capability() rbac.Capability {
	return rbac.CapCustomers
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.newForm)
	r.Post("/new", h.create)
	r.Get("/{phone}/edit", h.editForm)
	r.Post("/{phone}/edit", h.update)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	data := map[string]any{"Query": query}
	customers, err := h.service.List(r.Context(), query)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("list customers failed", slog.Any("error", err))
		data["LoadError"] = dashboard.LoadError(err, "/customers", "Failed to load customers.")
	}
	items, p := shared.Paginate(customers, page, shared.DefaultPerPage)
	data["Customers"] = items
	data["Pager"] = view.NewPager(p, r.URL)

	h.page.Render(w, r, http.StatusOK, "pages/customers.html", "Manage Customers", data)
}

type formData struct {
	Form    Form
	Action  string
	Editing bool
	Errors  map[string]string
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formData{Action: rbac.Href(rbac.CapCustomers) + "/new"})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)
	if err := h.service.Create(r.Context(), form); err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("create customer failed", slog.Any("error", err))
		h.renderForm(w, r, http.StatusBadRequest, formData{
			Form:   normalize(form),
			Action: rbac.Href(rbac.CapCustomers) + "/new",
			Errors: shared.FormErrors(err, backend.Message(err, "Create failed")),
		})
		return
	}
	h.page.Redirect(w, r, rbac.Href(rbac.CapCustomers), session.FlashSuccess, "Customer created")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	customer, err := h.service.Find(r.Context(), phone)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		if !errors.Is(err, ErrCustomerNotFound) {
			h.logger.Error("load customer failed", slog.Any("error", err), slog.String("phone", phone))
		}
		h.page.Redirect(w, r, rbac.Href(rbac.CapCustomers), session.FlashDanger, "Customer not found")
		return
	}
	h.renderForm(w, r, http.StatusOK, formData{Form: FormFor(customer), Action: editPath(phone), Editing: true})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)
	if err := h.service.Update(r.Context(), phone, form); err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("update customer failed", slog.Any("error", err), slog.String("phone", phone))
		h.renderForm(w, r, http.StatusBadRequest, formData{
			Form:    normalize(form),
			Action:  editPath(phone),
			Editing: true,
			Errors:  shared.FormErrors(err, backend.Message(err, "Update failed")),
		})
		return
	}
	h.page.Redirect(w, r, rbac.Href(rbac.CapCustomers), session.FlashSuccess, "Customer updated")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, data formData) {
	title := "Add Customer"
	if data.Editing {
		title = "Edit Customer"
	}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	h.page.Render(w, r, status, "pages/customer_form.html", title, data)
}

func formFromRequest(r *http.Request) Form {
	return Form{
		Phone:   r.PostFormValue("phone"),
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Address: r.PostFormValue("address"),
		Note:    r.PostFormValue("note"),
	}
}

func editPath(phone string) string {
	return rbac.Href(rbac.CapCustomers) + "/" + url.PathEscape(phone) + "/edit"
}
