package categories

import (
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
	return rbac.CapCategories
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/new", h.Create)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/delete", h.Delete)
}

type formData struct {
	Category Category
	Action   string
	Editing  bool
	Errors   map[string]string
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	data := map[string]any{"Query": query}
	categories, err := h.service.List(r.Context(), query)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("list categories failed", slog.Any("error", err))
		data["LoadError"] = dashboard.LoadError(err, "/categories", "Failed to load categories.")
	}
	items, p := shared.Paginate(categories, page, shared.DefaultPerPage)
	data["Categories"] = items
	data["Pager"] = view.NewPager(p, r.URL)

	h.page.Render(w, r, http.StatusOK, "pages/categories.html", "Manage Category", data)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formData{Action: rbac.Href(rbac.CapCategories) + "/new"})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	category := categoryFromForm(r)

	if _, err := h.service.Create(r.Context(), category); err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("create category failed", slog.Any("error", err))
		h.renderForm(w, r, http.StatusBadRequest, formData{
			Category: category,
			Action:   rbac.Href(rbac.CapCategories) + "/new",
			Errors:   formErrors(err, "Create failed"),
		})
		return
	}

	h.page.Redirect(w, r, rbac.Href(rbac.CapCategories), session.FlashSuccess, "Category created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("get category failed", slog.Any("error", err), slog.String("id", id))
		h.page.Redirect(w, r, rbac.Href(rbac.CapCategories), session.FlashDanger, "Category not found")
		return
	}
	h.renderForm(w, r, http.StatusOK, formData{Category: category, Action: editPath(id), Editing: true})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	category := categoryFromForm(r)

	if err := h.service.Update(r.Context(), id, category); err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("update category failed", slog.Any("error", err), slog.String("id", id))
		category.ID = shared.FlexString(id)
		h.renderForm(w, r, http.StatusBadRequest, formData{
			Category: category,
			Action:   editPath(id),
			Editing:  true,
			Errors:   formErrors(err, "Update failed"),
		})
		return
	}

	h.page.Redirect(w, r, rbac.Href(rbac.CapCategories), session.FlashSuccess, "Category updated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("delete category failed", slog.Any("error", err), slog.String("id", id))
		h.page.Redirect(w, r, rbac.Href(rbac.CapCategories), session.FlashDanger, backend.Message(err, "Delete failed"))
		return
	}
	h.page.Redirect(w, r, rbac.Href(rbac.CapCategories), session.FlashSuccess, "Category deleted successfully")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, data formData) {
	title := "Add Category"
	if data.Editing {
		title = "Edit Category"
	}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	h.page.Render(w, r, status, "pages/category_form.html", title, data)
}

func categoryFromForm(r *http.Request) Category {
	return Category{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
}

func formErrors(err error, fallback string) map[string]string {
	return shared.FormErrors(err, backend.Message(err, fallback))
}

func editPath(id string) string {
	return rbac.Href(rbac.CapCategories) + "/" + url.PathEscape(id) + "/edit"
}
