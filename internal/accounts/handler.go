package accounts

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

// intentGenerate is the value of the form's generate button.
const intentGenerate = "generate"

type Handler struct {
	service *Service
	page    *dashboard.Page
	logger  *slog.Logger
}

func NewHandler(service *Service, page *dashboard.Page) *Handler {
	return &Handler{service: service, page: page, logger: page.Logger()}
}

func (h *Handler) Capability() rbac.Capability {
	return rbac.CapAccounts
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.newForm)
	r.Post("/new", h.create)
	r.Get("/{msnv}/edit", h.editForm)
	r.Post("/{msnv}/edit", h.update)
	r.Post("/{msnv}/delete", h.delete)
}

type listPageData struct {
	Accounts  []Account
	Areas     []rbac.Area
	Query     string
	Pager     view.Pager
	LoadError string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	data := listPageData{Query: query, Areas: rbac.Areas()}
	accounts, err := h.service.List(r.Context(), query)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("list accounts failed", slog.Any("error", err))
		data.LoadError = dashboard.LoadError(err, "/accounts", "Failed to load accounts.")
	}
	var p shared.Pagination
	data.Accounts, p = shared.Paginate(accounts, page, shared.DefaultPerPage)
	data.Pager = view.NewPager(p, r.URL)

	h.page.Render(w, r, http.StatusOK, "pages/accounts.html", "Manage Accounts", data)
}

type formData struct {
	Form    Form
	Roles   []rbac.Role
	Action  string
	Editing bool
	Errors  map[string]string
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formData{Action: newPath()})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)

	if r.PostFormValue("intent") == intentGenerate {
		password, err := GeneratePassword()
		if err != nil {
			h.logger.Error("generate password failed", slog.Any("error", err))
			h.renderForm(w, r, http.StatusInternalServerError, formData{Form: form, Action: newPath(), Errors: map[string]string{"general": "Could not generate a password"}})
			return
		}
		form.Password = password
		session.FromContext(r.Context()).AddFlash(session.FlashSuccess, "New password generated!")
		h.renderForm(w, r, http.StatusOK, formData{Form: form, Action: newPath()})
		return
	}

	if err := h.service.Create(r.Context(), form); err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("create account failed", slog.Any("error", err))
		h.renderForm(w, r, http.StatusBadRequest, formData{
			Form:   form,
			Action: newPath(),
			Errors: shared.FormErrors(err, backend.Message(err, "Create failed")),
		})
		return
	}
	h.logger.Info("account created", slog.String("msnv", form.MSNV), slog.String("role", form.Role))
	h.page.Redirect(w, r, rbac.Href(rbac.CapAccounts), session.FlashSuccess, "Account created successfully!")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	msnv := chi.URLParam(r, "msnv")
	account, err := h.service.Find(r.Context(), msnv)
	if err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		if !errors.Is(err, ErrAccountNotFound) {
			h.logger.Error("load account failed", slog.Any("error", err), slog.String("msnv", msnv))
		}
		h.page.Redirect(w, r, rbac.Href(rbac.CapAccounts), session.FlashDanger, "Account not found")
		return
	}
	h.renderForm(w, r, http.StatusOK, formData{Form: FormFor(account), Action: editPath(msnv), Editing: true})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	msnv := chi.URLParam(r, "msnv")
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)
	if err := h.service.Update(r.Context(), msnv, form); err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("update account failed", slog.Any("error", err), slog.String("msnv", msnv))
		form.MSNV = msnv
		h.renderForm(w, r, http.StatusBadRequest, formData{
			Form:    form,
			Action:  editPath(msnv),
			Editing: true,
			Errors:  shared.FormErrors(err, backend.Message(err, "Update failed")),
		})
		return
	}
	h.page.Redirect(w, r, rbac.Href(rbac.CapAccounts), session.FlashSuccess, "Account updated successfully!")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	msnv := chi.URLParam(r, "msnv")
	if err := h.service.Delete(r.Context(), msnv); err != nil {
		if h.page.Unauthorized(w, r, err) {
			return
		}
		h.logger.Error("delete account failed", slog.Any("error", err), slog.String("msnv", msnv))
		h.page.Redirect(w, r, rbac.Href(rbac.CapAccounts), session.FlashDanger, backend.Message(err, "Delete failed"))
		return
	}
	h.page.Redirect(w, r, rbac.Href(rbac.CapAccounts), session.FlashSuccess, "Account deleted successfully!")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, data formData) {
	title := "Provision New Account"
	if data.Editing {
		title = "Edit Account"
	}
	data.Roles = rbac.Roles()
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	h.page.Render(w, r, status, "pages/account_form.html", title, data)
}

func formFromRequest(r *http.Request) Form {
	return Form{
		MSNV:     r.PostFormValue("msnv"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("phone"),
		Role:     r.PostFormValue("role"),
		Password: r.PostFormValue("password"),
	}
}

func newPath() string {
	return rbac.Href(rbac.CapAccounts) + "/new"
}

func editPath(msnv string) string {
	return rbac.Href(rbac.CapAccounts) + "/" + url.PathEscape(msnv) + "/edit"
}
