package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

// Handler serves the admin user management pages.
type Handler struct {
	logger    *slog.Logger
	resource  *upstream.Resource[AdminUser]
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, resource *upstream.Resource[AdminUser], templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, resource: resource, templates: templates, csrf: csrf, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.form)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.editForm)
	r.Post("/{id}/edit", h.update)
	r.Post("/{id}/delete", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	page, err := h.resource.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users/list.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{
		"Users":      page.Items,
		"Filters":    filters,
		"Total":      page.Total,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, page.Total),
	}, http.StatusOK)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/users/form.html", map[string]any{
		"Errors": map[string]string{},
		"User":   nil,
	}, http.StatusOK)
}

type userForm struct {
	Name     string `validate:"required,min=2,max=120"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"max=20"`
	Role     string `validate:"required,oneof=owner manager support"`
	Password string `validate:"omitempty,min=8"`
}

type userInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
	Password string `json:"password,omitempty"`
}

func (h *Handler) parseUserForm(r *http.Request, requirePassword bool) (userInput, map[string]string) {
	form := userForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
		Role:     r.PostFormValue("role"),
		Password: r.PostFormValue("password"),
	}
	errs := map[string]string{}
	if requirePassword && form.Password == "" {
		errs["password"] = "Password is required"
	}
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Name":
					errs["name"] = "Name must be between 2 and 120 characters"
				case "Email":
					errs["email"] = "A valid email address is required"
				case "Phone":
					errs["phone"] = "Phone number is too long"
				case "Role":
					errs["role"] = "Choose a role"
				case "Password":
					errs["password"] = "Password must be at least 8 characters"
				}
			}
		}
	}
	if len(errs) > 0 {
		return userInput{}, errs
	}
	return userInput{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    form.Phone,
		Role:     form.Role,
		Active:   r.PostFormValue("active") == "1",
		Password: form.Password,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := h.parseUserForm(r, true)
	if errs != nil {
		h.render(w, r, "pages/users/form.html", map[string]any{"Errors": errs, "User": nil}, http.StatusBadRequest)
		return
	}
	if _, err := h.resource.Create(r.Context(), input); err != nil {
		h.logger.Error("create user failed", slog.Any("error", err))
		h.render(w, r, "pages/users/form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"User":   nil,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "User created successfully")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.resource.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get user failed", slog.Any("error", err), slog.String("id", id))
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/users/form.html", map[string]any{
		"Errors": map[string]string{},
		"User":   user,
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := h.parseUserForm(r, false)
	if errs != nil {
		h.render(w, r, "pages/users/form.html", map[string]any{
			"Errors": errs,
			"User":   AdminUser{ID: id},
		}, http.StatusBadRequest)
		return
	}
	if _, err := h.resource.Update(r.Context(), id, input); err != nil {
		h.logger.Error("update user failed", slog.Any("error", err), slog.String("id", id))
		h.render(w, r, "pages/users/form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"User":   AdminUser{ID: id, Name: input.Name, Email: input.Email, Phone: input.Phone, Role: input.Role, Active: input.Active},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "User updated successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// An admin cannot remove their own account while signed in with it.
	if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.User() == id {
		h.redirectWithFlash(w, r, "/users", "error", "You cannot delete the account you are signed in with")
		return
	}

	if err := h.resource.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete user failed", slog.Any("error", err), slog.String("id", id))
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "User deleted successfully")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	var adminName string
	if sess != nil {
		flash = sess.PopFlash()
		adminName = sess.Get(shared.AdminNameKey)
	}
	viewData := view.TemplateData{
		Title:       "Users",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		AdminName:   adminName,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
