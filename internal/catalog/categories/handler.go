package categories

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

// Handler serves the category pages over the generic remote resource.
type Handler struct {
	logger    *slog.Logger
	resource  *upstream.Resource[Category]
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, resource *upstream.Resource[Category], templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, resource: resource, templates: templates, csrf: csrf}
}

// MountRoutes registers category routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/delete", h.Delete)
}

// List renders the category table, or the empty-state row with a link to
// create the first category when the backend returns none.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	page, err := h.resource.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list categories failed", slog.Any("error", err))
		h.render(w, r, "pages/categories/list.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	data := map[string]any{
		"Categories": page.Items,
		"Filters":    filters,
		"Total":      page.Total,
	}
	if page.Total > 0 {
		data["Pagination"] = shared.NewPagination(filters.Page, filters.Limit, page.Total)
	}
	h.render(w, r, "pages/categories/list.html", data, http.StatusOK)
}

// Form renders the create form.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/categories/form.html", map[string]any{
		"Errors":   map[string]string{},
		"Category": nil,
	}, http.StatusOK)
}

type categoryInput struct {
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Create submits a new category.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := categoryInput{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Slug:     strings.TrimSpace(r.PostFormValue("slug")),
		ImageURL: strings.TrimSpace(r.PostFormValue("image_url")),
	}
	if input.Name == "" {
		h.render(w, r, "pages/categories/form.html", map[string]any{
			"Errors":   map[string]string{"name": "Category name is required"},
			"Category": nil,
		}, http.StatusBadRequest)
		return
	}

	if _, err := h.resource.Create(r.Context(), input); err != nil {
		h.logger.Error("create category failed", slog.Any("error", err))
		h.render(w, r, "pages/categories/form.html", map[string]any{
			"Errors":   map[string]string{"general": shared.UserSafeMessage(err)},
			"Category": nil,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/catalog/categories", "success", "Category created successfully")
}

// EditForm renders the edit form with the current values.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category, err := h.resource.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get category failed", slog.Any("error", err), slog.String("id", id))
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/categories/form.html", map[string]any{
		"Errors":   map[string]string{},
		"Category": category,
	}, http.StatusOK)
}

// Update submits changed fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := categoryInput{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Slug:     strings.TrimSpace(r.PostFormValue("slug")),
		ImageURL: strings.TrimSpace(r.PostFormValue("image_url")),
	}
	if input.Name == "" {
		h.render(w, r, "pages/categories/form.html", map[string]any{
			"Errors":   map[string]string{"name": "Category name is required"},
			"Category": Category{ID: id, Slug: input.Slug, ImageURL: input.ImageURL},
		}, http.StatusBadRequest)
		return
	}

	if _, err := h.resource.Update(r.Context(), id, input); err != nil {
		h.logger.Error("update category failed", slog.Any("error", err), slog.String("id", id))
		h.render(w, r, "pages/categories/form.html", map[string]any{
			"Errors":   map[string]string{"general": shared.UserSafeMessage(err)},
			"Category": Category{ID: id, Name: input.Name, Slug: input.Slug, ImageURL: input.ImageURL},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/catalog/categories", "success", "Category updated successfully")
}

// Delete removes a category.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.resource.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete category failed", slog.Any("error", err), slog.String("id", id))
		h.redirectWithFlash(w, r, "/catalog/categories", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/catalog/categories", "success", "Category deleted successfully")
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
		Title:       "Categories",
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
