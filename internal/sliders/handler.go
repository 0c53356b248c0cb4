package sliders

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/weprixetechnologies/cly-admin/internal/platform/httpx"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/storage"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

// Handler serves the carousel management pages for both storefront surfaces.
type Handler struct {
	logger    *slog.Logger
	desktop   *upstream.Resource[Slider]
	mobile    *upstream.Resource[Slider]
	templates *view.Engine
	csrf      *shared.CSRFManager
	presigner *storage.Presigner
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, client *upstream.Client, templates *view.Engine, csrf *shared.CSRFManager, presigner *storage.Presigner) *Handler {
	return &Handler{
		logger:    logger,
		desktop:   upstream.NewResource[Slider](client, "/slider/admin/desktop"),
		mobile:    upstream.NewResource[Slider](client, "/slider/admin/mobile"),
		templates: templates,
		csrf:      csrf,
		presigner: presigner,
	}
}

// MountRoutes registers slider routes. The variant is part of the path so
// both surfaces share one set of handlers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/sliders/desktop", http.StatusSeeOther)
	})
	r.Post("/uploads", h.presignUpload)
	r.Route("/{variant}", func(r chi.Router) {
		r.Use(h.requireVariant)
		r.Get("/", h.list)
		r.Get("/new", h.form)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.editForm)
		r.Post("/{id}/edit", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

type uploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// presignUpload hands the banner picker a signed PUT URL so the image goes
// straight to the object store.
func (h *Handler) presignUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid upload request", httpx.ErrValidation))
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		httpx.RespondError(w, fmt.Errorf("%w: filename required", httpx.ErrValidation))
		return
	}
	upload, err := h.presigner.PresignPut("sliders", req.Filename, req.ContentType)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	httpx.JSON(w, http.StatusOK, upload)
}

func (h *Handler) requireVariant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Variant(chi.URLParam(r, "variant")).Valid() {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) resource(r *http.Request) (*upstream.Resource[Slider], Variant) {
	variant := Variant(chi.URLParam(r, "variant"))
	if variant == VariantMobile {
		return h.mobile, variant
	}
	return h.desktop, VariantDesktop
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	resource, variant := h.resource(r)
	filters := shared.ParseListFilters(r.URL.Query())
	page, err := resource.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list sliders failed", slog.Any("error", err), slog.String("variant", string(variant)))
		h.render(w, r, variant, "pages/sliders/list.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, variant, "pages/sliders/list.html", map[string]any{
		"Sliders": page.Items,
		"Total":   page.Total,
	}, http.StatusOK)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	_, variant := h.resource(r)
	h.render(w, r, variant, "pages/sliders/form.html", map[string]any{
		"Errors": map[string]string{},
		"Slider": nil,
	}, http.StatusOK)
}

type sliderInput struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url,omitempty"`
	Position int    `json:"position"`
	Active   bool   `json:"active"`
}

func parseSliderForm(r *http.Request) (sliderInput, map[string]string) {
	errs := map[string]string{}
	input := sliderInput{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		ImageURL: strings.TrimSpace(r.PostFormValue("image_url")),
		LinkURL:  strings.TrimSpace(r.PostFormValue("link_url")),
		Active:   r.PostFormValue("active") == "1",
	}
	if input.ImageURL == "" {
		errs["image_url"] = "Upload an image first"
	}
	if raw := r.PostFormValue("position"); raw != "" {
		position, err := strconv.Atoi(raw)
		if err != nil || position < 0 {
			errs["position"] = "Position must be a non-negative number"
		}
		input.Position = position
	}
	if len(errs) > 0 {
		return sliderInput{}, errs
	}
	return input, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	resource, variant := h.resource(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := parseSliderForm(r)
	if errs != nil {
		h.render(w, r, variant, "pages/sliders/form.html", map[string]any{"Errors": errs, "Slider": nil}, http.StatusBadRequest)
		return
	}
	if _, err := resource.Create(r.Context(), input); err != nil {
		h.logger.Error("create slider failed", slog.Any("error", err), slog.String("variant", string(variant)))
		h.render(w, r, variant, "pages/sliders/form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Slider": nil,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/sliders/"+string(variant), "success", "Slider created successfully")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	resource, variant := h.resource(r)
	id := chi.URLParam(r, "id")
	slider, err := resource.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get slider failed", slog.Any("error", err), slog.String("id", id))
		http.Error(w, "Slider not found", http.StatusNotFound)
		return
	}
	h.render(w, r, variant, "pages/sliders/form.html", map[string]any{
		"Errors": map[string]string{},
		"Slider": slider,
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	resource, variant := h.resource(r)
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := parseSliderForm(r)
	if errs != nil {
		h.render(w, r, variant, "pages/sliders/form.html", map[string]any{
			"Errors": errs,
			"Slider": Slider{ID: id},
		}, http.StatusBadRequest)
		return
	}
	if _, err := resource.Update(r.Context(), id, input); err != nil {
		h.logger.Error("update slider failed", slog.Any("error", err), slog.String("id", id))
		h.render(w, r, variant, "pages/sliders/form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Slider": Slider{ID: id, Title: input.Title, ImageURL: input.ImageURL, LinkURL: input.LinkURL, Position: input.Position, Active: input.Active},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/sliders/"+string(variant), "success", "Slider updated successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	resource, variant := h.resource(r)
	id := chi.URLParam(r, "id")
	if err := resource.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete slider failed", slog.Any("error", err), slog.String("id", id))
		h.redirectWithFlash(w, r, "/sliders/"+string(variant), "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/sliders/"+string(variant), "success", "Slider deleted successfully")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, variant Variant, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	var adminName string
	if sess != nil {
		flash = sess.PopFlash()
		adminName = sess.Get(shared.AdminNameKey)
	}
	data["Variant"] = string(variant)
	viewData := view.TemplateData{
		Title:       "Sliders",
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
