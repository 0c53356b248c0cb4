package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/weprixetechnologies/cly-admin/internal/platform/httpx"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/storage"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

// ExportEnqueuer schedules a catalog export on the background queue.
type ExportEnqueuer interface {
	EnqueueProductExport(ctx context.Context, exportID string) error
}

// Handler serves product pages, upload presigning and the bulk export flow.
type Handler struct {
	logger    *slog.Logger
	resource  *upstream.Resource[Product]
	templates *view.Engine
	csrf      *shared.CSRFManager
	presigner *storage.Presigner
	tracker   *ExportTracker
	enqueuer  ExportEnqueuer
	exportDir string
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, resource *upstream.Resource[Product], templates *view.Engine, csrf *shared.CSRFManager, presigner *storage.Presigner, tracker *ExportTracker, enqueuer ExportEnqueuer, exportDir string) *Handler {
	return &Handler{
		logger:    logger,
		resource:  resource,
		templates: templates,
		csrf:      csrf,
		presigner: presigner,
		tracker:   tracker,
		enqueuer:  enqueuer,
		exportDir: exportDir,
		validator: validator.New(),
	}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.form)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.editForm)
	r.Post("/{id}/edit", h.update)
	r.Post("/{id}/delete", h.delete)
	r.Post("/uploads", h.presignUpload)
	r.Post("/export", h.startExport)
	r.Get("/export/{exportID}", h.exportStatus)
	r.Get("/export/{exportID}/download", h.exportDownload)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	page, err := h.resource.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		h.render(w, r, "pages/products/list.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/products/list.html", map[string]any{
		"Products":   page.Items,
		"Filters":    filters,
		"Total":      page.Total,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, page.Total),
	}, http.StatusOK)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/products/form.html", map[string]any{
		"Errors":  map[string]string{},
		"Product": nil,
	}, http.StatusOK)
}

type productForm struct {
	Name        string  `validate:"required,min=2,max=200"`
	SKU         string  `validate:"required,max=64"`
	Price       float64 `validate:"gte=0"`
	Stock       int     `validate:"gte=0"`
	CategoryID  string  `validate:"required"`
	Description string  `validate:"max=5000"`
}

type productInput struct {
	Name        string   `json:"name"`
	SKU         string   `json:"sku"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	CategoryID  string   `json:"category_id"`
	Description string   `json:"description,omitempty"`
	Active      bool     `json:"active"`
	Images      []string `json:"images,omitempty"`
}

func (h *Handler) parseProductForm(r *http.Request) (productInput, map[string]string) {
	errs := map[string]string{}
	price, perr := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("price")), 64)
	if perr != nil {
		errs["price"] = "Price must be a number"
	}
	stock, serr := strconv.Atoi(strings.TrimSpace(r.PostFormValue("stock")))
	if serr != nil {
		errs["stock"] = "Stock must be a whole number"
	}

	form := productForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		SKU:         strings.TrimSpace(r.PostFormValue("sku")),
		Price:       price,
		Stock:       stock,
		CategoryID:  strings.TrimSpace(r.PostFormValue("category_id")),
		Description: r.PostFormValue("description"),
	}
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Name":
					errs["name"] = "Product name must be between 2 and 200 characters"
				case "SKU":
					errs["sku"] = "SKU is required"
				case "Price":
					errs["price"] = "Price must not be negative"
				case "Stock":
					errs["stock"] = "Stock must not be negative"
				case "CategoryID":
					errs["category_id"] = "Select a category"
				case "Description":
					errs["description"] = "Description is too long"
				}
			}
		}
	}
	if len(errs) > 0 {
		return productInput{}, errs
	}

	var images []string
	for _, raw := range r.PostForm["images"] {
		if img := strings.TrimSpace(raw); img != "" {
			images = append(images, img)
		}
	}
	return productInput{
		Name:        form.Name,
		SKU:         form.SKU,
		Price:       form.Price,
		Stock:       form.Stock,
		CategoryID:  form.CategoryID,
		Description: form.Description,
		Active:      r.PostFormValue("active") == "1",
		Images:      images,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := h.parseProductForm(r)
	if errs != nil {
		h.render(w, r, "pages/products/form.html", map[string]any{"Errors": errs, "Product": nil}, http.StatusBadRequest)
		return
	}
	if _, err := h.resource.Create(r.Context(), input); err != nil {
		h.logger.Error("create product failed", slog.Any("error", err))
		h.render(w, r, "pages/products/form.html", map[string]any{
			"Errors":  map[string]string{"general": shared.UserSafeMessage(err)},
			"Product": nil,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/catalog/products", "success", "Product created successfully")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, err := h.resource.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get product failed", slog.Any("error", err), slog.String("id", id))
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/products/form.html", map[string]any{
		"Errors":  map[string]string{},
		"Product": product,
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := h.parseProductForm(r)
	if errs != nil {
		h.render(w, r, "pages/products/form.html", map[string]any{
			"Errors":  errs,
			"Product": Product{ID: id},
		}, http.StatusBadRequest)
		return
	}
	if _, err := h.resource.Update(r.Context(), id, input); err != nil {
		h.logger.Error("update product failed", slog.Any("error", err), slog.String("id", id))
		h.render(w, r, "pages/products/form.html", map[string]any{
			"Errors":  map[string]string{"general": shared.UserSafeMessage(err)},
			"Product": Product{ID: id, Name: input.Name, SKU: input.SKU, Price: input.Price, Stock: input.Stock, CategoryID: input.CategoryID, Description: input.Description, Images: input.Images},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/catalog/products", "success", "Product updated successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.resource.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete product failed", slog.Any("error", err), slog.String("id", id))
		h.redirectWithFlash(w, r, "/catalog/products", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/catalog/products", "success", "Product deleted successfully")
}

type uploadRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"max=100"`
}

// presignUpload answers the image picker with a signed PUT URL. The browser
// uploads directly to the object store; the form only submits the resulting
// public URL.
func (h *Handler) presignUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid upload request", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: filename required", httpx.ErrValidation))
		return
	}
	upload, err := h.presigner.PresignPut("products", req.Filename, req.ContentType)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	httpx.JSON(w, http.StatusOK, upload)
}

// startExport enqueues a full catalog export and redirects to its status
// page. The worker pages through the catalog and writes the workbook.
func (h *Handler) startExport(w http.ResponseWriter, r *http.Request) {
	exportID := uuid.NewString()
	if err := h.tracker.Begin(r.Context(), exportID); err != nil {
		h.logger.Error("begin export tracking failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/catalog/products", "error", "Could not start the export, please try again")
		return
	}
	if err := h.enqueuer.EnqueueProductExport(r.Context(), exportID); err != nil {
		h.logger.Error("enqueue product export failed", slog.Any("error", err))
		_ = h.tracker.Fail(r.Context(), exportID, "enqueue failed")
		h.redirectWithFlash(w, r, "/catalog/products", "error", "Could not start the export, please try again")
		return
	}
	http.Redirect(w, r, "/catalog/products/export/"+exportID, http.StatusSeeOther)
}

func (h *Handler) exportStatus(w http.ResponseWriter, r *http.Request) {
	exportID := chi.URLParam(r, "exportID")
	status, err := h.tracker.Get(r.Context(), exportID)
	if err != nil {
		if errors.Is(err, ErrExportUnknown) {
			http.Error(w, "Export not found", http.StatusNotFound)
			return
		}
		h.logger.Error("read export status failed", slog.Any("error", err))
		http.Error(w, "Export status unavailable", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/products/export.html", map[string]any{"Export": status}, http.StatusOK)
}

func (h *Handler) exportDownload(w http.ResponseWriter, r *http.Request) {
	exportID := chi.URLParam(r, "exportID")
	status, err := h.tracker.Get(r.Context(), exportID)
	if err != nil || status.State != ExportReady || status.File == "" {
		http.Error(w, "Export not ready", http.StatusNotFound)
		return
	}
	// File names come from the worker, never from the request, but keep the
	// path rooted in the export directory anyway.
	full := filepath.Join(h.exportDir, filepath.Base(status.File))
	if _, err := os.Stat(full); err != nil {
		http.Error(w, "Export file missing", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(status.File)))
	http.ServeFile(w, r, full)
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
		Title:       "Products",
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
