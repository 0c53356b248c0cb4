package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/weprixetechnologies/cly-admin/internal/analytics"
	"github.com/weprixetechnologies/cly-admin/internal/analytics/export"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

// Handler serves the home dashboard, visitor trends and CSV downloads.
type Handler struct {
	logger    *slog.Logger
	service   *analytics.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *analytics.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountDashboard registers the home page.
func (h *Handler) MountDashboard(r chi.Router) {
	r.Get("/", h.dashboard)
}

// MountRoutes registers the analytics pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/visitors", h.visitors)
	r.Get("/visitors.csv", h.visitorsCSV)
	r.Get("/dashboard.csv", h.dashboardCSV)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("load dashboard metrics failed", slog.Any("error", err))
		h.render(w, r, "pages/dashboard.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusOK)
		return
	}
	h.render(w, r, "pages/dashboard.html", map[string]any{"Metrics": metrics}, http.StatusOK)
}

func (h *Handler) visitors(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)
	stats, err := h.service.Visitors(r.Context(), days)
	if err != nil {
		h.logger.Error("load visitor stats failed", slog.Any("error", err))
		h.render(w, r, "pages/visitors.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Days":   days,
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/visitors.html", map[string]any{"Stats": stats, "Days": days}, http.StatusOK)
}

func (h *Handler) visitorsCSV(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)
	stats, err := h.service.Visitors(r.Context(), days)
	if err != nil {
		http.Error(w, "Visitor stats unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=visitors-%s.csv", time.Now().Format("2006-01-02")))
	if err := export.WriteVisitorsCSV(w, stats); err != nil {
		h.logger.Warn("write visitors csv", slog.Any("error", err))
	}
}

func (h *Handler) dashboardCSV(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Dashboard(r.Context())
	if err != nil {
		http.Error(w, "Dashboard metrics unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=dashboard-%s.csv", time.Now().Format("2006-01-02")))
	if err := export.WriteDashboardCSV(w, metrics); err != nil {
		h.logger.Warn("write dashboard csv", slog.Any("error", err))
	}
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Invalidate(r.Context()); err != nil {
		h.logger.Error("invalidate analytics cache failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/", "error", "Could not refresh the metrics, please try again")
		return
	}
	h.redirectWithFlash(w, r, "/", "success", "Metrics refreshed")
}

func parseDays(r *http.Request) int {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 || days > 365 {
		days = 30
	}
	return days
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
		Title:       "Dashboard",
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
