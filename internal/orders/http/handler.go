package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/weprixetechnologies/cly-admin/internal/orders"
	"github.com/weprixetechnologies/cly-admin/internal/orders/export"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

// Handler serves the order list and detail pages.
type Handler struct {
	logger    *slog.Logger
	service   *orders.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	invoices  *export.InvoiceRenderer
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *orders.Service, templates *view.Engine, csrf *shared.CSRFManager, invoices *export.InvoiceRenderer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		invoices:  invoices,
		validator: validator.New(),
	}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Post("/{id}/status", h.updateStatus)
	r.Post("/{id}/items/{itemID}/acceptance", h.updateAcceptance)
	r.Post("/{id}/payments", h.createPayment)
	r.Get("/{id}/invoice.pdf", h.invoicePDF)
	r.Get("/{id}/export.xlsx", h.workbook)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		h.render(w, r, "pages/orders/list.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/orders/list.html", map[string]any{
		"Orders":     page.Items,
		"Filters":    filters,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, page.Total),
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	orderView, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get order failed", slog.Any("error", err), slog.String("id", id))
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	h.renderDetail(w, r, orderView, detailFormState{Force: r.URL.Query().Get("force") == "1"}, http.StatusOK)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	next := orders.Status(r.PostFormValue("status"))
	force := r.PostFormValue("force") == "1"

	_, err := h.service.Transition(r.Context(), id, next, force)
	if err != nil {
		if errors.Is(err, orders.ErrStatusFinal) {
			h.redirectWithFlash(w, r, "/orders/"+id, "error", "Status already updated, use the force change control")
			return
		}
		h.logger.Error("order status transition failed", slog.Any("error", err), slog.String("id", id))
		h.redirectWithFlash(w, r, "/orders/"+id, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/orders/"+id, "success", "Order status updated")
}

type acceptanceForm struct {
	Accepted int    `validate:"gte=0"`
	Note     string `validate:"max=500"`
}

func (h *Handler) updateAcceptance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	var err error
	if r.PostFormValue("mode") == "full" {
		_, err = h.service.AcceptFull(r.Context(), id, itemID)
	} else {
		accepted, convErr := strconv.Atoi(r.PostFormValue("accepted"))
		if convErr != nil {
			h.redirectWithFlash(w, r, "/orders/"+id, "error", "Accepted units must be a number")
			return
		}
		form := acceptanceForm{Accepted: accepted, Note: r.PostFormValue("note")}
		if verr := h.validator.Struct(form); verr != nil {
			h.redirectWithFlash(w, r, "/orders/"+id, "error", "Accepted units must not be negative")
			return
		}
		_, err = h.service.Accept(r.Context(), id, itemID, form.Accepted, form.Note)
	}
	if err != nil {
		h.logger.Error("acceptance update failed", slog.Any("error", err), slog.String("id", id), slog.String("item", itemID))
		h.redirectWithFlash(w, r, "/orders/"+id, "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/orders/"+id, "success", "Acceptance updated")
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	amount, convErr := strconv.ParseFloat(r.PostFormValue("amount"), 64)
	note := r.PostFormValue("note")
	if convErr != nil {
		h.renderPaymentError(w, r, id, "Amount must be a number")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	adminID := ""
	if sess != nil {
		adminID = sess.User()
	}

	_, err := h.service.RecordPayment(r.Context(), id, amount, note, adminID)
	if err != nil {
		h.logger.Warn("record payment failed", slog.Any("error", err), slog.String("id", id))
		h.renderPaymentError(w, r, id, shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/orders/"+id, "success", "Payment recorded")
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	orderView, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	pdf, err := h.invoices.Render(r.Context(), export.InvoiceData{
		Order:          orderView.Order,
		Payments:       orderView.Payments,
		Reconciliation: orderView.Reconciliation,
		GeneratedAt:    time.Now(),
	})
	if err != nil {
		h.logger.Error("render invoice failed", slog.Any("error", err), slog.String("id", id))
		http.Error(w, "Invoice generation failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", orderView.Order.Number))
	_, _ = w.Write(pdf)
}

func (h *Handler) workbook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	orderView, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	book, err := export.BuildOrderWorkbook(orderView.Order, orderView.Payments, orderView.Reconciliation)
	if err != nil {
		h.logger.Error("build order workbook failed", slog.Any("error", err), slog.String("id", id))
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=order-%s.xlsx", orderView.Order.Number))
	if _, err := book.WriteTo(w); err != nil {
		h.logger.Warn("write order workbook", slog.Any("error", err))
	}
}

type detailFormState struct {
	Force        bool
	PaymentError string
}

func (h *Handler) renderPaymentError(w http.ResponseWriter, r *http.Request, id, msg string) {
	orderView, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	h.renderDetail(w, r, orderView, detailFormState{PaymentError: msg}, http.StatusBadRequest)
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, orderView orders.View, state detailFormState, status int) {
	h.render(w, r, "pages/orders/detail.html", map[string]any{
		"Order":          orderView.Order,
		"Payments":       orderView.Payments,
		"Reconciliation": orderView.Reconciliation,
		"Force":          state.Force,
		"PaymentError":   state.PaymentError,
	}, status)
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
		Title:       "Orders",
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
