package content

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

// Handler serves the content management pages. FAQ and policies are lists;
// about, contact and head office are single documents edited in place.
type Handler struct {
	logger     *slog.Logger
	faqs       *upstream.Resource[FAQ]
	policies   *upstream.Resource[Policy]
	about      *upstream.Document[AboutPage]
	contact    *upstream.Document[ContactPage]
	headOffice *upstream.Document[HeadOffice]
	templates  *view.Engine
	csrf       *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, client *upstream.Client, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:     logger,
		faqs:       upstream.NewResource[FAQ](client, "/content/admin/faq"),
		policies:   upstream.NewResource[Policy](client, "/content/admin/policies"),
		about:      upstream.NewDocument[AboutPage](client, "/content/admin/about"),
		contact:    upstream.NewDocument[ContactPage](client, "/content/admin/contact"),
		headOffice: upstream.NewDocument[HeadOffice](client, "/content/admin/head-office"),
		templates:  templates,
		csrf:       csrf,
	}
}

// MountRoutes registers content routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/content/faq", http.StatusSeeOther)
	})

	r.Route("/faq", func(r chi.Router) {
		r.Get("/", h.listFAQs)
		r.Get("/new", h.faqForm)
		r.Post("/", h.createFAQ)
		r.Get("/{id}/edit", h.editFAQ)
		r.Post("/{id}/edit", h.updateFAQ)
		r.Post("/{id}/delete", h.deleteFAQ)
	})

	r.Route("/policies", func(r chi.Router) {
		r.Get("/", h.listPolicies)
		r.Get("/new", h.policyForm)
		r.Post("/", h.createPolicy)
		r.Get("/{id}/edit", h.editPolicy)
		r.Post("/{id}/edit", h.updatePolicy)
		r.Post("/{id}/delete", h.deletePolicy)
	})

	r.Get("/about", h.showAbout)
	r.Post("/about", h.saveAbout)
	r.Get("/contact", h.showContact)
	r.Post("/contact", h.saveContact)
	r.Get("/head-office", h.showHeadOffice)
	r.Post("/head-office", h.saveHeadOffice)
}

// FAQ pages

func (h *Handler) listFAQs(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	page, err := h.faqs.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list faqs failed", slog.Any("error", err))
		h.render(w, r, "pages/content/faq_list.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/content/faq_list.html", map[string]any{
		"FAQs":       page.Items,
		"Filters":    filters,
		"Total":      page.Total,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, page.Total),
	}, http.StatusOK)
}

func (h *Handler) faqForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/content/faq_form.html", map[string]any{"Errors": map[string]string{}, "FAQ": nil}, http.StatusOK)
}

type faqInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
	Active   bool   `json:"active"`
}

func parseFAQForm(r *http.Request) (faqInput, map[string]string) {
	errs := map[string]string{}
	input := faqInput{
		Question: strings.TrimSpace(r.PostFormValue("question")),
		Answer:   strings.TrimSpace(r.PostFormValue("answer")),
		Active:   r.PostFormValue("active") == "1",
	}
	if input.Question == "" {
		errs["question"] = "Question is required"
	}
	if input.Answer == "" {
		errs["answer"] = "Answer is required"
	}
	if raw := r.PostFormValue("position"); raw != "" {
		position, err := strconv.Atoi(raw)
		if err != nil || position < 0 {
			errs["position"] = "Position must be a non-negative number"
		}
		input.Position = position
	}
	if len(errs) > 0 {
		return faqInput{}, errs
	}
	return input, nil
}

func (h *Handler) createFAQ(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := parseFAQForm(r)
	if errs != nil {
		h.render(w, r, "pages/content/faq_form.html", map[string]any{"Errors": errs, "FAQ": nil}, http.StatusBadRequest)
		return
	}
	if _, err := h.faqs.Create(r.Context(), input); err != nil {
		h.logger.Error("create faq failed", slog.Any("error", err))
		h.render(w, r, "pages/content/faq_form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"FAQ":    nil,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/content/faq", "success", "FAQ created successfully")
}

func (h *Handler) editFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	faq, err := h.faqs.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "FAQ not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/content/faq_form.html", map[string]any{"Errors": map[string]string{}, "FAQ": faq}, http.StatusOK)
}

func (h *Handler) updateFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := parseFAQForm(r)
	if errs != nil {
		h.render(w, r, "pages/content/faq_form.html", map[string]any{"Errors": errs, "FAQ": FAQ{ID: id}}, http.StatusBadRequest)
		return
	}
	if _, err := h.faqs.Update(r.Context(), id, input); err != nil {
		h.logger.Error("update faq failed", slog.Any("error", err), slog.String("id", id))
		h.render(w, r, "pages/content/faq_form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"FAQ":    FAQ{ID: id, Question: input.Question, Answer: input.Answer, Position: input.Position, Active: input.Active},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/content/faq", "success", "FAQ updated successfully")
}

func (h *Handler) deleteFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.faqs.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/content/faq", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/content/faq", "success", "FAQ deleted successfully")
}

// Policy pages

func (h *Handler) listPolicies(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	page, err := h.policies.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list policies failed", slog.Any("error", err))
		h.render(w, r, "pages/content/policy_list.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/content/policy_list.html", map[string]any{
		"Policies": page.Items,
		"Total":    page.Total,
	}, http.StatusOK)
}

func (h *Handler) policyForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/content/policy_form.html", map[string]any{"Errors": map[string]string{}, "Policy": nil}, http.StatusOK)
}

type policyInput struct {
	Title string `json:"title"`
	Slug  string `json:"slug,omitempty"`
	Body  string `json:"body"`
}

func parsePolicyForm(r *http.Request) (policyInput, map[string]string) {
	errs := map[string]string{}
	input := policyInput{
		Title: strings.TrimSpace(r.PostFormValue("title")),
		Slug:  strings.TrimSpace(r.PostFormValue("slug")),
		Body:  r.PostFormValue("body"),
	}
	if input.Title == "" {
		errs["title"] = "Policy title is required"
	}
	if strings.TrimSpace(input.Body) == "" {
		errs["body"] = "Policy body is required"
	}
	if len(errs) > 0 {
		return policyInput{}, errs
	}
	return input, nil
}

func (h *Handler) createPolicy(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := parsePolicyForm(r)
	if errs != nil {
		h.render(w, r, "pages/content/policy_form.html", map[string]any{"Errors": errs, "Policy": nil}, http.StatusBadRequest)
		return
	}
	if _, err := h.policies.Create(r.Context(), input); err != nil {
		h.logger.Error("create policy failed", slog.Any("error", err))
		h.render(w, r, "pages/content/policy_form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Policy": nil,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/content/policies", "success", "Policy created successfully")
}

func (h *Handler) editPolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	policy, err := h.policies.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Policy not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/content/policy_form.html", map[string]any{"Errors": map[string]string{}, "Policy": policy}, http.StatusOK)
}

func (h *Handler) updatePolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, errs := parsePolicyForm(r)
	if errs != nil {
		h.render(w, r, "pages/content/policy_form.html", map[string]any{"Errors": errs, "Policy": Policy{ID: id}}, http.StatusBadRequest)
		return
	}
	if _, err := h.policies.Update(r.Context(), id, input); err != nil {
		h.logger.Error("update policy failed", slog.Any("error", err), slog.String("id", id))
		h.render(w, r, "pages/content/policy_form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Policy": Policy{ID: id, Title: input.Title, Slug: input.Slug, Body: input.Body},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/content/policies", "success", "Policy updated successfully")
}

func (h *Handler) deletePolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.policies.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/content/policies", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/content/policies", "success", "Policy deleted successfully")
}

// Singleton documents

func (h *Handler) showAbout(w http.ResponseWriter, r *http.Request) {
	page, err := h.about.Get(r.Context())
	if err != nil {
		h.logger.Error("get about page failed", slog.Any("error", err))
		h.render(w, r, "pages/content/about.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/content/about.html", map[string]any{"Errors": map[string]string{}, "About": page}, http.StatusOK)
}

func (h *Handler) saveAbout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := AboutPage{
		Heading: strings.TrimSpace(r.PostFormValue("heading")),
		Body:    r.PostFormValue("body"),
		Image:   strings.TrimSpace(r.PostFormValue("image_url")),
	}
	if input.Heading == "" {
		h.render(w, r, "pages/content/about.html", map[string]any{
			"Errors": map[string]string{"heading": "Heading is required"},
			"About":  input,
		}, http.StatusBadRequest)
		return
	}
	if _, err := h.about.Update(r.Context(), input); err != nil {
		h.logger.Error("save about page failed", slog.Any("error", err))
		h.render(w, r, "pages/content/about.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"About":  input,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/content/about", "success", "About page saved")
}

func (h *Handler) showContact(w http.ResponseWriter, r *http.Request) {
	page, err := h.contact.Get(r.Context())
	if err != nil {
		h.logger.Error("get contact page failed", slog.Any("error", err))
		h.render(w, r, "pages/content/contact.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/content/contact.html", map[string]any{"Errors": map[string]string{}, "Contact": page}, http.StatusOK)
}

func (h *Handler) saveContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := ContactPage{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
		WhatsApp: strings.TrimSpace(r.PostFormValue("whatsapp")),
		Hours:    strings.TrimSpace(r.PostFormValue("hours")),
	}
	if input.Email == "" && input.Phone == "" {
		h.render(w, r, "pages/content/contact.html", map[string]any{
			"Errors":  map[string]string{"general": "Provide at least an email or a phone number"},
			"Contact": input,
		}, http.StatusBadRequest)
		return
	}
	if _, err := h.contact.Update(r.Context(), input); err != nil {
		h.logger.Error("save contact page failed", slog.Any("error", err))
		h.render(w, r, "pages/content/contact.html", map[string]any{
			"Errors":  map[string]string{"general": shared.UserSafeMessage(err)},
			"Contact": input,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/content/contact", "success", "Contact details saved")
}

func (h *Handler) showHeadOffice(w http.ResponseWriter, r *http.Request) {
	office, err := h.headOffice.Get(r.Context())
	if err != nil {
		h.logger.Error("get head office failed", slog.Any("error", err))
		h.render(w, r, "pages/content/head_office.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/content/head_office.html", map[string]any{"Errors": map[string]string{}, "Office": office}, http.StatusOK)
}

func (h *Handler) saveHeadOffice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := HeadOffice{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Address:  strings.TrimSpace(r.PostFormValue("address")),
		City:     strings.TrimSpace(r.PostFormValue("city")),
		State:    strings.TrimSpace(r.PostFormValue("state")),
		Pincode:  strings.TrimSpace(r.PostFormValue("pincode")),
		GSTIN:    strings.TrimSpace(r.PostFormValue("gstin")),
		MapEmbed: strings.TrimSpace(r.PostFormValue("map_embed")),
	}
	if input.Name == "" || input.Address == "" {
		h.render(w, r, "pages/content/head_office.html", map[string]any{
			"Errors": map[string]string{"general": "Office name and address are required"},
			"Office": input,
		}, http.StatusBadRequest)
		return
	}
	if _, err := h.headOffice.Update(r.Context(), input); err != nil {
		h.logger.Error("save head office failed", slog.Any("error", err))
		h.render(w, r, "pages/content/head_office.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Office": input,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/content/head-office", "success", "Head office details saved")
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
		Title:       "Content",
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
