package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analytichttp "github.com/weprixetechnologies/cly-admin/internal/analytics/http"
	"github.com/weprixetechnologies/cly-admin/internal/auth"
	"github.com/weprixetechnologies/cly-admin/internal/catalog/categories"
	"github.com/weprixetechnologies/cly-admin/internal/catalog/products"
	"github.com/weprixetechnologies/cly-admin/internal/content"
	ordershttp "github.com/weprixetechnologies/cly-admin/internal/orders/http"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/sliders"
	"github.com/weprixetechnologies/cly-admin/internal/users"
	"github.com/weprixetechnologies/cly-admin/jobs"
	"github.com/weprixetechnologies/cly-admin/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler       *auth.Handler
	OrdersHandler     *ordershttp.Handler
	ProductsHandler   *products.Handler
	CategoriesHandler *categories.Handler
	UsersHandler      *users.Handler
	ContentHandler    *content.Handler
	SlidersHandler    *sliders.Handler
	AnalyticsHandler  *analytichttp.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router for the dashboard.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Everything beyond this point needs a signed-in admin.
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)

		params.AnalyticsHandler.MountDashboard(r)
		r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
		r.Route("/orders", params.OrdersHandler.MountRoutes)
		r.Route("/catalog", func(r chi.Router) {
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
		})
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/content", params.ContentHandler.MountRoutes)
		r.Route("/sliders", params.SlidersHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	mountStatic(r, params.Logger)

	return r
}

func mountStatic(r chi.Router, logger *slog.Logger) {
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("static assets unavailable", slog.Any("error", err))
		return
	}
	fileServer := http.FileServer(http.FS(staticFS))
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.StripPrefix("/static/", fileServer).ServeHTTP(w, req)
	})
}
