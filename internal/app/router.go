package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/farmlink/farmlink-admin/internal/activity"
	"github.com/farmlink/farmlink-admin/internal/auth"
	"github.com/farmlink/farmlink-admin/internal/buyers"
	"github.com/farmlink/farmlink-admin/internal/covers"
	"github.com/farmlink/farmlink-admin/internal/feedback"
	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/members"
	"github.com/farmlink/farmlink-admin/internal/observability"
	"github.com/farmlink/farmlink-admin/internal/orders"
	"github.com/farmlink/farmlink-admin/internal/platform/httpx"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/reports"
	"github.com/farmlink/farmlink-admin/internal/sellers"
	"github.com/farmlink/farmlink-admin/internal/settings"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
	"github.com/farmlink/farmlink-admin/jobs"
	"github.com/farmlink/farmlink-admin/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Identities     *identity.Store

	AuthHandler     *auth.Handler
	MembersHandler  *members.Handler
	BuyersHandler   *buyers.Handler
	SellersHandler  *sellers.Handler
	OrdersHandler   *orders.Handler
	FeedbackHandler *feedback.Handler
	ReportsHandler  *reports.Handler
	ActivityHandler *activity.Handler
	CoversHandler   *covers.Handler
	SettingsHandler *settings.Handler
	JobsHandler     *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with FarmLink defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		ident, ok := params.Identities.Current(sess)
		if !ok {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}

		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:       "FarmLink Admin",
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
			Identity:    ident,
			Caps:        policy.CapabilitiesFor(ident.Role).Strings(),
			Data: map[string]any{
				"AppEnv": params.Config.AppEnv,
			},
		}
		if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/members", params.MembersHandler.MountRoutes)
	r.Route("/buyers", params.BuyersHandler.MountRoutes)
	r.Route("/sellers", params.SellersHandler.MountRoutes)
	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/feedback", params.FeedbackHandler.MountRoutes)
	r.Route("/reports", params.ReportsHandler.MountRoutes)
	r.Route("/activity", params.ActivityHandler.MountRoutes)
	r.Route("/covers", params.CoversHandler.MountRoutes)
	r.Route("/settings", params.SettingsHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files are served without session or CSRF handling.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
