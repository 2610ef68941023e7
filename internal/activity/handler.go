package activity

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
)

// Handler serves the activity log screen.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	identities *identity.Store
	templates  *view.Engine
	csrf       *shared.CSRFManager
	policy     policy.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, identities *identity.Store, templates *view.Engine, csrf *shared.CSRFManager, pol policy.Middleware) *Handler {
	return &Handler{logger: logger, service: service, identities: identities, templates: templates, csrf: csrf, policy: pol}
}

// MountRoutes registers the activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapViewActivity))
		r.Get("/", h.List)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	filters := Filters{
		Page:   page,
		Actor:  r.URL.Query().Get("actor"),
		Entity: r.URL.Query().Get("entity"),
		Action: r.URL.Query().Get("action"),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filters.From = t
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filters.To = t.AddDate(0, 0, 1)
		}
	}
	rows, pagination, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list activity failed", "error", err)
		h.render(w, r, "pages/error.html", map[string]any{"Message": err.Error()}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/activity_list.html", map[string]any{
		"Entries":    rows,
		"Filters":    filters,
		"Pagination": pagination,
	}, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	ident, _ := h.identities.FromContext(r.Context())
	viewData := view.TemplateData{
		Title:       "Activity",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Identity:    ident,
		Caps:        policy.CapabilitiesFor(ident.Role).Strings(),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
}
