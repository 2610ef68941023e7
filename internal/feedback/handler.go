package feedback

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
)

// Handler serves the feedback screen.
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

// MountRoutes registers the feedback routes, grouped by required capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapViewFeedback))
		r.Get("/", h.List)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapDeleteFeedback))
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	filters := shared.ListFilters{Page: page, Limit: 20, Search: r.URL.Query().Get("search")}
	rows, pagination, err := h.service.List(r.Context(), ident, filters)
	if err != nil {
		h.logger.Error("list feedback failed", "error", err)
		h.render(w, r, "pages/error.html", map[string]any{"Message": err.Error()}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/feedback_list.html", map[string]any{
		"Feedback":   rows,
		"Filters":    filters,
		"Pagination": pagination,
	}, http.StatusOK)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid feedback ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), ident, id); err != nil {
		if errors.Is(err, shared.ErrForbidden) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		h.redirectWithFlash(w, r, "/feedback", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/feedback", "success", "Feedback deleted")
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
		Title:       "Feedback",
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
