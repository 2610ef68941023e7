package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmlink/farmlink-admin/internal/auth"
	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
)

// Handler serves the account settings screen: profile display and password
// change. Any signed-in dashboard account can reach it.
type Handler struct {
	logger     *slog.Logger
	auth       *auth.Service
	identities *identity.Store
	templates  *view.Engine
	csrf       *shared.CSRFManager
	policy     policy.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, authSvc *auth.Service, identities *identity.Store, templates *view.Engine, csrf *shared.CSRFManager, pol policy.Middleware) *Handler {
	return &Handler{logger: logger, auth: authSvc, identities: identities, templates: templates, csrf: csrf, policy: pol}
}

// MountRoutes registers the settings routes. Require with no capabilities
// still enforces a signed-in identity.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require())
		r.Get("/", h.Show)
		r.Post("/password", h.ChangePassword)
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	h.render(w, r, map[string]any{
		"Profile":         ident,
		"RequiresCurrent": !policy.CapabilitiesFor(ident.Role).Has(policy.CapChangePasswordWithoutCurrent),
		"Errors":          map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	current := r.PostFormValue("current_password")
	next := r.PostFormValue("new_password")
	confirm := r.PostFormValue("confirm_password")

	if next != confirm {
		h.renderError(w, r, ident, "New password and confirmation do not match")
		return
	}
	if err := h.auth.ChangePassword(r.Context(), ident, current, next); err != nil {
		switch {
		case errors.Is(err, auth.ErrCurrentPasswordMismatch):
			h.renderError(w, r, ident, "Current password is incorrect")
		default:
			h.renderError(w, r, ident, err.Error())
		}
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Password updated"})
	}
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, ident identity.Identity, msg string) {
	h.render(w, r, map[string]any{
		"Profile":         ident,
		"RequiresCurrent": !policy.CapabilitiesFor(ident.Role).Has(policy.CapChangePasswordWithoutCurrent),
		"Errors":          map[string]string{"password": msg},
	}, http.StatusBadRequest)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	ident, _ := h.identities.FromContext(r.Context())
	viewData := view.TemplateData{
		Title:       "Settings",
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
	if err := h.templates.Render(w, "pages/settings.html", viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", "pages/settings.html")
	}
}
