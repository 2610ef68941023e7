package buyers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
)

// Handler serves the buyers screens.
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

// MountRoutes registers the buyer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapViewBuyers))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapEditBuyers))
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
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
		h.logger.Error("list buyers failed", "error", err)
		h.render(w, r, "pages/error.html", map[string]any{"Message": err.Error()}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/buyers_list.html", map[string]any{
		"Buyers":     rows,
		"Filters":    filters,
		"Pagination": pagination,
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid buyer ID", http.StatusBadRequest)
		return
	}
	buyer, err := h.service.Get(r.Context(), ident, id)
	if err != nil {
		http.Error(w, "Buyer not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/buyer_detail.html", map[string]any{"Buyer": buyer}, http.StatusOK)
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid buyer ID", http.StatusBadRequest)
		return
	}
	buyer, err := h.service.Get(r.Context(), ident, id)
	if err != nil {
		http.Error(w, "Buyer not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/buyer_form.html", map[string]any{"Buyer": buyer, "Errors": map[string]string{}}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid buyer ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	upd := ContactUpdate{
		Name:  r.PostFormValue("name"),
		Email: r.PostFormValue("email"),
		Phone: r.PostFormValue("phone"),
		Address: scope.NewAddress(
			r.PostFormValue("country"),
			r.PostFormValue("state"),
			r.PostFormValue("city"),
			r.PostFormValue("zipcode"),
		),
	}
	if err := h.service.UpdateContact(r.Context(), ident, id, upd); err != nil {
		if errors.Is(err, shared.ErrForbidden) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		h.render(w, r, "pages/buyer_form.html", map[string]any{
			"Buyer":  Buyer{ID: id, Name: upd.Name, Email: upd.Email, Phone: upd.Phone, Address: upd.Address},
			"Errors": map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Buyer updated"})
	}
	http.Redirect(w, r, "/buyers/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
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
		Title:       "Buyers",
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
