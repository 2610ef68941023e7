package sellers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
)

// Handler serves the sellers and featured-sellers screens.
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

// MountRoutes registers the seller routes, grouped by required capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapViewSellers))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapEditSellers))
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapManageFeaturedSellers))
		r.Get("/featured", h.Featured)
		r.Post("/{id}/feature", h.Feature)
		r.Post("/{id}/unfeature", h.Unfeature)
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
		h.logger.Error("list sellers failed", "error", err)
		h.render(w, r, "pages/error.html", map[string]any{"Message": err.Error()}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/sellers_list.html", map[string]any{
		"Sellers":    rows,
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
		http.Error(w, "Invalid seller ID", http.StatusBadRequest)
		return
	}
	seller, err := h.service.Get(r.Context(), ident, id)
	if err != nil {
		http.Error(w, "Seller not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/seller_detail.html", map[string]any{"Seller": seller}, http.StatusOK)
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid seller ID", http.StatusBadRequest)
		return
	}
	seller, err := h.service.Get(r.Context(), ident, id)
	if err != nil {
		http.Error(w, "Seller not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/seller_form.html", map[string]any{"Seller": seller, "Errors": map[string]string{}}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid seller ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	upd := ContactUpdate{
		Name:     r.PostFormValue("name"),
		FarmName: r.PostFormValue("farm_name"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("phone"),
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
		h.render(w, r, "pages/seller_form.html", map[string]any{
			"Seller": Seller{ID: id, Name: upd.Name, FarmName: upd.FarmName, Email: upd.Email, Phone: upd.Phone, Address: upd.Address},
			"Errors": map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/sellers/"+strconv.FormatInt(id, 10), "success", "Seller updated")
}

// Featured renders the featured-sellers management screen.
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListFeatured(r.Context())
	if err != nil {
		h.logger.Error("list featured sellers failed", "error", err)
		h.render(w, r, "pages/error.html", map[string]any{"Message": err.Error()}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/featured_sellers.html", map[string]any{"Sellers": rows}, http.StatusOK)
}

// Feature promotes a seller onto the featured rail.
func (h *Handler) Feature(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid seller ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	var until *time.Time
	if raw := r.PostFormValue("until"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.redirectWithFlash(w, r, "/sellers/featured", "error", "Invalid featured-until date")
			return
		}
		until = &t
	}
	if err := h.service.Feature(r.Context(), ident, id, until); err != nil {
		h.redirectWithFlash(w, r, "/sellers/featured", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/sellers/featured", "success", "Seller featured")
}

// Unfeature removes a seller from the featured rail.
func (h *Handler) Unfeature(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid seller ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Unfeature(r.Context(), ident, id); err != nil {
		h.redirectWithFlash(w, r, "/sellers/featured", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/sellers/featured", "success", "Seller unfeatured")
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
		Title:       "Sellers",
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
