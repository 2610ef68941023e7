package members

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
)

// Handler serves the members screens.
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

// MountRoutes registers the member routes, grouped by required capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapViewMembers))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapEditMembers))
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapAssignRoles))
		r.Post("/{id}/role", h.AssignRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapDeleteMember))
		r.Post("/{id}/delete", h.Delete)
	})
}

// List renders the member list, scoped to the caller's regions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	filters := listFilters(r)
	rows, page, err := h.service.List(r.Context(), ident, filters)
	if err != nil {
		h.logger.Error("list members failed", "error", err)
		h.render(w, r, "pages/error.html", map[string]any{"Message": err.Error()}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/members_list.html", map[string]any{
		"Members":    rows,
		"Filters":    filters,
		"Pagination": page,
	}, http.StatusOK)
}

// Show renders one member.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	member, err := h.service.Get(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Member not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/member_detail.html", map[string]any{"Member": member}, http.StatusOK)
}

// EditForm renders the contact-edit form.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	member, err := h.service.Get(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Member not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/member_form.html", map[string]any{
		"Member": member,
		"Errors": map[string]string{},
	}, http.StatusOK)
}

// Update applies a contact-field edit.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
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
		h.render(w, r, "pages/member_form.html", map[string]any{
			"Member": Member{ID: id, Name: upd.Name, Email: upd.Email, Phone: upd.Phone, Address: upd.Address},
			"Errors": map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/members/"+id, "success", "Member updated")
}

// AssignRole changes a member's role and region assignments.
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	regions := parseRegions(r.PostFormValue("regions"))
	if err := h.service.AssignRole(r.Context(), ident, id, r.PostFormValue("role"), regions); err != nil {
		if errors.Is(err, shared.ErrForbidden) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		h.redirectWithFlash(w, r, "/members/"+id, "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/members/"+id, "success", "Role updated")
}

// Delete removes a member account.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), ident, id); err != nil {
		h.redirectWithFlash(w, r, "/members", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/members", "success", "Member deleted")
}

// parseRegions reads "Country:Region" pairs, one per line.
func parseRegions(raw string) []scope.Region {
	var out []scope.Region
	for _, line := range strings.Split(raw, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), ":", 2)
		if len(parts) != 2 {
			continue
		}
		region := scope.Region{Country: strings.TrimSpace(parts[0]), Region: strings.TrimSpace(parts[1])}
		if region.Country == "" || region.Region == "" {
			continue
		}
		out = append(out, region)
	}
	return out
}

func listFilters(r *http.Request) shared.ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	return shared.ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}
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
		Title:       "Members",
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
