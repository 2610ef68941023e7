package covers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
)

// Handler serves the cover-image management screen.
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

// MountRoutes registers the cover-image routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(policy.CapManageCoverImage))
		r.Get("/", h.List)
		r.Get("/{id}/image", h.Image)
		r.Post("/upload", h.Upload)
		r.Post("/{id}/activate", h.Activate)
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	images, err := h.service.List(r.Context(), ident)
	if err != nil {
		h.logger.Error("list cover images failed", "error", err)
		h.render(w, r, "pages/error.html", map[string]any{"Message": err.Error()}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/covers.html", map[string]any{"Images": images}, http.StatusOK)
}

func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid cover ID", http.StatusBadRequest)
		return
	}
	body, contentType, err := h.service.Open(r.Context(), ident, id)
	if err != nil {
		http.Error(w, "Cover not found", http.StatusNotFound)
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream cover image failed", "error", err, "id", id)
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		h.redirectWithFlash(w, r, "/covers", "error", "Upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		h.redirectWithFlash(w, r, "/covers", "error", "An image file is required")
		return
	}
	defer file.Close()

	title := r.PostFormValue("title")
	contentType := header.Header.Get("Content-Type")
	if _, err := h.service.Upload(r.Context(), ident, title, contentType, file); err != nil {
		if errors.Is(err, shared.ErrForbidden) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		h.redirectWithFlash(w, r, "/covers", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/covers", "success", "Cover image uploaded")
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid cover ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Activate(r.Context(), ident, id); err != nil {
		h.redirectWithFlash(w, r, "/covers", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/covers", "success", "Cover image activated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identities.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid cover ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), ident, id); err != nil {
		h.redirectWithFlash(w, r, "/covers", "error", err.Error())
		return
	}
	h.redirectWithFlash(w, r, "/covers", "success", "Cover image deleted")
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
		Title:       "Cover Images",
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
