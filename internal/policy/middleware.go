package policy

import (
	"net/http"

	"log/slog"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/view"
)

// Middleware wires capability checks into HTTP routes. Unauthenticated
// callers are redirected to the login page; authenticated callers lacking a
// capability get the access-denied page, never a silently empty screen.
type Middleware struct {
	Identity  *identity.Store
	Templates *view.Engine
	Logger    *slog.Logger
}

// Require ensures a signed-in identity and that it holds every listed
// capability. With no capabilities it still demands authentication.
func (m Middleware) Require(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := m.Identity.FromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			if CapabilitiesFor(ident.Role).HasAll(caps...) {
				next.ServeHTTP(w, r)
				return
			}
			m.denied(w, r)
		})
	}
}

func (m Middleware) denied(w http.ResponseWriter, r *http.Request) {
	if m.Templates == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusForbidden)
	data := view.TemplateData{Title: "Access denied", CurrentPath: r.URL.Path}
	if err := m.Templates.Render(w, "pages/denied.html", data); err != nil {
		if m.Logger != nil {
			m.Logger.Error("render denied", slog.Any("error", err))
		}
	}
}
