package policy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

func requestAs(t *testing.T, ident *identity.Identity) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	if ident == nil {
		return req
	}
	sess := &shared.Session{}
	require.NoError(t, identity.NewStore().Login(sess, *ident))
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func runRequire(t *testing.T, ident *identity.Identity, caps ...Capability) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	mw := Middleware{Identity: identity.NewStore()}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	rec := httptest.NewRecorder()
	mw.Require(caps...)(next).ServeHTTP(rec, requestAs(t, ident))
	return rec, called
}

func TestRequireRedirectsAnonymous(t *testing.T) {
	// Even with no capabilities listed the caller must be signed in.
	rec, called := runRequire(t, nil)
	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestRequireNoCapabilitiesPassesSignedIn(t *testing.T) {
	ident := identity.Identity{ID: "a1", Role: identity.RoleAdmin}
	_, called := runRequire(t, &ident)
	assert.True(t, called)
}

func TestRequireDeniesMissingCapability(t *testing.T) {
	ident := identity.Identity{ID: "a1", Role: identity.RoleAdmin}
	rec, called := runRequire(t, &ident, CapAssignRoles)
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePassesWithCapability(t *testing.T) {
	ident := identity.Identity{ID: "s1", Role: identity.RoleSuperAdmin}
	_, called := runRequire(t, &ident, CapAssignRoles)
	assert.True(t, called)
}
