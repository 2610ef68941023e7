// Package identity holds the authenticated caller for the current session.
package identity

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Role is the dashboard access level of an account.
type Role string

const (
	// RoleUser is a regular marketplace account with no dashboard access.
	RoleUser Role = "user"
	// RoleAdmin is a regionally scoped dashboard administrator.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin is the unrestricted administrator.
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole maps a stored role string onto a Role. Unknown or empty values
// fall back to RoleUser so a bad row never gains access.
func ParseRole(raw string) Role {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleUser
	}
}

// Identity describes the authenticated caller. Regions are present only for
// regional admins; super admins carry none and are never scope-filtered.
type Identity struct {
	ID      string         `json:"id"`
	Email   string         `json:"email"`
	Name    string         `json:"name"`
	Role    Role           `json:"role"`
	Regions []scope.Region `json:"regions,omitempty"`
}

// Scope returns the caller's region assignments as a scope filter.
func (id Identity) Scope() scope.Scope {
	return scope.Scope(id.Regions)
}

const sessionKey = "identity"

// Store reads and writes the caller identity on a session. It is injected
// into handlers rather than kept as process-global state so tests can swap
// in fake identities.
type Store struct{}

// NewStore constructs a Store.
func NewStore() *Store {
	return &Store{}
}

// Login replaces the session identity unconditionally.
func (s *Store) Login(sess *shared.Session, id Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	sess.SetUser(id.ID)
	sess.Set(sessionKey, string(data))
	return nil
}

// Logout clears the identity. Calling it on an already anonymous session is
// a no-op.
func (s *Store) Logout(sess *shared.Session) {
	if sess == nil {
		return
	}
	sess.SetUser("")
	sess.Delete(sessionKey)
}

// Current returns the session identity, or ok=false when unauthenticated.
func (s *Store) Current(sess *shared.Session) (Identity, bool) {
	if sess == nil {
		return Identity{}, false
	}
	raw := sess.Get(sessionKey)
	if raw == "" {
		return Identity{}, false
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, false
	}
	if id.ID == "" {
		return Identity{}, false
	}
	return id, true
}

// FromContext resolves the identity of the request session in ctx.
func (s *Store) FromContext(ctx context.Context) (Identity, bool) {
	return s.Current(shared.SessionFromContext(ctx))
}
