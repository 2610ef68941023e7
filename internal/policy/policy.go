// Package policy derives capabilities from roles. It is the single place the
// role model lives; screens gate every affordance through a capability check
// instead of comparing role strings.
package policy

import "github.com/farmlink/farmlink-admin/internal/identity"

// Capability names a single permitted action.
type Capability string

const (
	CapViewMembers  Capability = "members.view"
	CapEditMembers  Capability = "members.edit"
	CapDeleteMember Capability = "members.delete"
	CapAssignRoles  Capability = "members.assign_roles"

	CapViewBuyers Capability = "buyers.view"
	CapEditBuyers Capability = "buyers.edit"

	CapViewSellers           Capability = "sellers.view"
	CapEditSellers           Capability = "sellers.edit"
	CapManageFeaturedSellers Capability = "sellers.feature"

	CapViewOrders        Capability = "orders.view"
	CapChangeOrderStatus Capability = "orders.status"

	CapViewFeedback   Capability = "feedback.view"
	CapDeleteFeedback Capability = "feedback.delete"

	CapViewReports  Capability = "reports.view"
	CapViewActivity Capability = "activity.view"

	CapManageCoverImage Capability = "covers.manage"

	// CapChangePasswordWithoutCurrent lets the holder set a new password
	// without re-proving the current one.
	CapChangePasswordWithoutCurrent Capability = "account.password_no_reauth"

	// CapViewAllRegions bypasses the location scope filter on listings.
	CapViewAllRegions Capability = "regions.all"
)

// CapabilitySet is the set of actions a role may perform.
type CapabilitySet map[Capability]struct{}

// Has reports whether the capability is granted.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// HasAll reports whether every capability is granted.
func (s CapabilitySet) HasAll(caps ...Capability) bool {
	for _, c := range caps {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Strings exposes the set as template-friendly lookups.
func (s CapabilitySet) Strings() map[string]bool {
	out := make(map[string]bool, len(s))
	for c := range s {
		out[string(c)] = true
	}
	return out
}

func set(caps ...Capability) CapabilitySet {
	out := make(CapabilitySet, len(caps))
	for _, c := range caps {
		out[c] = struct{}{}
	}
	return out
}

var adminCaps = set(
	CapViewMembers, CapEditMembers,
	CapViewBuyers, CapEditBuyers,
	CapViewSellers, CapEditSellers,
	CapViewOrders,
	CapViewFeedback,
	CapViewReports,
	CapViewActivity,
)

var superAdminCaps = func() CapabilitySet {
	out := set(
		CapDeleteMember, CapAssignRoles,
		CapManageFeaturedSellers,
		CapChangeOrderStatus,
		CapDeleteFeedback,
		CapManageCoverImage,
		CapChangePasswordWithoutCurrent,
		CapViewAllRegions,
	)
	for c := range adminCaps {
		out[c] = struct{}{}
	}
	return out
}()

// CapabilitiesFor maps a role onto its capability set. Total over all
// inputs: unknown roles get the empty set.
func CapabilitiesFor(role identity.Role) CapabilitySet {
	switch role {
	case identity.RoleSuperAdmin:
		return superAdminCaps
	case identity.RoleAdmin:
		return adminCaps
	default:
		return CapabilitySet{}
	}
}
