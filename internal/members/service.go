package members

import (
	"context"
	"errors"
	"strings"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Notifier enqueues transactional mail for member accounts.
type Notifier interface {
	NotifyRoleChange(ctx context.Context, email, role string) error
}

// Service applies the visibility and capability rules to member data.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	notify Notifier
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger, notify Notifier) *Service {
	return &Service{repo: repo, audit: audit, notify: notify}
}

// List returns the members visible to the caller, paginated after the
// visibility filter so row counts never leak out-of-scope records.
func (s *Service) List(ctx context.Context, ident identity.Identity, filters shared.ListFilters) ([]Member, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	visible := policy.FilterVisible(ident, rows, func(m Member) scope.Address { return m.Address })
	page := shared.NewPagination(filters.Page, filters.Limit, len(visible))
	return paginate(visible, page), page, nil
}

// Get fetches one member. Records outside the caller's scope read as not
// found rather than hinting at their existence.
func (s *Service) Get(ctx context.Context, ident identity.Identity, id string) (Member, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return Member{}, err
	}
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapViewAllRegions) && !scope.Matches(m.Address, ident.Scope()) {
		return Member{}, shared.ErrNotFound
	}
	return m, nil
}

// UpdateContact changes the contact fields of a member the caller can see.
func (s *Service) UpdateContact(ctx context.Context, ident identity.Identity, id string, upd ContactUpdate) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapEditMembers) {
		return shared.ErrForbidden
	}
	if err := validateContact(upd); err != nil {
		return err
	}
	if _, err := s.Get(ctx, ident, id); err != nil {
		return err
	}
	if err := s.repo.UpdateContact(ctx, id, upd); err != nil {
		return err
	}
	return s.record(ctx, ident, "member.contact_updated", id, map[string]any{"email": upd.Email})
}

// AssignRole changes the role of a member account and replaces the region
// assignments when the new role is a regional admin. The member is notified
// by email through the background queue.
func (s *Service) AssignRole(ctx context.Context, ident identity.Identity, id, role string, regions []scope.Region) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapAssignRoles) {
		return shared.ErrForbidden
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	parsed := identity.ParseRole(role)
	if parsed != identity.RoleAdmin {
		regions = nil
	}
	if err := s.repo.UpdateRole(ctx, id, string(parsed), regions); err != nil {
		return err
	}
	if err := s.record(ctx, ident, "member.role_assigned", id, map[string]any{"role": string(parsed), "regions": len(regions)}); err != nil {
		return err
	}
	if s.notify == nil {
		return nil
	}
	return s.notify.NotifyRoleChange(ctx, m.Email, string(parsed))
}

// Delete removes a member account.
func (s *Service) Delete(ctx context.Context, ident identity.Identity, id string) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapDeleteMember) {
		return shared.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.record(ctx, ident, "member.deleted", id, nil)
}

func (s *Service) record(ctx context.Context, ident identity.Identity, action, entityID string, meta map[string]any) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, shared.AuditLog{
		ActorID:  ident.ID,
		Action:   action,
		Entity:   "member",
		EntityID: entityID,
		Meta:     meta,
	})
}

func validateContact(upd ContactUpdate) error {
	if strings.TrimSpace(upd.Name) == "" {
		return errors.New("member name is required")
	}
	if strings.TrimSpace(upd.Email) == "" {
		return errors.New("member email is required")
	}
	return nil
}

func paginate(rows []Member, page shared.Pagination) []Member {
	start := (page.Page - 1) * page.PerPage
	if start >= len(rows) {
		return nil
	}
	end := start + page.PerPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
