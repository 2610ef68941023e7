package buyers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Service applies visibility and capability rules to buyer profiles.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the buyers visible to the caller.
func (s *Service) List(ctx context.Context, ident identity.Identity, filters shared.ListFilters) ([]Buyer, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	visible := policy.FilterVisible(ident, rows, func(b Buyer) scope.Address { return b.Address })
	page := shared.NewPagination(filters.Page, filters.Limit, len(visible))
	start := (page.Page - 1) * page.PerPage
	if start >= len(visible) {
		return nil, page, nil
	}
	end := start + page.PerPage
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end], page, nil
}

// Get fetches a buyer the caller can see.
func (s *Service) Get(ctx context.Context, ident identity.Identity, id int64) (Buyer, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return Buyer{}, err
	}
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapViewAllRegions) && !scope.Matches(b.Address, ident.Scope()) {
		return Buyer{}, shared.ErrNotFound
	}
	return b, nil
}

// UpdateContact edits the contact fields of a visible buyer.
func (s *Service) UpdateContact(ctx context.Context, ident identity.Identity, id int64, upd ContactUpdate) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapEditBuyers) {
		return shared.ErrForbidden
	}
	if strings.TrimSpace(upd.Name) == "" {
		return errors.New("buyer name is required")
	}
	if _, err := s.Get(ctx, ident, id); err != nil {
		return err
	}
	if err := s.repo.UpdateContact(ctx, id, upd); err != nil {
		return err
	}
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, shared.AuditLog{
		ActorID:  ident.ID,
		Action:   "buyer.contact_updated",
		Entity:   "buyer",
		EntityID: strconv.FormatInt(id, 10),
	})
}
