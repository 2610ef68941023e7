package sellers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Service applies visibility and capability rules to seller profiles.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the sellers visible to the caller.
func (s *Service) List(ctx context.Context, ident identity.Identity, filters shared.ListFilters) ([]Seller, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	visible := policy.FilterVisible(ident, rows, func(sel Seller) scope.Address { return sel.Address })
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

// ListFeatured returns the currently featured sellers. The featured rail is
// marketplace-wide, so it is not scope-filtered, but only callers holding the
// manage capability reach the screen that lists it.
func (s *Service) ListFeatured(ctx context.Context) ([]Seller, error) {
	return s.repo.ListFeatured(ctx)
}

// Get fetches a seller the caller can see.
func (s *Service) Get(ctx context.Context, ident identity.Identity, id int64) (Seller, error) {
	sel, err := s.repo.Get(ctx, id)
	if err != nil {
		return Seller{}, err
	}
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapViewAllRegions) && !scope.Matches(sel.Address, ident.Scope()) {
		return Seller{}, shared.ErrNotFound
	}
	return sel, nil
}

// UpdateContact edits the contact fields of a visible seller.
func (s *Service) UpdateContact(ctx context.Context, ident identity.Identity, id int64, upd ContactUpdate) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapEditSellers) {
		return shared.ErrForbidden
	}
	if strings.TrimSpace(upd.Name) == "" {
		return errors.New("seller name is required")
	}
	if _, err := s.Get(ctx, ident, id); err != nil {
		return err
	}
	if err := s.repo.UpdateContact(ctx, id, upd); err != nil {
		return err
	}
	return s.record(ctx, ident, "seller.contact_updated", id, nil)
}

// Feature promotes a seller onto the featured rail, optionally until a
// deadline after which the expiry job demotes it.
func (s *Service) Feature(ctx context.Context, ident identity.Identity, id int64, until *time.Time) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapManageFeaturedSellers) {
		return shared.ErrForbidden
	}
	if until != nil && until.Before(time.Now()) {
		return errors.New("featured-until must be in the future")
	}
	if err := s.repo.SetFeatured(ctx, id, true, until); err != nil {
		return err
	}
	meta := map[string]any{}
	if until != nil {
		meta["until"] = until.UTC().Format(time.RFC3339)
	}
	return s.record(ctx, ident, "seller.featured", id, meta)
}

// Unfeature demotes a seller from the featured rail.
func (s *Service) Unfeature(ctx context.Context, ident identity.Identity, id int64) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapManageFeaturedSellers) {
		return shared.ErrForbidden
	}
	if err := s.repo.SetFeatured(ctx, id, false, nil); err != nil {
		return err
	}
	return s.record(ctx, ident, "seller.unfeatured", id, nil)
}

// ExpireFeatured demotes sellers whose featured window has passed. Called by
// the background worker, not by a screen.
func (s *Service) ExpireFeatured(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.ExpireFeatured(ctx, now)
}

func (s *Service) record(ctx context.Context, ident identity.Identity, action string, id int64, meta map[string]any) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, shared.AuditLog{
		ActorID:  ident.ID,
		Action:   action,
		Entity:   "seller",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
