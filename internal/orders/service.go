package orders

import (
	"context"
	"errors"
	"strconv"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Service applies visibility and capability rules to orders. Orders carry no
// address of their own; visibility follows the buyer's address.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the orders visible to the caller.
func (s *Service) List(ctx context.Context, ident identity.Identity, filters shared.ListFilters) ([]Order, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	visible := policy.FilterVisible(ident, rows, func(o Order) scope.Address { return o.BuyerAddress })
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

// Get fetches an order the caller can see.
func (s *Service) Get(ctx context.Context, ident identity.Identity, id int64) (Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapViewAllRegions) && !scope.Matches(o.BuyerAddress, ident.Scope()) {
		return Order{}, shared.ErrNotFound
	}
	return o, nil
}

// ChangeStatus moves an order to a new lifecycle status.
func (s *Service) ChangeStatus(ctx context.Context, ident identity.Identity, id int64, status string) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapChangeOrderStatus) {
		return shared.ErrForbidden
	}
	if !ValidStatus(status) {
		return errors.New("unknown order status: " + status)
	}
	current, err := s.Get(ctx, ident, id)
	if err != nil {
		return err
	}
	if current.Status == status {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	return s.record(ctx, ident, "order.status_changed", id, map[string]any{
		"from": current.Status,
		"to":   status,
	})
}

// CountByStatus returns order counts keyed by status, for the reports screen.
func (s *Service) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) record(ctx context.Context, ident identity.Identity, action string, id int64, meta map[string]any) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, shared.AuditLog{
		ActorID:  ident.ID,
		Action:   action,
		Entity:   "order",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
