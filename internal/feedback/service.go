package feedback

import (
	"context"
	"strconv"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Service applies visibility and capability rules to feedback.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the feedback entries visible to the caller.
func (s *Service) List(ctx context.Context, ident identity.Identity, filters shared.ListFilters) ([]Feedback, shared.Pagination, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	visible := policy.FilterVisible(ident, rows, func(fb Feedback) scope.Address { return fb.BuyerAddress })
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

// Delete removes a feedback entry. The capability gate runs before any
// repository access, so a caller without it never touches the row.
func (s *Service) Delete(ctx context.Context, ident identity.Identity, id int64) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapDeleteFeedback) {
		return shared.ErrForbidden
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, shared.AuditLog{
		ActorID:  ident.ID,
		Action:   "feedback.deleted",
		Entity:   "feedback",
		EntityID: strconv.FormatInt(id, 10),
	})
}
