package activity

import (
	"context"
	"time"

	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Service pages through the activity log.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const pageSize = 25

// List returns one page of activity entries, newest first.
func (s *Service) List(ctx context.Context, filters Filters) ([]Entry, shared.Pagination, error) {
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, total, err := s.repo.List(ctx, filters, pageSize, offset)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return rows, shared.NewPagination(page, pageSize, total), nil
}

// Purge deletes entries older than the retention window. Called by the
// background worker.
func (s *Service) Purge(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	return s.repo.PurgeBefore(ctx, now.Add(-retention))
}
