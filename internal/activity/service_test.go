package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmlink/farmlink-admin/internal/shared"
)

type mockRepository struct {
	entries []Entry

	gotLimit  int
	gotOffset int
	gotCutoff time.Time
	purged    int64
}

func (m *mockRepository) List(ctx context.Context, filters Filters, limit, offset int) ([]Entry, int, error) {
	m.gotLimit = limit
	m.gotOffset = offset
	if offset >= len(m.entries) {
		return nil, len(m.entries), nil
	}
	end := offset + limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	return m.entries[offset:end], len(m.entries), nil
}

func (m *mockRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.gotCutoff = cutoff
	return m.purged, nil
}

func makeEntries(n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		out[i] = Entry{ID: int64(i + 1), Action: "member.deleted", Entity: "member"}
	}
	return out
}

func TestListFirstPage(t *testing.T) {
	repo := &mockRepository{entries: makeEntries(60)}
	svc := NewService(repo)

	rows, page, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Len(t, rows, pageSize)
	assert.Equal(t, 0, repo.gotOffset)
	assert.Equal(t, pageSize, repo.gotLimit)
	assert.Equal(t, shared.Pagination{Page: 1, PerPage: pageSize, Total: 60, TotalPages: 3}, page)
}

func TestListLaterPage(t *testing.T) {
	repo := &mockRepository{entries: makeEntries(60)}
	svc := NewService(repo)

	rows, page, err := svc.List(context.Background(), Filters{Page: 3})
	require.NoError(t, err)
	assert.Len(t, rows, 10)
	assert.Equal(t, 50, repo.gotOffset)
	assert.Equal(t, 3, page.Page)
}

func TestListNormalizesPage(t *testing.T) {
	repo := &mockRepository{entries: makeEntries(5)}
	svc := NewService(repo)

	_, page, err := svc.List(context.Background(), Filters{Page: -4})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.gotOffset)
	assert.Equal(t, 1, page.Page)
}

func TestPurgeCutoff(t *testing.T) {
	repo := &mockRepository{purged: 7}
	svc := NewService(repo)

	now := time.Date(2026, 8, 28, 2, 30, 0, 0, time.UTC)
	n, err := svc.Purge(context.Background(), 90*24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.True(t, repo.gotCutoff.Equal(now.Add(-90*24*time.Hour)))
}
