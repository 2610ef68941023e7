package sellers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

type mockRepository struct {
	sellers map[int64]Seller

	expired int64
}

func newMockRepository(sellers ...Seller) *mockRepository {
	m := &mockRepository{sellers: make(map[int64]Seller)}
	for _, s := range sellers {
		m.sellers[s.ID] = s
	}
	return m
}

func (m *mockRepository) List(ctx context.Context, filters shared.ListFilters) ([]Seller, error) {
	out := make([]Seller, 0, len(m.sellers))
	for _, s := range m.sellers {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockRepository) ListFeatured(ctx context.Context) ([]Seller, error) {
	var out []Seller
	for _, s := range m.sellers {
		if s.Featured {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Seller, error) {
	s, ok := m.sellers[id]
	if !ok {
		return Seller{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *mockRepository) UpdateContact(ctx context.Context, id int64, upd ContactUpdate) error {
	s, ok := m.sellers[id]
	if !ok {
		return shared.ErrNotFound
	}
	s.Name = upd.Name
	s.FarmName = upd.FarmName
	s.Email = upd.Email
	s.Phone = upd.Phone
	s.Address = upd.Address
	m.sellers[id] = s
	return nil
}

func (m *mockRepository) SetFeatured(ctx context.Context, id int64, featured bool, until *time.Time) error {
	s, ok := m.sellers[id]
	if !ok {
		return shared.ErrNotFound
	}
	s.Featured = featured
	s.FeaturedUntil = until
	m.sellers[id] = s
	return nil
}

func (m *mockRepository) ExpireFeatured(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range m.sellers {
		if s.Featured && s.FeaturedUntil != nil && s.FeaturedUntil.Before(now) {
			s.Featured = false
			s.FeaturedUntil = nil
			m.sellers[id] = s
			n++
		}
	}
	m.expired = n
	return n, nil
}

var (
	superAdmin = identity.Identity{ID: "su", Role: identity.RoleSuperAdmin}
	caAdmin    = identity.Identity{
		ID:      "ca",
		Role:    identity.RoleAdmin,
		Regions: []scope.Region{{Country: "USA", Region: "California"}},
	}
)

func caSeller(id int64) Seller {
	return Seller{ID: id, Name: "Grower", FarmName: "Green Acres",
		Address: scope.Address{Country: "USA", State: "California"}}
}

func txSeller(id int64) Seller {
	return Seller{ID: id, Name: "Rancher", FarmName: "Lone Star Farm",
		Address: scope.Address{Country: "USA", State: "Texas"}}
}

func TestListScoped(t *testing.T) {
	repo := newMockRepository(caSeller(1), txSeller(2))
	svc := NewService(repo, nil)

	rows, page, err := svc.List(context.Background(), caAdmin, shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, page.Total)

	rows, _, err = svc.List(context.Background(), superAdmin, shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestGetOutOfScope(t *testing.T) {
	repo := newMockRepository(txSeller(1))
	svc := NewService(repo, nil)

	_, err := svc.Get(context.Background(), caAdmin, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateContactRequiresName(t *testing.T) {
	repo := newMockRepository(caSeller(1))
	svc := NewService(repo, nil)

	err := svc.UpdateContact(context.Background(), caAdmin, 1, ContactUpdate{Name: "  "})
	assert.Error(t, err)
}

func TestFeatureSuperAdminOnly(t *testing.T) {
	repo := newMockRepository(caSeller(1))
	svc := NewService(repo, nil)

	err := svc.Feature(context.Background(), caAdmin, 1, nil)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.False(t, repo.sellers[1].Featured)

	require.NoError(t, svc.Feature(context.Background(), superAdmin, 1, nil))
	assert.True(t, repo.sellers[1].Featured)
	assert.Nil(t, repo.sellers[1].FeaturedUntil)
}

func TestFeatureWithDeadline(t *testing.T) {
	repo := newMockRepository(caSeller(1))
	svc := NewService(repo, nil)

	until := time.Now().Add(48 * time.Hour)
	require.NoError(t, svc.Feature(context.Background(), superAdmin, 1, &until))
	require.NotNil(t, repo.sellers[1].FeaturedUntil)
	assert.True(t, repo.sellers[1].FeaturedUntil.Equal(until))
}

func TestFeatureRejectsPastDeadline(t *testing.T) {
	repo := newMockRepository(caSeller(1))
	svc := NewService(repo, nil)

	past := time.Now().Add(-time.Hour)
	err := svc.Feature(context.Background(), superAdmin, 1, &past)
	assert.Error(t, err)
	assert.False(t, repo.sellers[1].Featured)
}

func TestUnfeature(t *testing.T) {
	s := caSeller(1)
	s.Featured = true
	repo := newMockRepository(s)
	svc := NewService(repo, nil)

	err := svc.Unfeature(context.Background(), caAdmin, 1)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, svc.Unfeature(context.Background(), superAdmin, 1))
	assert.False(t, repo.sellers[1].Featured)
}

func TestExpireFeatured(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := caSeller(1)
	expired.Featured = true
	expired.FeaturedUntil = &past

	current := txSeller(2)
	current.Featured = true
	current.FeaturedUntil = &future

	open := caSeller(3)
	open.Featured = true // no deadline, never expires

	repo := newMockRepository(expired, current, open)
	svc := NewService(repo, nil)

	n, err := svc.ExpireFeatured(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, repo.sellers[1].Featured)
	assert.True(t, repo.sellers[2].Featured)
	assert.True(t, repo.sellers[3].Featured)
}
