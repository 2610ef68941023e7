package buyers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

type mockRepository struct {
	buyers map[int64]Buyer

	updated map[int64]ContactUpdate
}

func newMockRepository(buyers ...Buyer) *mockRepository {
	m := &mockRepository{buyers: make(map[int64]Buyer), updated: make(map[int64]ContactUpdate)}
	for _, b := range buyers {
		m.buyers[b.ID] = b
	}
	return m
}

func (m *mockRepository) List(ctx context.Context, filters shared.ListFilters) ([]Buyer, error) {
	out := make([]Buyer, 0, len(m.buyers))
	for _, b := range m.buyers {
		out = append(out, b)
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Buyer, error) {
	b, ok := m.buyers[id]
	if !ok {
		return Buyer{}, shared.ErrNotFound
	}
	return b, nil
}

func (m *mockRepository) UpdateContact(ctx context.Context, id int64, upd ContactUpdate) error {
	m.updated[id] = upd
	return nil
}

var (
	superAdmin = identity.Identity{ID: "su", Role: identity.RoleSuperAdmin}
	caAdmin    = identity.Identity{
		ID:      "ca",
		Role:    identity.RoleAdmin,
		Regions: []scope.Region{{Country: "USA", Region: "California"}},
	}
	plainUser = identity.Identity{ID: "pu", Role: identity.RoleUser}
)

func caBuyer(id int64) Buyer {
	return Buyer{ID: id, Name: "CA Buyer", Address: scope.Address{Country: "USA", State: "California"}}
}

func txBuyer(id int64) Buyer {
	return Buyer{ID: id, Name: "TX Buyer", Address: scope.Address{Country: "USA", State: "Texas"}}
}

func TestListScoped(t *testing.T) {
	repo := newMockRepository(caBuyer(1), txBuyer(2))
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
	repo := newMockRepository(txBuyer(1))
	svc := NewService(repo, nil)

	_, err := svc.Get(context.Background(), caAdmin, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateContact(t *testing.T) {
	repo := newMockRepository(caBuyer(1))
	svc := NewService(repo, nil)

	upd := ContactUpdate{Name: "Renamed", Email: "renamed@farmlink.test"}
	require.NoError(t, svc.UpdateContact(context.Background(), caAdmin, 1, upd))
	assert.Equal(t, upd, repo.updated[1])
}

func TestUpdateContactForbidden(t *testing.T) {
	repo := newMockRepository(caBuyer(1))
	svc := NewService(repo, nil)

	err := svc.UpdateContact(context.Background(), plainUser, 1, ContactUpdate{Name: "X"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, repo.updated)
}

func TestUpdateContactOutOfScope(t *testing.T) {
	repo := newMockRepository(txBuyer(1))
	svc := NewService(repo, nil)

	err := svc.UpdateContact(context.Background(), caAdmin, 1, ContactUpdate{Name: "X"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.updated)
}
