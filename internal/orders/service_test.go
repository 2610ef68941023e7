package orders

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
	orders map[int64]Order

	statusCalls int
}

func newMockRepository(orders ...Order) *mockRepository {
	m := &mockRepository{orders: make(map[int64]Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockRepository) List(ctx context.Context, filters shared.ListFilters) ([]Order, error) {
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		if filters.Status != "" && o.Status != filters.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	return o, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	m.statusCalls++
	o, ok := m.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *mockRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, o := range m.orders {
		counts[o.Status]++
	}
	return counts, nil
}

var (
	superAdmin = identity.Identity{ID: "su", Role: identity.RoleSuperAdmin}
	caAdmin    = identity.Identity{
		ID:      "ca",
		Role:    identity.RoleAdmin,
		Regions: []scope.Region{{Country: "USA", Region: "California"}},
	}
)

func caOrder(id int64, status string) Order {
	return Order{ID: id, BuyerName: "CA Buyer", SellerName: "Grower", Produce: "Tomatoes",
		Status: status, BuyerAddress: scope.Address{Country: "USA", State: "California"}}
}

func txOrder(id int64, status string) Order {
	return Order{ID: id, BuyerName: "TX Buyer", SellerName: "Rancher", Produce: "Peppers",
		Status: status, BuyerAddress: scope.Address{Country: "USA", State: "Texas"}}
}

func TestValidStatus(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("shipped"))
	assert.False(t, ValidStatus(""))
}

func TestListScopedThroughBuyerAddress(t *testing.T) {
	repo := newMockRepository(caOrder(1, StatusPending), txOrder(2, StatusPending))
	svc := NewService(repo, nil)

	rows, page, err := svc.List(context.Background(), caAdmin, shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "CA Buyer", rows[0].BuyerName)
}

func TestGetOutOfScope(t *testing.T) {
	repo := newMockRepository(txOrder(1, StatusPending))
	svc := NewService(repo, nil)

	_, err := svc.Get(context.Background(), caAdmin, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	got, err := svc.Get(context.Background(), superAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestChangeStatusSuperAdminOnly(t *testing.T) {
	repo := newMockRepository(caOrder(1, StatusPending))
	svc := NewService(repo, nil)

	err := svc.ChangeStatus(context.Background(), caAdmin, 1, StatusAccepted)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, StatusPending, repo.orders[1].Status)

	require.NoError(t, svc.ChangeStatus(context.Background(), superAdmin, 1, StatusAccepted))
	assert.Equal(t, StatusAccepted, repo.orders[1].Status)
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	repo := newMockRepository(caOrder(1, StatusPending))
	svc := NewService(repo, nil)

	err := svc.ChangeStatus(context.Background(), superAdmin, 1, "shipped")
	assert.Error(t, err)
	assert.Equal(t, StatusPending, repo.orders[1].Status)
}

func TestChangeStatusSameStatusIsNoOp(t *testing.T) {
	repo := newMockRepository(caOrder(1, StatusPending))
	svc := NewService(repo, nil)

	require.NoError(t, svc.ChangeStatus(context.Background(), superAdmin, 1, StatusPending))
	assert.Zero(t, repo.statusCalls)
}

func TestCountByStatus(t *testing.T) {
	repo := newMockRepository(
		caOrder(1, StatusPending), caOrder(2, StatusPending), txOrder(3, StatusCompleted),
	)
	svc := NewService(repo, nil)

	counts, err := svc.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[StatusPending])
	assert.Equal(t, 1, counts[StatusCompleted])
}
