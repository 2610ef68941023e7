package members

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
	members map[string]Member

	updatedContact map[string]ContactUpdate
	updatedRole    map[string]string
	updatedRegions map[string][]scope.Region
	deleted        []string
}

func newMockRepository(members ...Member) *mockRepository {
	m := &mockRepository{
		members:        make(map[string]Member),
		updatedContact: make(map[string]ContactUpdate),
		updatedRole:    make(map[string]string),
		updatedRegions: make(map[string][]scope.Region),
	}
	for _, mem := range members {
		m.members[mem.ID] = mem
	}
	return m
}

func (m *mockRepository) List(ctx context.Context, filters shared.ListFilters) ([]Member, error) {
	out := make([]Member, 0, len(m.members))
	for _, mem := range m.members {
		out = append(out, mem)
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (Member, error) {
	mem, ok := m.members[id]
	if !ok {
		return Member{}, shared.ErrNotFound
	}
	return mem, nil
}

func (m *mockRepository) UpdateContact(ctx context.Context, id string, upd ContactUpdate) error {
	m.updatedContact[id] = upd
	return nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id, role string, regions []scope.Region) error {
	m.updatedRole[id] = role
	m.updatedRegions[id] = regions
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockNotifier struct {
	emails []string
	roles  []string
}

func (m *mockNotifier) NotifyRoleChange(ctx context.Context, email, role string) error {
	m.emails = append(m.emails, email)
	m.roles = append(m.roles, role)
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

func caMember(id string) Member {
	return Member{ID: id, Name: "CA Member", Email: id + "@farmlink.test", Role: "user",
		Address: scope.Address{Country: "USA", State: "California"}}
}

func txMember(id string) Member {
	return Member{ID: id, Name: "TX Member", Email: id + "@farmlink.test", Role: "user",
		Address: scope.Address{Country: "USA", State: "Texas"}}
}

func TestListScopedToAdminRegions(t *testing.T) {
	repo := newMockRepository(caMember("m1"), txMember("m2"), caMember("m3"))
	svc := NewService(repo, nil, nil)

	rows, page, err := svc.List(context.Background(), caAdmin, shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	// The total reflects visible rows only, never the marketplace count.
	assert.Equal(t, 2, page.Total)

	rows, page, err = svc.List(context.Background(), superAdmin, shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, 3, page.Total)
}

func TestListPaginatesAfterFiltering(t *testing.T) {
	repo := newMockRepository(
		caMember("m1"), caMember("m2"), caMember("m3"), txMember("m4"),
	)
	svc := NewService(repo, nil, nil)

	rows, page, err := svc.List(context.Background(), caAdmin, shared.ListFilters{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
}

func TestGetOutOfScopeReadsAsNotFound(t *testing.T) {
	repo := newMockRepository(txMember("m1"))
	svc := NewService(repo, nil, nil)

	_, err := svc.Get(context.Background(), caAdmin, "m1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	got, err := svc.Get(context.Background(), superAdmin, "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
}

func TestUpdateContact(t *testing.T) {
	repo := newMockRepository(caMember("m1"))
	svc := NewService(repo, nil, nil)

	upd := ContactUpdate{Name: "Renamed", Email: "renamed@farmlink.test"}
	require.NoError(t, svc.UpdateContact(context.Background(), caAdmin, "m1", upd))
	assert.Equal(t, upd, repo.updatedContact["m1"])
}

func TestUpdateContactForbiddenWithoutCapability(t *testing.T) {
	repo := newMockRepository(caMember("m1"))
	svc := NewService(repo, nil, nil)

	err := svc.UpdateContact(context.Background(), plainUser, "m1", ContactUpdate{Name: "X", Email: "x@y.z"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, repo.updatedContact)
}

func TestUpdateContactOutOfScope(t *testing.T) {
	repo := newMockRepository(txMember("m1"))
	svc := NewService(repo, nil, nil)

	err := svc.UpdateContact(context.Background(), caAdmin, "m1", ContactUpdate{Name: "X", Email: "x@y.z"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.updatedContact)
}

func TestUpdateContactValidation(t *testing.T) {
	repo := newMockRepository(caMember("m1"))
	svc := NewService(repo, nil, nil)

	assert.Error(t, svc.UpdateContact(context.Background(), caAdmin, "m1", ContactUpdate{Email: "x@y.z"}))
	assert.Error(t, svc.UpdateContact(context.Background(), caAdmin, "m1", ContactUpdate{Name: "X"}))
}

func TestAssignRoleSuperAdminOnly(t *testing.T) {
	repo := newMockRepository(caMember("m1"))
	svc := NewService(repo, nil, nil)

	err := svc.AssignRole(context.Background(), caAdmin, "m1", "admin", nil)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	regions := []scope.Region{{Country: "USA", Region: "Texas"}}
	require.NoError(t, svc.AssignRole(context.Background(), superAdmin, "m1", "admin", regions))
	assert.Equal(t, "admin", repo.updatedRole["m1"])
	assert.Equal(t, regions, repo.updatedRegions["m1"])
}

func TestAssignRoleClearsRegionsForNonAdmins(t *testing.T) {
	repo := newMockRepository(caMember("m1"), caMember("m2"))
	svc := NewService(repo, nil, nil)

	regions := []scope.Region{{Country: "USA", Region: "Texas"}}

	// Region assignments only make sense on regional admins.
	require.NoError(t, svc.AssignRole(context.Background(), superAdmin, "m1", "user", regions))
	assert.Nil(t, repo.updatedRegions["m1"])

	require.NoError(t, svc.AssignRole(context.Background(), superAdmin, "m2", "super_admin", regions))
	assert.Nil(t, repo.updatedRegions["m2"])
}

func TestAssignRoleNotifiesMember(t *testing.T) {
	repo := newMockRepository(caMember("m1"))
	notifier := &mockNotifier{}
	svc := NewService(repo, nil, notifier)

	require.NoError(t, svc.AssignRole(context.Background(), superAdmin, "m1", "admin", nil))
	require.Len(t, notifier.emails, 1)
	assert.Equal(t, "m1@farmlink.test", notifier.emails[0])
	assert.Equal(t, "admin", notifier.roles[0])
}

func TestAssignRoleForbiddenSendsNothing(t *testing.T) {
	repo := newMockRepository(caMember("m1"))
	notifier := &mockNotifier{}
	svc := NewService(repo, nil, notifier)

	err := svc.AssignRole(context.Background(), caAdmin, "m1", "admin", nil)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, notifier.emails)
	assert.Empty(t, repo.updatedRole)
}

func TestAssignRoleUnknownMember(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, &mockNotifier{})

	err := svc.AssignRole(context.Background(), superAdmin, "missing", "admin", nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.updatedRole)
}

func TestDeleteSuperAdminOnly(t *testing.T) {
	repo := newMockRepository(caMember("m1"))
	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), caAdmin, "m1")
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), superAdmin, "m1"))
	assert.Equal(t, []string{"m1"}, repo.deleted)
}
