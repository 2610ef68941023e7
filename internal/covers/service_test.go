package covers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

type mockRepository struct {
	images map[int64]CoverImage
	nextID int64

	createError error
}

func newMockRepository(images ...CoverImage) *mockRepository {
	m := &mockRepository{images: make(map[int64]CoverImage), nextID: 1}
	for _, img := range images {
		m.images[img.ID] = img
		if img.ID >= m.nextID {
			m.nextID = img.ID + 1
		}
	}
	return m
}

func (m *mockRepository) List(ctx context.Context) ([]CoverImage, error) {
	out := make([]CoverImage, 0, len(m.images))
	for _, img := range m.images {
		out = append(out, img)
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (CoverImage, error) {
	img, ok := m.images[id]
	if !ok {
		return CoverImage{}, shared.ErrNotFound
	}
	return img, nil
}

func (m *mockRepository) Create(ctx context.Context, img CoverImage) (int64, error) {
	if m.createError != nil {
		return 0, m.createError
	}
	img.ID = m.nextID
	m.nextID++
	m.images[img.ID] = img
	return img.ID, nil
}

func (m *mockRepository) Activate(ctx context.Context, id int64) error {
	if _, ok := m.images[id]; !ok {
		return shared.ErrNotFound
	}
	for key, img := range m.images {
		img.Active = key == id
		m.images[key] = img
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.images[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.images, id)
	return nil
}

type mockStorage struct {
	objects map[string][]byte
	types   map[string]string

	deleted []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *mockStorage) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, "", errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), s.types[key], nil
}

func (s *mockStorage) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

var (
	superAdmin = identity.Identity{ID: "su", Role: identity.RoleSuperAdmin}
	caAdmin    = identity.Identity{ID: "ca", Role: identity.RoleAdmin}
)

func TestListSuperAdminOnly(t *testing.T) {
	svc := NewService(newMockRepository(), newMockStorage(), nil)

	_, err := svc.List(context.Background(), caAdmin)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.List(context.Background(), superAdmin)
	assert.NoError(t, err)
}

func TestUpload(t *testing.T) {
	repo := newMockRepository()
	storage := newMockStorage()
	svc := NewService(repo, storage, nil)

	body := strings.NewReader("fake png bytes")
	img, err := svc.Upload(context.Background(), superAdmin, "Spring banner", "image/png", body)
	require.NoError(t, err)

	assert.NotZero(t, img.ID)
	assert.Equal(t, "Spring banner", img.Title)
	assert.True(t, strings.HasPrefix(img.ObjectKey, "covers/"))
	assert.True(t, strings.HasSuffix(img.ObjectKey, ".png"))
	assert.Equal(t, int64(len("fake png bytes")), img.SizeBytes)
	assert.Equal(t, "su", img.UploadedBy)

	// Object landed in storage under the generated key.
	_, ok := storage.objects[img.ObjectKey]
	assert.True(t, ok)
}

func TestUploadForbiddenWithoutCapability(t *testing.T) {
	storage := newMockStorage()
	svc := NewService(newMockRepository(), storage, nil)

	_, err := svc.Upload(context.Background(), caAdmin, "Banner", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, storage.objects)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc := NewService(newMockRepository(), newMockStorage(), nil)

	_, err := svc.Upload(context.Background(), superAdmin, "Banner", "image/gif", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestUploadRequiresTitle(t *testing.T) {
	svc := NewService(newMockRepository(), newMockStorage(), nil)

	_, err := svc.Upload(context.Background(), superAdmin, "   ", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	svc := NewService(newMockRepository(), newMockStorage(), nil)

	big := bytes.NewReader(make([]byte, MaxUploadBytes+1))
	_, err := svc.Upload(context.Background(), superAdmin, "Banner", "image/jpeg", big)
	assert.Error(t, err)
}

func TestUploadRejectsEmptyBody(t *testing.T) {
	svc := NewService(newMockRepository(), newMockStorage(), nil)

	_, err := svc.Upload(context.Background(), superAdmin, "Banner", "image/png", strings.NewReader(""))
	assert.Error(t, err)
}

func TestUploadCleansUpObjectOnRepoFailure(t *testing.T) {
	repo := newMockRepository()
	repo.createError = errors.New("insert failed")
	storage := newMockStorage()
	svc := NewService(repo, storage, nil)

	_, err := svc.Upload(context.Background(), superAdmin, "Banner", "image/png", strings.NewReader("x"))
	assert.Error(t, err)

	// The stored object was removed after the insert failed.
	assert.Empty(t, storage.objects)
	assert.Len(t, storage.deleted, 1)
}

func TestActivate(t *testing.T) {
	repo := newMockRepository(
		CoverImage{ID: 1, Title: "Old", ObjectKey: "covers/old.png", Active: true},
		CoverImage{ID: 2, Title: "New", ObjectKey: "covers/new.png"},
	)
	svc := NewService(repo, newMockStorage(), nil)

	err := svc.Activate(context.Background(), caAdmin, 2)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, svc.Activate(context.Background(), superAdmin, 2))
	assert.False(t, repo.images[1].Active)
	assert.True(t, repo.images[2].Active)
}

func TestDeleteRefusesActiveCover(t *testing.T) {
	repo := newMockRepository(CoverImage{ID: 1, Title: "Live", ObjectKey: "covers/live.png", Active: true})
	storage := newMockStorage()
	storage.objects["covers/live.png"] = []byte("x")
	svc := NewService(repo, storage, nil)

	err := svc.Delete(context.Background(), superAdmin, 1)
	assert.Error(t, err)
	assert.Contains(t, repo.images, int64(1))
	assert.Contains(t, storage.objects, "covers/live.png")
}

func TestDeleteRemovesRowAndObject(t *testing.T) {
	repo := newMockRepository(CoverImage{ID: 1, Title: "Stale", ObjectKey: "covers/stale.png"})
	storage := newMockStorage()
	storage.objects["covers/stale.png"] = []byte("x")
	svc := NewService(repo, storage, nil)

	require.NoError(t, svc.Delete(context.Background(), superAdmin, 1))
	assert.NotContains(t, repo.images, int64(1))
	assert.NotContains(t, storage.objects, "covers/stale.png")
}

func TestOpenStreamsStoredObject(t *testing.T) {
	repo := newMockRepository(CoverImage{ID: 1, Title: "Banner", ObjectKey: "covers/banner.png", ContentType: "image/png"})
	storage := newMockStorage()
	storage.objects["covers/banner.png"] = []byte("png bytes")
	storage.types["covers/banner.png"] = "image/png"
	svc := NewService(repo, storage, nil)

	rc, contentType, err := svc.Open(context.Background(), superAdmin, 1)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
	assert.Equal(t, "image/png", contentType)
}
