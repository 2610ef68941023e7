package covers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// MaxUploadBytes caps cover uploads at 5 MiB.
const MaxUploadBytes = 5 << 20

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Service manages marketplace cover images: database rows plus the backing
// objects in S3.
type Service struct {
	repo    Repository
	storage ObjectStorage
	audit   *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, storage ObjectStorage, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, storage: storage, audit: audit}
}

// List returns all cover images, newest first.
func (s *Service) List(ctx context.Context, ident identity.Identity) ([]CoverImage, error) {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapManageCoverImage) {
		return nil, shared.ErrForbidden
	}
	return s.repo.List(ctx)
}

// Upload stores a new cover image. The object is written to storage first;
// if the database insert fails the object is removed again.
func (s *Service) Upload(ctx context.Context, ident identity.Identity, title, contentType string, body io.Reader) (CoverImage, error) {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapManageCoverImage) {
		return CoverImage{}, shared.ErrForbidden
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return CoverImage{}, errors.New("unsupported image type: " + contentType)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return CoverImage{}, errors.New("cover title is required")
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxUploadBytes+1))
	if err != nil {
		return CoverImage{}, err
	}
	if len(data) == 0 {
		return CoverImage{}, errors.New("empty upload")
	}
	if len(data) > MaxUploadBytes {
		return CoverImage{}, errors.New("cover image exceeds the 5 MiB limit")
	}

	key := "covers/" + uuid.NewString() + ext
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return CoverImage{}, err
	}

	img := CoverImage{
		Title:       title,
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		UploadedBy:  ident.ID,
	}
	id, err := s.repo.Create(ctx, img)
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		return CoverImage{}, err
	}
	img.ID = id
	return img, s.record(ctx, ident, "cover.uploaded", id, map[string]any{"key": key})
}

// Activate makes the given image the live marketplace cover.
func (s *Service) Activate(ctx context.Context, ident identity.Identity, id int64) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapManageCoverImage) {
		return shared.ErrForbidden
	}
	if err := s.repo.Activate(ctx, id); err != nil {
		return err
	}
	return s.record(ctx, ident, "cover.activated", id, nil)
}

// Delete removes the image row and its stored object. The active cover
// cannot be deleted; activate another one first.
func (s *Service) Delete(ctx context.Context, ident identity.Identity, id int64) error {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapManageCoverImage) {
		return shared.ErrForbidden
	}
	img, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if img.Active {
		return errors.New("cannot delete the active cover image")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, img.ObjectKey); err != nil {
		// Row is gone; a dangling object is tolerable and logged upstream.
		return err
	}
	return s.record(ctx, ident, "cover.deleted", id, map[string]any{"key": img.ObjectKey})
}

// Open streams a stored cover image, for serving previews to the dashboard.
func (s *Service) Open(ctx context.Context, ident identity.Identity, id int64) (io.ReadCloser, string, error) {
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapManageCoverImage) {
		return nil, "", shared.ErrForbidden
	}
	img, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return s.storage.Get(ctx, img.ObjectKey)
}

func (s *Service) record(ctx context.Context, ident identity.Identity, action string, id int64, meta map[string]any) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, shared.AuditLog{
		ActorID:  ident.ID,
		Action:   action,
		Entity:   "cover_image",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
