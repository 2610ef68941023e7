package covers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmlink/farmlink-admin/internal/platform/db"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for cover images.
type Repository interface {
	List(ctx context.Context) ([]CoverImage, error)
	Get(ctx context.Context, id int64) (CoverImage, error)
	Create(ctx context.Context, img CoverImage) (int64, error)
	Activate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const coverColumns = `id, title, object_key, content_type, size_bytes, is_active, uploaded_by, created_at`

func (r *repository) List(ctx context.Context) ([]CoverImage, error) {
	rows, err := r.db.Query(ctx, `SELECT `+coverColumns+` FROM cover_images ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CoverImage
	for rows.Next() {
		img, err := scanCover(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (CoverImage, error) {
	row := r.db.QueryRow(ctx, `SELECT `+coverColumns+` FROM cover_images WHERE id = $1`, id)
	img, err := scanCover(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CoverImage{}, shared.ErrNotFound
		}
		return CoverImage{}, err
	}
	return img, nil
}

func (r *repository) Create(ctx context.Context, img CoverImage) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO cover_images (title, object_key, content_type, size_bytes, is_active, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, false, $5, NOW()) RETURNING id`,
		img.Title, img.ObjectKey, img.ContentType, img.SizeBytes, img.UploadedBy).Scan(&id)
	return id, err
}

// Activate marks one image active and deactivates the rest in a single
// transaction.
func (r *repository) Activate(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE cover_images SET is_active = false WHERE is_active`); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE cover_images SET is_active = true WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cover_images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCover(row pgx.Row) (CoverImage, error) {
	var img CoverImage
	if err := row.Scan(&img.ID, &img.Title, &img.ObjectKey, &img.ContentType,
		&img.SizeBytes, &img.Active, &img.UploadedBy, &img.CreatedAt); err != nil {
		return CoverImage{}, err
	}
	return img, nil
}
