package feedback

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for feedback.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Feedback, error)
	Get(ctx context.Context, id int64) (Feedback, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const feedbackColumns = `f.id, f.buyer_id, b.name, f.seller_id, s.name, COALESCE(s.farm_name, ''),
	f.rating, COALESCE(f.comment, ''),
	COALESCE(b.country, ''), COALESCE(b.state, ''), COALESCE(b.city, ''), COALESCE(b.zipcode, ''),
	f.created_at`

const feedbackJoins = ` FROM feedback f
	JOIN buyers b ON b.id = f.buyer_id
	JOIN sellers s ON s.id = f.seller_id`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Feedback, error) {
	query := `SELECT ` + feedbackColumns + feedbackJoins + ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (b.name ILIKE $` + n + ` OR s.name ILIKE $` + n + ` OR f.comment ILIKE $` + n + `)`
	}
	query += ` ORDER BY f.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Feedback, error) {
	row := r.db.QueryRow(ctx, `SELECT `+feedbackColumns+feedbackJoins+` WHERE f.id = $1`, id)
	fb, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Feedback{}, shared.ErrNotFound
		}
		return Feedback{}, err
	}
	return fb, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanFeedback(row pgx.Row) (Feedback, error) {
	var (
		fb                        Feedback
		country, state, city, zip string
	)
	if err := row.Scan(&fb.ID, &fb.BuyerID, &fb.BuyerName, &fb.SellerID, &fb.SellerName, &fb.FarmName,
		&fb.Rating, &fb.Comment,
		&country, &state, &city, &zip,
		&fb.CreatedAt); err != nil {
		return Feedback{}, err
	}
	fb.BuyerAddress = scope.NewAddress(country, state, city, zip)
	return fb, nil
}
