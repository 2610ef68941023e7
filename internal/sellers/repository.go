package sellers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for seller profiles.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Seller, error)
	ListFeatured(ctx context.Context) ([]Seller, error)
	Get(ctx context.Context, id int64) (Seller, error)
	UpdateContact(ctx context.Context, id int64, upd ContactUpdate) error
	SetFeatured(ctx context.Context, id int64, featured bool, until *time.Time) error
	ExpireFeatured(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const sellerColumns = `id, name, COALESCE(farm_name, ''), email, COALESCE(phone, ''),
	COALESCE(country, ''), COALESCE(state, ''), COALESCE(city, ''), COALESCE(zipcode, ''),
	business_address, featured, featured_until, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + n + ` OR farm_name ILIKE $` + n + ` OR email ILIKE $` + n + `)`
	}
	query += ` ORDER BY featured DESC, name ASC`
	return r.query(ctx, query, args...)
}

// ListFeatured returns currently featured sellers.
func (r *repository) ListFeatured(ctx context.Context) ([]Seller, error) {
	return r.query(ctx, `SELECT `+sellerColumns+` FROM sellers WHERE featured ORDER BY name ASC`)
}

func (r *repository) Get(ctx context.Context, id int64) (Seller, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sellerColumns+` FROM sellers WHERE id = $1`, id)
	s, err := scanSeller(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Seller{}, shared.ErrNotFound
		}
		return Seller{}, err
	}
	return s, nil
}

func (r *repository) UpdateContact(ctx context.Context, id int64, upd ContactUpdate) error {
	tag, err := r.db.Exec(ctx, `UPDATE sellers SET name = $1, farm_name = NULLIF($2, ''), email = $3, phone = NULLIF($4, ''),
		country = NULLIF($5, ''), state = NULLIF($6, ''), city = NULLIF($7, ''), zipcode = NULLIF($8, ''),
		updated_at = NOW() WHERE id = $9`,
		upd.Name, upd.FarmName, upd.Email, upd.Phone,
		upd.Address.Country, upd.Address.State, upd.Address.City, upd.Address.Zip, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetFeatured(ctx context.Context, id int64, featured bool, until *time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE sellers SET featured = $1, featured_until = $2, updated_at = NOW() WHERE id = $3`, featured, until, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExpireFeatured demotes sellers whose featured window has passed.
func (r *repository) ExpireFeatured(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE sellers SET featured = FALSE, featured_until = NULL, updated_at = NOW()
		WHERE featured AND featured_until IS NOT NULL AND featured_until < $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) query(ctx context.Context, query string, args ...any) ([]Seller, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Seller
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSeller(row pgx.Row) (Seller, error) {
	var (
		s                         Seller
		country, state, city, zip string
		businessAddr              []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &s.FarmName, &s.Email, &s.Phone,
		&country, &state, &city, &zip,
		&businessAddr, &s.Featured, &s.FeaturedUntil, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Seller{}, err
	}
	s.Address = scope.DecodeAddress(businessAddr, scope.NewAddress(country, state, city, zip))
	return s, nil
}
