package buyers

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for buyer profiles.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Buyer, error)
	Get(ctx context.Context, id int64) (Buyer, error)
	UpdateContact(ctx context.Context, id int64, upd ContactUpdate) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const buyerColumns = `b.id, b.name, b.email, COALESCE(b.phone, ''),
	COALESCE(b.country, ''), COALESCE(b.state, ''), COALESCE(b.city, ''), COALESCE(b.zipcode, ''),
	(SELECT COUNT(*) FROM orders o WHERE o.buyer_id = b.id), b.created_at, b.updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM buyers b WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (b.name ILIKE $` + n + ` OR b.email ILIKE $` + n + `)`
	}
	query += ` ORDER BY b.name ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Buyer
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Buyer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+buyerColumns+` FROM buyers b WHERE b.id = $1`, id)
	b, err := scanBuyer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Buyer{}, shared.ErrNotFound
		}
		return Buyer{}, err
	}
	return b, nil
}

func (r *repository) UpdateContact(ctx context.Context, id int64, upd ContactUpdate) error {
	tag, err := r.db.Exec(ctx, `UPDATE buyers SET name = $1, email = $2, phone = NULLIF($3, ''),
		country = NULLIF($4, ''), state = NULLIF($5, ''), city = NULLIF($6, ''), zipcode = NULLIF($7, ''),
		updated_at = NOW() WHERE id = $8`,
		upd.Name, upd.Email, upd.Phone,
		upd.Address.Country, upd.Address.State, upd.Address.City, upd.Address.Zip, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanBuyer(row pgx.Row) (Buyer, error) {
	var (
		b                         Buyer
		country, state, city, zip string
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Email, &b.Phone,
		&country, &state, &city, &zip,
		&b.Interests, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Buyer{}, err
	}
	b.Address = scope.NewAddress(country, state, city, zip)
	return b, nil
}
