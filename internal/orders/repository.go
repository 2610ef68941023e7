package orders

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for orders.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Order, error)
	Get(ctx context.Context, id int64) (Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const orderColumns = `o.id, o.buyer_id, b.name, o.seller_id, s.name, COALESCE(s.farm_name, ''),
	o.produce, COALESCE(o.quantity, ''), o.status,
	COALESCE(b.country, ''), COALESCE(b.state, ''), COALESCE(b.city, ''), COALESCE(b.zipcode, ''),
	o.created_at, o.updated_at`

const orderJoins = ` FROM orders o
	JOIN buyers b ON b.id = o.buyer_id
	JOIN sellers s ON s.id = o.seller_id`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Order, error) {
	query := `SELECT ` + orderColumns + orderJoins + ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (b.name ILIKE $` + n + ` OR s.name ILIKE $` + n + ` OR o.produce ILIKE $` + n + `)`
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += ` AND o.status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY o.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+orderJoins+` WHERE o.id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                         Order
		country, state, city, zip string
	)
	if err := row.Scan(&o.ID, &o.BuyerID, &o.BuyerName, &o.SellerID, &o.SellerName, &o.FarmName,
		&o.Produce, &o.Quantity, &o.Status,
		&country, &state, &city, &zip,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	o.BuyerAddress = scope.NewAddress(country, state, city, zip)
	return o, nil
}
