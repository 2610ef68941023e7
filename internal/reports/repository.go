package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmlink/farmlink-admin/internal/scope"
)

// Repository runs the aggregate queries behind the reports screen.
type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	RegionCounts(ctx context.Context) ([]RegionCount, error)
	OrderStatusCounts(ctx context.Context) ([]StatusCount, error)
	MembersForExport(ctx context.Context) ([]ExportMember, error)
	OrdersForExport(ctx context.Context) ([]ExportOrder, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM buyers),
		(SELECT COUNT(*) FROM sellers),
		(SELECT COUNT(*) FROM orders)`).
		Scan(&t.Members, &t.Buyers, &t.Sellers, &t.Orders)
	return t, err
}

func (r *repository) RegionCounts(ctx context.Context) ([]RegionCount, error) {
	rows, err := r.db.Query(ctx, `SELECT country, state,
		SUM(members), SUM(buyers), SUM(sellers)
	FROM (
		SELECT COALESCE(country, '') AS country, COALESCE(state, '') AS state, 1 AS members, 0 AS buyers, 0 AS sellers FROM users
		UNION ALL
		SELECT COALESCE(country, ''), COALESCE(state, ''), 0, 1, 0 FROM buyers
		UNION ALL
		SELECT COALESCE(country, ''), COALESCE(state, ''), 0, 0, 1 FROM sellers
	) profiles
	GROUP BY country, state
	ORDER BY country, state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegionCount
	for rows.Next() {
		var rc RegionCount
		if err := rows.Scan(&rc.Country, &rc.Region, &rc.Members, &rc.Buyers, &rc.Sellers); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *repository) OrderStatusCounts(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT COALESCE(b.country, ''), COALESCE(b.state, ''), o.status, COUNT(*)
	FROM orders o
	JOIN buyers b ON b.id = o.buyer_id
	GROUP BY 1, 2, 3
	ORDER BY 1, 2, 3`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Country, &sc.Region, &sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *repository) MembersForExport(ctx context.Context) ([]ExportMember, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, email, role,
		COALESCE(country, ''), COALESCE(state, ''), COALESCE(city, ''), COALESCE(zipcode, '')
	FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportMember
	for rows.Next() {
		var (
			m                         ExportMember
			country, state, city, zip string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &country, &state, &city, &zip); err != nil {
			return nil, err
		}
		m.Address = scope.NewAddress(country, state, city, zip)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) OrdersForExport(ctx context.Context) ([]ExportOrder, error) {
	rows, err := r.db.Query(ctx, `SELECT o.id, b.name, s.name, o.produce, o.status,
		COALESCE(b.country, ''), COALESCE(b.state, ''), COALESCE(b.city, ''), COALESCE(b.zipcode, ''),
		o.created_at
	FROM orders o
	JOIN buyers b ON b.id = o.buyer_id
	JOIN sellers s ON s.id = o.seller_id
	ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportOrder
	for rows.Next() {
		var (
			o                         ExportOrder
			country, state, city, zip string
		)
		if err := rows.Scan(&o.ID, &o.BuyerName, &o.SellerName, &o.Produce, &o.Status,
			&country, &state, &city, &zip, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.BuyerAddress = scope.NewAddress(country, state, city, zip)
		out = append(out, o)
	}
	return out, rows.Err()
}
