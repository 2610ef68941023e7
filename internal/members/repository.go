package members

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for member accounts.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Member, error)
	Get(ctx context.Context, id string) (Member, error)
	UpdateContact(ctx context.Context, id string, upd ContactUpdate) error
	UpdateRole(ctx context.Context, id, role string, regions []scope.Region) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const memberColumns = `id, name, email, COALESCE(phone, ''), role,
	COALESCE(country, ''), COALESCE(state, ''), COALESCE(city, ''), COALESCE(zipcode, ''),
	business_address, is_active, created_at, updated_at`

// List returns member rows matching the search term. Location visibility is
// applied by the service layer, not in SQL.
func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Member, error) {
	query := `SELECT ` + memberColumns + ` FROM users WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + n + ` OR email ILIKE $` + n + `)`
	}
	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get fetches a member by ID.
func (r *repository) Get(ctx context.Context, id string) (Member, error) {
	row := r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM users WHERE id = $1`, id)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, shared.ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

// UpdateContact updates name, email, phone and address fields.
func (r *repository) UpdateContact(ctx context.Context, id string, upd ContactUpdate) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET name = $1, email = $2, phone = NULLIF($3, ''),
		country = NULLIF($4, ''), state = NULLIF($5, ''), city = NULLIF($6, ''), zipcode = NULLIF($7, ''),
		updated_at = NOW() WHERE id = $8`,
		upd.Name, upd.Email, upd.Phone,
		upd.Address.Country, upd.Address.State, upd.Address.City, upd.Address.Zip, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateEmail
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateRole changes the account role and, for regional admins, the region
// assignments.
func (r *repository) UpdateRole(ctx context.Context, id, role string, regions []scope.Region) error {
	var regionsJSON []byte
	if len(regions) > 0 {
		data, err := json.Marshal(regions)
		if err != nil {
			return err
		}
		regionsJSON = data
	}
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1, regions = $2, updated_at = NOW() WHERE id = $3`, role, regionsJSON, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a member account.
func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanMember(row pgx.Row) (Member, error) {
	var (
		m                         Member
		country, state, city, zip string
		businessAddr              []byte
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Role,
		&country, &state, &city, &zip,
		&businessAddr, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return Member{}, err
	}
	m.Address = scope.DecodeAddress(businessAddr, scope.NewAddress(country, state, city, zip))
	return m, nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "email":
		return "email " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
