package activity

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and prunes the audit_logs table.
type Repository interface {
	List(ctx context.Context, filters Filters, limit, offset int) ([]Entry, int, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters Filters, limit, offset int) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Actor != "" {
		args = append(args, "%"+filters.Actor+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (u.name ILIKE $` + n + ` OR u.email ILIKE $` + n + `)`
	}
	if filters.Entity != "" {
		args = append(args, filters.Entity)
		where += ` AND a.entity = $` + strconv.Itoa(len(args))
	}
	if filters.Action != "" {
		args = append(args, filters.Action)
		where += ` AND a.action = $` + strconv.Itoa(len(args))
	}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		where += ` AND a.occurred_at >= $` + strconv.Itoa(len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		where += ` AND a.occurred_at < $` + strconv.Itoa(len(args))
	}

	const joins = ` FROM audit_logs a LEFT JOIN users u ON u.id = a.actor_id`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+joins+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT a.id, a.actor_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
		a.action, a.entity, a.entity_id, a.meta, a.occurred_at` + joins + where +
		` ORDER BY a.occurred_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e    Entry
			meta []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.ActorEmail,
			&e.Action, &e.Entity, &e.EntityID, &meta, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		if len(meta) > 0 {
			// Malformed meta should not sink the whole listing.
			_ = json.Unmarshal(meta, &e.Meta)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
