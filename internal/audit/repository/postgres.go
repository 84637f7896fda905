package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"txdash/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists one audit entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor, role, action, entity_id, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Actor, string(e.Role), e.Action, nullString(e.EntityID), nullString(e.Meta), e.CreatedAt,
	)
	return err
}

// List returns one filtered page, newest first, plus the total match
// count. Search matches actor or action, case-insensitively.
func (r *PostgresRepository) List(ctx context.Context, q ListQuery) ([]domain.Entry, int64, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		conds = append(conds, fmt.Sprintf("(actor ILIKE %s OR action ILIKE %s)", p, p))
	}
	if q.Action != "" {
		conds = append(conds, "action = "+arg(q.Action))
	}
	if q.From != "" {
		conds = append(conds, "created_at::date >= "+arg(q.From))
	}
	if q.To != "" {
		conds = append(conds, "created_at::date <= "+arg(q.To))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor, role, action, entity_id, meta, created_at
		FROM audit_logs`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT `+arg(q.Limit)+` OFFSET `+arg(q.Offset), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		var e domain.Entry
		var entityID, meta sql.NullString
		if err := rows.Scan(&e.ID, &e.Actor, &e.Role, &e.Action, &entityID, &meta, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.EntityID = entityID.String
		e.Meta = meta.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
