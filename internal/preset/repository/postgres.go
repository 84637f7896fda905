package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"txdash/internal/preset/domain"
)

// uniqueViolation is the Postgres error code for a unique constraint
// violation; it maps to ErrDuplicateName on (user_id, name).
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a preset repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByUser returns the user's presets in creation order.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]domain.Preset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, filters, created_at
		FROM filter_presets
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Preset
	for rows.Next() {
		var p domain.Preset
		var filtersJSON []byte
		var createdAt time.Time
		if err := rows.Scan(&p.ID, &p.Name, &filtersJSON, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(filtersJSON, &p.Filters); err != nil {
			return nil, fmt.Errorf("decode preset %s filters: %w", p.ID, err)
		}
		p.CreatedAt = createdAt.UnixMilli()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create persists a new preset for the user. The preset must have ID
// set; CreatedAt is filled in from the insert time.
func (r *PostgresRepository) Create(ctx context.Context, userID string, p *domain.Preset) error {
	filtersJSON, err := json.Marshal(p.Filters)
	if err != nil {
		return err
	}
	var createdAt time.Time
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO filter_presets (id, user_id, name, filters)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		p.ID, userID, p.Name, filtersJSON,
	).Scan(&createdAt)
	if err != nil {
		return mapConstraint(err)
	}
	p.CreatedAt = createdAt.UnixMilli()
	return nil
}

// Update replaces a preset's name and filters, scoped to the user.
func (r *PostgresRepository) Update(ctx context.Context, userID string, p *domain.Preset) error {
	filtersJSON, err := json.Marshal(p.Filters)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE filter_presets
		SET name = $3, filters = $4
		WHERE id = $1 AND user_id = $2`,
		p.ID, userID, p.Name, filtersJSON,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return checkAffected(res)
}

// Delete removes a preset by id, scoped to the user.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM filter_presets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateName
	}
	return err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
