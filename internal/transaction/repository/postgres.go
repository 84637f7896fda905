package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"txdash/internal/transaction/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a transaction repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// sortColumns whitelists client sort fields to real columns. Anything
// else falls back to date.
var sortColumns = map[string]string{
	"transactionId": "transaction_id",
	"userName":      "user_name",
	"amount":        "amount",
	"date":          "date",
}

const txColumns = `id, transaction_id, user_name, status, amount, to_char(date, 'YYYY-MM-DD')`

// GetByID returns the transaction for id, or ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	var t domain.Transaction
	if err := row.Scan(&t.ID, &t.TransactionID, &t.UserName, &t.Status, &t.Amount, &t.Date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns one filtered page plus the total match count. The WHERE
// clause is built from whichever filters are present; search matches
// transaction id or user name, case-insensitively.
func (r *PostgresRepository) List(ctx context.Context, q ListQuery) ([]domain.Transaction, int64, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	f := q.Filters
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(transaction_id ILIKE %s OR user_name ILIKE %s)", p, p))
	}
	if len(f.Status) > 0 {
		placeholders := make([]string, len(f.Status))
		for i, s := range f.Status {
			placeholders[i] = arg(string(s))
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.From != "" {
		conds = append(conds, "date >= "+arg(f.From))
	}
	if f.To != "" {
		conds = append(conds, "date <= "+arg(f.To))
	}
	if f.MinAmount != nil {
		conds = append(conds, "amount >= "+arg(*f.MinAmount))
	}
	if f.MaxAmount != nil {
		conds = append(conds, "amount <= "+arg(*f.MaxAmount))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[q.Sort]
	if !ok {
		col = "date"
	}
	dir := "DESC"
	if strings.EqualFold(q.Dir, "asc") {
		dir = "ASC"
	}
	offset := (q.Page - 1) * q.Limit
	listSQL := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY %s %s, id %s LIMIT %s OFFSET %s`,
		txColumns, where, col, dir, dir, arg(q.Limit), arg(offset))

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.TransactionID, &t.UserName, &t.Status, &t.Amount, &t.Date); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create persists a new transaction. The transaction must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, transaction_id, user_name, status, amount, date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.TransactionID, t.UserName, string(t.Status), t.Amount, t.Date,
	)
	return err
}

// Update replaces the mutable fields of a transaction by id.
func (r *PostgresRepository) Update(ctx context.Context, t *domain.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET transaction_id = $2, user_name = $3, status = $4, amount = $5, date = $6
		WHERE id = $1`,
		t.ID, t.TransactionID, t.UserName, string(t.Status), t.Amount, t.Date,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Delete removes a transaction by id, or returns ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
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
