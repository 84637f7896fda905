package repository

import (
	"context"
	"errors"

	"txdash/internal/filter"
	"txdash/internal/transaction/domain"
)

// ErrNotFound is returned when no transaction matches the lookup.
var ErrNotFound = errors.New("transaction: not found")

// ListQuery is one paginated, filtered, sorted list request. Page and
// Limit are already clamped by the handler.
type ListQuery struct {
	Filters filter.Model
	Sort    string
	Dir     string
	Page    int
	Limit   int
}

// Repository defines persistence for transactions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, q ListQuery) ([]domain.Transaction, int64, error)
	Create(ctx context.Context, t *domain.Transaction) error
	Update(ctx context.Context, t *domain.Transaction) error
	Delete(ctx context.Context, id string) error
}
