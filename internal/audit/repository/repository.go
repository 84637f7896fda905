package repository

import (
	"context"

	"txdash/internal/audit/domain"
)

// ListQuery narrows and pages the audit trail. Zero-value fields filter
// nothing; From and To are inclusive YYYY-MM-DD bounds on created_at.
type ListQuery struct {
	Search string
	Action string
	From   string
	To     string
	Limit  int32
	Offset int32
}

// Repository defines persistence for audit entries.
type Repository interface {
	Create(ctx context.Context, e *domain.Entry) error
	// List returns one page of entries, newest first, plus the total
	// count across all pages of the same query.
	List(ctx context.Context, q ListQuery) ([]domain.Entry, int64, error)
}
