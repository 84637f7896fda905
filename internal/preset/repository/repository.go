package repository

import (
	"context"
	"errors"

	"txdash/internal/preset/domain"
)

// ErrNotFound is returned when no preset matches the lookup.
var ErrNotFound = errors.New("preset: not found")

// ErrDuplicateName is returned when a user already has a preset with
// the requested name.
var ErrDuplicateName = errors.New("preset: duplicate name")

// Repository defines persistence for filter presets. All operations are
// scoped to the owning user.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Preset, error)
	Create(ctx context.Context, userID string, p *domain.Preset) error
	Update(ctx context.Context, userID string, p *domain.Preset) error
	Delete(ctx context.Context, userID, id string) error
}
