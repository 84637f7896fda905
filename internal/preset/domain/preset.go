package domain

import (
	"errors"
	"strings"

	"txdash/internal/filter"
)

// Preset is a named, saved filter model a user can reapply. Identity is
// ID; name uniqueness is enforced server-side, not here.
type Preset struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Filters   filter.Model `json:"filters"`
	CreatedAt int64        `json:"createdAt"` // epoch ms
}

// Validate checks the fields a create/update request must carry.
func (p Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("preset: name is required")
	}
	return nil
}
