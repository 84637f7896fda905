package apiclient

import (
	"context"
	"net/http"

	"txdash/internal/filter"
	presetdomain "txdash/internal/preset/domain"
)

type presetBody struct {
	Name    string       `json:"name"`
	Filters filter.Model `json:"filters"`
}

// ListPresets fetches the caller's saved presets.
func (c *Client) ListPresets(ctx context.Context) ([]presetdomain.Preset, error) {
	var out struct {
		Data []presetdomain.Preset `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/presets", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreatePreset saves a new preset. The server rejects duplicate names
// with a 409.
func (c *Client) CreatePreset(ctx context.Context, name string, filters filter.Model) (presetdomain.Preset, error) {
	var out presetdomain.Preset
	err := c.do(ctx, http.MethodPost, "/api/presets", nil, presetBody{Name: name, Filters: filters}, &out)
	return out, err
}

// UpdatePreset replaces a preset's name and filters.
func (c *Client) UpdatePreset(ctx context.Context, id, name string, filters filter.Model) (presetdomain.Preset, error) {
	var out presetdomain.Preset
	err := c.do(ctx, http.MethodPut, "/api/presets/"+id, nil, presetBody{Name: name, Filters: filters}, &out)
	return out, err
}

// DeletePreset removes a preset by id.
func (c *Client) DeletePreset(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/presets/"+id, nil, nil, nil)
}
