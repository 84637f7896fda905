// Package preset keeps the saved-filter presets consistent with the
// live filter state: it tracks which preset is active, detects dirty
// divergence, and runs optimistic create/update/rename/delete against
// the shared cache with rollback on server rejection.
package preset

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"txdash/internal/cache"
	"txdash/internal/filter"
	"txdash/internal/preset/domain"
)

// cacheKey is the single key the preset collection lives under; the
// list is small and unpaginated.
const cacheKey = "presets"

// ErrNotDirty is returned by Update when the active preset's filters
// already equal the live filters.
var ErrNotDirty = errors.New("preset: active preset is not dirty")

// ErrNoActivePreset is returned by Update when no preset is tracked.
var ErrNoActivePreset = errors.New("preset: no active preset")

// ErrPresetNotFound is returned when an id does not resolve to a stored
// preset.
var ErrPresetNotFound = errors.New("preset: not found")

// API is the server surface the reconciler mutates through. Implemented
// by the API client.
type API interface {
	ListPresets(ctx context.Context) ([]domain.Preset, error)
	CreatePreset(ctx context.Context, name string, filters filter.Model) (domain.Preset, error)
	UpdatePreset(ctx context.Context, id, name string, filters filter.Model) (domain.Preset, error)
	DeletePreset(ctx context.Context, id string) error
}

// Reconciler owns the active-preset marker and the cached preset
// collection. The "last applied" marker protects the one URL round-trip
// that follows Apply: applying preset B briefly makes the live filters
// look like a divergence from B itself, and without the marker Sync
// would immediately drop back to custom mode.
type Reconciler struct {
	api   API
	store *cache.Store[domain.Preset]

	mu          sync.Mutex
	activeID    string
	lastApplied string
}

// NewReconciler returns a reconciler with an empty cache and no active
// preset.
func NewReconciler(api API) *Reconciler {
	return &Reconciler{api: api, store: cache.NewStore[domain.Preset]()}
}

// List returns the preset collection, served from cache when present.
func (r *Reconciler) List(ctx context.Context) ([]domain.Preset, error) {
	if res, ok := r.store.Get(cacheKey); ok {
		return res.Data, nil
	}
	presets, err := r.api.ListPresets(ctx)
	if err != nil {
		return nil, err
	}
	r.store.Set(cacheKey, cache.Result[domain.Preset]{
		Data: presets,
		Meta: cache.Meta{Total: len(presets), Page: 1, Limit: len(presets), Pages: 1},
	})
	return presets, nil
}

// ActiveID returns the tracked active preset's id, or "".
func (r *Reconciler) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// Active returns the tracked active preset, or nil when none is tracked
// or the tracked id no longer resolves.
func (r *Reconciler) Active(ctx context.Context) (*domain.Preset, error) {
	id := r.ActiveID()
	if id == "" {
		return nil, nil
	}
	presets, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range presets {
		if presets[i].ID == id {
			p := presets[i]
			return &p, nil
		}
	}
	return nil, nil
}

// IsDirty reports whether an active preset is tracked and the live
// filters diverge from its stored filters.
func (r *Reconciler) IsDirty(ctx context.Context, live filter.Model) (bool, error) {
	active, err := r.Active(ctx)
	if err != nil {
		return false, err
	}
	return active != nil && !filter.Equal(live, active.Filters), nil
}

// Sync reconciles the tracked preset with the live filters. With no
// tracked preset it auto-detects the first preset whose filters equal
// the live filters, in server-returned order. With a tracked preset it
// either confirms the match (consuming the last-applied marker) or
// clears the tracked id on divergence — except for the single
// divergence produced by a just-applied preset, which the marker
// absorbs.
func (r *Reconciler) Sync(ctx context.Context, live filter.Model) error {
	presets, err := r.List(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeID == "" {
		for i := range presets {
			if filter.Equal(live, presets[i].Filters) {
				r.activeID = presets[i].ID
				break
			}
		}
		return nil
	}

	var active *domain.Preset
	for i := range presets {
		if presets[i].ID == r.activeID {
			active = &presets[i]
			break
		}
	}
	if active == nil {
		r.activeID = ""
		r.lastApplied = ""
		return nil
	}

	if filter.Equal(live, active.Filters) {
		r.lastApplied = ""
		return nil
	}
	if r.lastApplied == r.activeID {
		// The divergence is the stale URL from before this preset's
		// apply landed; absorb it once.
		r.lastApplied = ""
		return nil
	}
	r.activeID = ""
	return nil
}

// Apply marks the preset active and returns the URL parameters encoding
// its filters. The caller pushes the parameters into the URL; the next
// Sync then sees matching filters (or one absorbed stale divergence).
func (r *Reconciler) Apply(p domain.Preset) url.Values {
	r.mu.Lock()
	r.activeID = p.ID
	r.lastApplied = p.ID
	r.mu.Unlock()
	return filter.Serialize(p.Filters)
}

// Save creates a new preset from the live filters, optimistically
// appended to the cached collection. When the active preset is dirty
// the save is a no-op (nil, nil): the caller is expected to offer
// Update instead. Rolls back the optimistic append on server rejection,
// including duplicate-name rejection.
func (r *Reconciler) Save(ctx context.Context, name string, live filter.Model) (*domain.Preset, error) {
	dirty, err := r.IsDirty(ctx, live)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, nil
	}

	var created domain.Preset
	err = r.store.Mutate(ctx, isPresetsKey,
		func(res cache.Result[domain.Preset]) cache.Result[domain.Preset] {
			res.Data = append(res.Data, domain.Preset{Name: name, Filters: live})
			res.Meta.Total = len(res.Data)
			return res
		},
		func(ctx context.Context) error {
			var callErr error
			created, callErr = r.api.CreatePreset(ctx, name, live)
			return callErr
		})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.activeID = created.ID
	r.lastApplied = ""
	r.mu.Unlock()
	return &created, nil
}

// Update replaces the active preset's filters with the live filters,
// optimistically in place. Only valid when a preset is tracked and
// dirty.
func (r *Reconciler) Update(ctx context.Context, live filter.Model) error {
	active, err := r.Active(ctx)
	if err != nil {
		return err
	}
	if active == nil {
		return ErrNoActivePreset
	}
	if filter.Equal(live, active.Filters) {
		return ErrNotDirty
	}

	return r.store.Mutate(ctx, isPresetsKey,
		rewrite(active.ID, func(p domain.Preset) domain.Preset {
			p.Filters = live
			return p
		}),
		func(ctx context.Context) error {
			_, callErr := r.api.UpdatePreset(ctx, active.ID, active.Name, live)
			return callErr
		})
}

// Rename changes a preset's name, preserving its filters. Rolls back on
// server rejection (duplicate names included).
func (r *Reconciler) Rename(ctx context.Context, id, newName string) error {
	presets, err := r.List(ctx)
	if err != nil {
		return err
	}
	var target *domain.Preset
	for i := range presets {
		if presets[i].ID == id {
			target = &presets[i]
			break
		}
	}
	if target == nil {
		return ErrPresetNotFound
	}

	return r.store.Mutate(ctx, isPresetsKey,
		rewrite(id, func(p domain.Preset) domain.Preset {
			p.Name = newName
			return p
		}),
		func(ctx context.Context) error {
			_, callErr := r.api.UpdatePreset(ctx, id, newName, target.Filters)
			return callErr
		})
}

// Delete removes a preset optimistically. Deleting the active preset
// clears the tracked id; rollback restores both the collection entry
// and the tracked id.
func (r *Reconciler) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	prevActive, prevMarker := r.activeID, r.lastApplied
	if r.activeID == id {
		r.activeID = ""
		r.lastApplied = ""
	}
	r.mu.Unlock()

	err := r.store.Mutate(ctx, isPresetsKey,
		func(res cache.Result[domain.Preset]) cache.Result[domain.Preset] {
			kept := res.Data[:0]
			for _, p := range res.Data {
				if p.ID != id {
					kept = append(kept, p)
				}
			}
			res.Data = kept
			res.Meta.Total = len(kept)
			return res
		},
		func(ctx context.Context) error {
			return r.api.DeletePreset(ctx, id)
		})
	if err != nil {
		r.mu.Lock()
		r.activeID, r.lastApplied = prevActive, prevMarker
		r.mu.Unlock()
	}
	return err
}

func isPresetsKey(key string) bool { return key == cacheKey }

func rewrite(id string, f func(domain.Preset) domain.Preset) func(cache.Result[domain.Preset]) cache.Result[domain.Preset] {
	return func(res cache.Result[domain.Preset]) cache.Result[domain.Preset] {
		for i := range res.Data {
			if res.Data[i].ID == id {
				res.Data[i] = f(res.Data[i])
			}
		}
		return res
	}
}
