// Package query turns filter state into cached server list queries.
// Two modes serve the two list views: offset pages, where each page is
// independently cached and revalidated, and infinite accumulation,
// where successive pages concatenate under one growing cache entry with
// entity-level deduplication.
package query

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"txdash/internal/cache"
	"txdash/internal/filter"
)

// Mode selects how pages relate to cache keys.
type Mode int

const (
	// ModeOffset caches every page under its own key.
	ModeOffset Mode = iota
	// ModeInfinite accumulates all pages of one filter context under a
	// single key, deduplicated by entity identity.
	ModeInfinite
)

// DefaultLimit is the page size used when the caller passes none.
const DefaultLimit = 50

// Sort is the server-side ordering of a list query.
type Sort struct {
	Field string
	Dir   string
}

// DefaultSort orders by date, newest first, matching the server default.
var DefaultSort = Sort{Field: "date", Dir: "desc"}

// Query is one concrete server fetch: the filter state plus sort and
// pagination. Page is always explicit here; the advisory page parameter
// from a reloaded URL never reaches a Query.
type Query struct {
	Filters filter.Model
	Sort    Sort
	Page    int
	Limit   int
}

// FetchFunc performs the server round-trip for one Query. Errors
// wrapped with backoff.Permanent are not retried; everything else is
// retried a bounded number of times with exponential backoff.
type FetchFunc[T any] func(ctx context.Context, q Query) (cache.Result[T], error)

// Engine drives list fetches for one entity kind over a shared cache.
// The cache key is derived from the query before the fetch is issued,
// so a stale response landing after the user moved to a different
// filter state writes only into its own slot.
type Engine[T any] struct {
	kind     string
	mode     Mode
	identity func(T) string
	fetch    FetchFunc[T]
	store    *cache.Store[T]
	maxTries uint

	mu       sync.Mutex
	nextPage map[string]int // infinite mode: next page per key
}

// NewEngine returns an engine for one entity kind. identity maps an
// entity to its stable id for cross-page deduplication; it is only
// consulted in infinite mode but required in both.
func NewEngine[T any](kind string, mode Mode, identity func(T) string, fetch FetchFunc[T]) *Engine[T] {
	return &Engine[T]{
		kind:     kind,
		mode:     mode,
		identity: identity,
		fetch:    fetch,
		store:    cache.NewStore[T](),
		maxTries: 3,
		nextPage: make(map[string]int),
	}
}

// Store exposes the underlying cache so mutations can snapshot,
// optimistically rewrite, and invalidate the engine's entries.
func (e *Engine[T]) Store() *cache.Store[T] { return e.store }

// MatchKind reports whether a cache key belongs to this engine's
// entity kind. Mutations pass it to Store().Mutate so every cached
// query that could hold the affected entity is touched.
func (e *Engine[T]) MatchKind(key string) bool {
	return len(key) > len(e.kind) && key[:len(e.kind)+1] == e.kind+"?"
}

// Key is the canonical cache key for a query: the entity kind plus the
// sorted URL encoding of filters, sort, and limit. Offset mode includes
// the page; infinite mode deliberately excludes it so all pages of one
// filter context share a key.
func (e *Engine[T]) Key(q Query) string {
	params := filter.Serialize(q.Filters)
	params.Set("sort", q.Sort.Field)
	params.Set("dir", q.Sort.Dir)
	params.Set("limit", strconv.Itoa(q.Limit))
	if e.mode == ModeOffset {
		params.Set("page", strconv.Itoa(q.Page))
	}
	return e.kind + "?" + params.Encode()
}

// Load performs the initial fetch for a filter state. The page always
// starts at 1 regardless of any advisory page parameter the caller's
// URL carried; in infinite mode any previous accumulation for this
// filter context is discarded first.
func (e *Engine[T]) Load(ctx context.Context, f filter.Model, s Sort, limit int) (cache.Result[T], error) {
	q := e.normalize(Query{Filters: f, Sort: s, Page: 1, Limit: limit})
	if e.mode == ModeInfinite {
		key := e.Key(q)
		e.store.Invalidate(func(k string) bool { return k == key })
		e.mu.Lock()
		delete(e.nextPage, key)
		e.mu.Unlock()
	}
	return e.loadPage(ctx, q)
}

// Page fetches a specific page in offset mode, served from cache when
// already present.
func (e *Engine[T]) Page(ctx context.Context, f filter.Model, s Sort, limit, page int) (cache.Result[T], error) {
	q := e.normalize(Query{Filters: f, Sort: s, Page: page, Limit: limit})
	return e.loadPage(ctx, q)
}

// LoadMore fetches the next page in infinite mode and appends it to the
// accumulated result, dropping entities already present. A concurrent
// create or delete can shift page boundaries between fetches, so the
// same entity may legitimately arrive twice.
func (e *Engine[T]) LoadMore(ctx context.Context, f filter.Model, s Sort, limit int) (cache.Result[T], error) {
	q := e.normalize(Query{Filters: f, Sort: s, Limit: limit})
	key := e.Key(q)

	e.mu.Lock()
	q.Page = e.nextPage[key]
	e.mu.Unlock()
	if q.Page == 0 {
		q.Page = 1
	}

	fetched, err := e.fetchWithRetry(ctx, q)
	if err != nil {
		return cache.Result[T]{}, err
	}

	merged := fetched
	if prev, ok := e.store.Get(key); ok {
		merged = e.merge(prev, fetched)
	}
	e.store.Set(key, merged)

	e.mu.Lock()
	e.nextPage[key] = fetched.Meta.Page + 1
	e.mu.Unlock()
	return merged, nil
}

// HasMore reports whether the accumulated result for a filter context
// has pages left, based on the last fetched meta.
func (e *Engine[T]) HasMore(f filter.Model, s Sort, limit int) bool {
	q := e.normalize(Query{Filters: f, Sort: s, Limit: limit})
	res, ok := e.store.Get(e.Key(q))
	if !ok {
		return true
	}
	return res.Meta.Page < res.Meta.Pages
}

// Params returns the server query parameters for q, including the
// explicit page. This is the outbound wire form; the browser-facing URL
// uses filter.Serialize alone and never carries a page parameter.
func (e *Engine[T]) Params(q Query) url.Values {
	q = e.normalize(q)
	params := filter.Serialize(q.Filters)
	params.Set("sort", q.Sort.Field)
	params.Set("dir", q.Sort.Dir)
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("page", strconv.Itoa(q.Page))
	return params
}

func (e *Engine[T]) loadPage(ctx context.Context, q Query) (cache.Result[T], error) {
	key := e.Key(q)
	if res, ok := e.store.Get(key); ok {
		return res, nil
	}
	res, err := e.fetchWithRetry(ctx, q)
	if err != nil {
		return cache.Result[T]{}, err
	}
	e.store.Set(key, res)

	if e.mode == ModeInfinite {
		e.mu.Lock()
		e.nextPage[key] = res.Meta.Page + 1
		e.mu.Unlock()
	}
	return res, nil
}

func (e *Engine[T]) fetchWithRetry(ctx context.Context, q Query) (cache.Result[T], error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	return backoff.Retry(ctx, func() (cache.Result[T], error) {
		return e.fetch(ctx, q)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(e.maxTries))
}

func (e *Engine[T]) merge(prev, next cache.Result[T]) cache.Result[T] {
	seen := make(map[string]struct{}, len(prev.Data))
	for _, item := range prev.Data {
		seen[e.identity(item)] = struct{}{}
	}
	merged := prev
	for _, item := range next.Data {
		id := e.identity(item)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		merged.Data = append(merged.Data, item)
	}
	merged.Meta = next.Meta
	return merged
}

func (e *Engine[T]) normalize(q Query) Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Sort.Field == "" {
		q.Sort = DefaultSort
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}
