package query

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v5"

	"txdash/internal/cache"
	"txdash/internal/filter"
)

type row struct {
	ID string
}

func rowID(r row) string { return r.ID }

// pagedFetch serves a fixed dataset page by page and records every
// query it sees.
type pagedFetch struct {
	mu    sync.Mutex
	rows  []row
	calls []Query
}

func (f *pagedFetch) fetch(_ context.Context, q Query) (cache.Result[row], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)

	start := (q.Page - 1) * q.Limit
	end := start + q.Limit
	if start > len(f.rows) {
		start = len(f.rows)
	}
	if end > len(f.rows) {
		end = len(f.rows)
	}
	pages := (len(f.rows) + q.Limit - 1) / q.Limit
	return cache.Result[row]{
		Data: append([]row(nil), f.rows[start:end]...),
		Meta: cache.Meta{Total: len(f.rows), Page: q.Page, Limit: q.Limit, Pages: pages},
	}, nil
}

func (f *pagedFetch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func rowsN(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: fmt.Sprintf("r-%02d", i)}
	}
	return out
}

func TestEngine_OffsetPagesAreIndependentlyCached(t *testing.T) {
	f := &pagedFetch{rows: rowsN(5)}
	e := NewEngine("tx", ModeOffset, rowID, f.fetch)
	ctx := context.Background()
	fm := filter.Model{Search: "a"}

	p1, err := e.Load(ctx, fm, DefaultSort, 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p1.Data) != 2 || p1.Data[0].ID != "r-00" {
		t.Fatalf("page 1 = %+v", p1.Data)
	}

	p2, err := e.Page(ctx, fm, DefaultSort, 2, 2)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(p2.Data) != 2 || p2.Data[0].ID != "r-02" {
		t.Fatalf("page 2 = %+v", p2.Data)
	}

	// Revisiting both pages is served from cache.
	if _, err := e.Page(ctx, fm, DefaultSort, 2, 1); err != nil {
		t.Fatalf("Page 1 again: %v", err)
	}
	if _, err := e.Page(ctx, fm, DefaultSort, 2, 2); err != nil {
		t.Fatalf("Page 2 again: %v", err)
	}
	if got := f.callCount(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestEngine_InitialLoadForcesPageOne(t *testing.T) {
	// A reloaded URL like /transactions?page=2&limit=50 carries an
	// advisory page parameter: the codec drops it, the initial load
	// issues {page:1, limit:50}, and the canonical URL never contains
	// page=.
	f := &pagedFetch{rows: rowsN(5)}
	e := NewEngine("tx", ModeOffset, rowID, f.fetch)

	params, err := url.ParseQuery("page=2&limit=50")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	fm := filter.Parse(params)
	if _, err := e.Load(context.Background(), fm, DefaultSort, 50); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := f.calls[0]; got.Page != 1 || got.Limit != 50 {
		t.Errorf("fetch query = page %d limit %d, want page 1 limit 50", got.Page, got.Limit)
	}
	if encoded := filter.Serialize(fm).Encode(); strings.Contains(encoded, "page=") {
		t.Errorf("canonical URL %q must not contain page=", encoded)
	}
}

func TestEngine_InfiniteAccumulatesAndDeduplicates(t *testing.T) {
	f := &pagedFetch{rows: rowsN(5)}
	e := NewEngine("audit", ModeInfinite, rowID, f.fetch)
	ctx := context.Background()
	fm := filter.Model{}

	first, err := e.Load(ctx, fm, DefaultSort, 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(first.Data) != 2 {
		t.Fatalf("first load = %+v", first.Data)
	}

	// A concurrent delete shifts page boundaries: page 2 now re-serves
	// an entity from page 1.
	f.mu.Lock()
	f.rows = append([]row{f.rows[0]}, f.rows[2:]...) // drop r-01
	f.mu.Unlock()

	second, err := e.LoadMore(ctx, fm, DefaultSort, 2)
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}

	ids := make([]string, len(second.Data))
	seen := make(map[string]bool)
	for i, r := range second.Data {
		ids[i] = r.ID
		if seen[r.ID] {
			t.Fatalf("duplicate id %s in accumulation %v", r.ID, ids)
		}
		seen[r.ID] = true
	}
	if len(second.Data) != 4 {
		t.Errorf("accumulated %v, want 4 distinct rows", ids)
	}
}

func TestEngine_HasMore(t *testing.T) {
	f := &pagedFetch{rows: rowsN(5)}
	e := NewEngine("audit", ModeInfinite, rowID, f.fetch)
	ctx := context.Background()
	fm := filter.Model{}

	if !e.HasMore(fm, DefaultSort, 2) {
		t.Error("HasMore before any load should be true")
	}
	if _, err := e.Load(ctx, fm, DefaultSort, 2); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !e.HasMore(fm, DefaultSort, 2) {
		t.Error("HasMore after page 1 of 3 should be true")
	}
	if _, err := e.LoadMore(ctx, fm, DefaultSort, 2); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if _, err := e.LoadMore(ctx, fm, DefaultSort, 2); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if e.HasMore(fm, DefaultSort, 2) {
		t.Error("HasMore after the last page should be false")
	}
}

func TestEngine_LoadResetsAccumulation(t *testing.T) {
	f := &pagedFetch{rows: rowsN(4)}
	e := NewEngine("audit", ModeInfinite, rowID, f.fetch)
	ctx := context.Background()
	fm := filter.Model{}

	if _, err := e.Load(ctx, fm, DefaultSort, 2); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := e.LoadMore(ctx, fm, DefaultSort, 2); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}

	reset, err := e.Load(ctx, fm, DefaultSort, 2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reset.Data) != 2 {
		t.Errorf("reload kept %d rows, want accumulation discarded to 2", len(reset.Data))
	}
	if got := f.calls[len(f.calls)-1]; got.Page != 1 {
		t.Errorf("reload fetched page %d, want 1", got.Page)
	}
}

func TestEngine_FilterChangeUsesSeparateKey(t *testing.T) {
	f := &pagedFetch{rows: rowsN(4)}
	e := NewEngine("tx", ModeOffset, rowID, f.fetch)

	a := Query{Filters: filter.Model{Search: "a"}, Sort: DefaultSort, Page: 1, Limit: 2}
	b := Query{Filters: filter.Model{Search: "b"}, Sort: DefaultSort, Page: 1, Limit: 2}
	if e.Key(a) == e.Key(b) {
		t.Error("different filters must produce different keys")
	}

	// A page-size change is a different key too.
	c := a
	c.Limit = 10
	if e.Key(a) == e.Key(c) {
		t.Error("different limits must produce different keys")
	}
}

func TestEngine_StaleFetchWritesOnlyItsOwnKey(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	slow := func(ctx context.Context, q Query) (cache.Result[row], error) {
		if q.Filters.Search == "a" {
			close(started)
			<-release
			return cache.Result[row]{Data: []row{{ID: "stale"}}, Meta: cache.Meta{Total: 1, Page: 1, Limit: 2, Pages: 1}}, nil
		}
		return cache.Result[row]{Data: []row{{ID: "fresh"}}, Meta: cache.Meta{Total: 1, Page: 1, Limit: 2, Pages: 1}}, nil
	}
	e := NewEngine("tx", ModeOffset, rowID, slow)
	ctx := context.Background()

	fmA := filter.Model{Search: "a"}
	fmB := filter.Model{Search: "b"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Load(ctx, fmA, DefaultSort, 2)
	}()
	<-started

	// The user has moved on to filter state B before A resolves.
	if _, err := e.Load(ctx, fmB, DefaultSort, 2); err != nil {
		t.Fatalf("Load B: %v", err)
	}
	close(release)
	<-done

	keyA := e.Key(Query{Filters: fmA, Sort: DefaultSort, Page: 1, Limit: 2})
	keyB := e.Key(Query{Filters: fmB, Sort: DefaultSort, Page: 1, Limit: 2})

	resB, ok := e.Store().Get(keyB)
	if !ok || resB.Data[0].ID != "fresh" {
		t.Errorf("B slot = %+v, ok=%v; stale resolution corrupted it", resB, ok)
	}
	resA, ok := e.Store().Get(keyA)
	if !ok || resA.Data[0].ID != "stale" {
		t.Errorf("A slot = %+v, ok=%v; want the stale result in its own slot", resA, ok)
	}
}

func TestEngine_RetriesTransientErrors(t *testing.T) {
	var calls int
	flaky := func(ctx context.Context, q Query) (cache.Result[row], error) {
		calls++
		if calls < 3 {
			return cache.Result[row]{}, errors.New("connection reset")
		}
		return cache.Result[row]{Data: []row{{ID: "ok"}}, Meta: cache.Meta{Total: 1, Page: 1, Limit: 50, Pages: 1}}, nil
	}
	e := NewEngine("tx", ModeOffset, rowID, flaky)

	res, err := e.Load(context.Background(), filter.Model{}, DefaultSort, 50)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if res.Data[0].ID != "ok" {
		t.Errorf("res = %+v", res.Data)
	}
}

func TestEngine_PermanentErrorsAreNotRetried(t *testing.T) {
	var calls int
	rejected := errors.New("unauthorized")
	fetch := func(ctx context.Context, q Query) (cache.Result[row], error) {
		calls++
		return cache.Result[row]{}, backoff.Permanent(rejected)
	}
	e := NewEngine("tx", ModeOffset, rowID, fetch)

	_, err := e.Load(context.Background(), filter.Model{}, DefaultSort, 50)
	if !errors.Is(err, rejected) {
		t.Fatalf("Load = %v, want %v", err, rejected)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
