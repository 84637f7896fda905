package cache

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type row struct {
	ID     string
	Amount float64
}

func seeded() *Store[row] {
	s := NewStore[row]()
	s.Set("tx:p1", Result[row]{
		Data: []row{{ID: "a", Amount: 10}, {ID: "b", Amount: 20}},
		Meta: Meta{Total: 2, Page: 1, Limit: 50, Pages: 1},
	})
	s.Set("tx:p2", Result[row]{
		Data: []row{{ID: "c", Amount: 30}},
		Meta: Meta{Total: 1, Page: 2, Limit: 50, Pages: 1},
	})
	s.Set("audit:p1", Result[row]{
		Data: []row{{ID: "z", Amount: 99}},
		Meta: Meta{Total: 1, Page: 1, Limit: 50, Pages: 1},
	})
	return s
}

func matchTx(key string) bool { return strings.HasPrefix(key, "tx:") }

func TestStore_GetReturnsDetachedCopy(t *testing.T) {
	s := seeded()

	r, ok := s.Get("tx:p1")
	if !ok {
		t.Fatal("Get: missing entry")
	}
	r.Data[0].Amount = -1

	again, _ := s.Get("tx:p1")
	if again.Data[0].Amount != 10 {
		t.Error("mutating a Get result leaked into the store")
	}
}

func TestStore_MutateSuccessInvalidatesMatching(t *testing.T) {
	s := seeded()

	sawOptimistic := false
	err := s.Mutate(context.Background(), matchTx,
		func(r Result[row]) Result[row] {
			for i := range r.Data {
				if r.Data[i].ID == "a" {
					r.Data[i].Amount = 111
				}
			}
			return r
		},
		func(context.Context) error {
			// The optimistic write is visible while the call is in flight.
			r, ok := s.Get("tx:p1")
			sawOptimistic = ok && r.Data[0].Amount == 111
			return nil
		})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if !sawOptimistic {
		t.Error("optimistic write was not visible during the server call")
	}

	if _, ok := s.Get("tx:p1"); ok {
		t.Error("tx:p1 should be invalidated after success")
	}
	if _, ok := s.Get("tx:p2"); ok {
		t.Error("tx:p2 should be invalidated after success")
	}
	if _, ok := s.Get("audit:p1"); !ok {
		t.Error("non-matching entry must survive")
	}
}

func TestStore_MutateFailureRestoresVerbatim(t *testing.T) {
	s := seeded()
	before := s.Snapshot(func(string) bool { return true })

	wantErr := errors.New("boom")
	err := s.Mutate(context.Background(), matchTx,
		func(r Result[row]) Result[row] {
			r.Data = nil
			r.Meta.Total = 0
			return r
		},
		func(context.Context) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("Mutate = %v, want %v", err, wantErr)
	}

	after := s.Snapshot(func(string) bool { return true })
	if !reflect.DeepEqual(before, after) {
		t.Errorf("rollback diverged:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestStore_RollbackTouchesOnlySnapshottedKeys(t *testing.T) {
	s := seeded()

	err := s.Mutate(context.Background(), matchTx,
		func(r Result[row]) Result[row] { return r },
		func(context.Context) error {
			// An unrelated entry appears mid-flight; rollback must not
			// remove or rewrite it.
			s.Set("audit:p2", Result[row]{Data: []row{{ID: "y"}}, Meta: Meta{Total: 1, Page: 2, Limit: 50, Pages: 1}})
			return errors.New("boom")
		})
	if err == nil {
		t.Fatal("Mutate: expected error")
	}

	if _, ok := s.Get("audit:p2"); !ok {
		t.Error("entry created during the mutation was lost on rollback")
	}
}

func TestStore_RestoreIsIdempotent(t *testing.T) {
	s := seeded()
	snap := s.Snapshot(matchTx)

	s.Set("tx:p1", Result[row]{Data: []row{{ID: "x"}}, Meta: Meta{Total: 1, Page: 1, Limit: 50, Pages: 1}})
	s.Restore(snap)
	first := s.Snapshot(func(string) bool { return true })
	s.Restore(snap)
	second := s.Snapshot(func(string) bool { return true })

	if !reflect.DeepEqual(first, second) {
		t.Error("double restore changed the store")
	}
	r, _ := s.Get("tx:p1")
	if len(r.Data) != 2 || r.Data[0].ID != "a" {
		t.Errorf("tx:p1 after restore = %+v", r)
	}
}

func TestStore_IndependentMutations(t *testing.T) {
	s := seeded()

	// A failing mutation on the audit keys must not disturb a
	// successful one on the transaction keys.
	matchAudit := func(key string) bool { return strings.HasPrefix(key, "audit:") }

	if err := s.Mutate(context.Background(), matchTx,
		func(r Result[row]) Result[row] { return r },
		func(context.Context) error { return nil }); err != nil {
		t.Fatalf("tx mutation: %v", err)
	}
	if err := s.Mutate(context.Background(), matchAudit,
		func(r Result[row]) Result[row] { r.Data = nil; return r },
		func(context.Context) error { return errors.New("boom") }); err == nil {
		t.Fatal("audit mutation: expected error")
	}

	if _, ok := s.Get("tx:p1"); ok {
		t.Error("tx keys should stay invalidated")
	}
	r, ok := s.Get("audit:p1")
	if !ok || len(r.Data) != 1 || r.Data[0].ID != "z" {
		t.Errorf("audit:p1 = %+v, ok=%v; want restored original", r, ok)
	}
}

func TestStore_InvalidateAndKeys(t *testing.T) {
	s := seeded()
	s.Invalidate(matchTx)

	keys := s.Keys()
	if len(keys) != 1 || keys[0] != "audit:p1" {
		t.Errorf("Keys = %v, want [audit:p1]", keys)
	}
}
