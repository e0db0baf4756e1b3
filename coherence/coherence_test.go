package coherence

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/catalog"
	"github.com/unkn0wn-root/menusync/provider/ttlcache"
	"github.com/unkn0wn-root/menusync/views"
)

type recorder struct {
	mu       sync.Mutex
	keys     []string
	patterns []string
	failKeys map[string]error
	failures int // fail this many Invalidate calls, then succeed
}

func (r *recorder) Invalidate(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	if err := r.failKeys[key]; err != nil {
		return err
	}
	if r.failures > 0 {
		r.failures--
		return errors.New("cache down")
	}
	return nil
}

func (r *recorder) DelPattern(_ context.Context, pattern string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
	return 0, nil
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

func sorted(xs []string) []string {
	out := append([]string(nil), xs...)
	sort.Strings(out)
	return out
}

func TestPlanCascadeTable(t *testing.T) {
	p := catalog.DishPath("m", "s", "d")
	cases := []struct {
		kind     catalog.Kind
		op       catalog.Op
		keys     []string
		patterns []string
	}{
		{catalog.KindMenu, catalog.OpCreate, []string{"all_nested", "list"}, nil},
		{catalog.KindMenu, catalog.OpUpdate, []string{"all_nested", "list", "obj:m"}, nil},
		{catalog.KindMenu, catalog.OpDelete, []string{"all_nested", "list"}, []string{"*m*"}},
		{catalog.KindSubmenu, catalog.OpCreate, []string{"all_nested", "list", "list:m", "obj:m"}, nil},
		{catalog.KindSubmenu, catalog.OpUpdate, []string{"all_nested", "list:m", "obj:m:s"}, nil},
		{catalog.KindSubmenu, catalog.OpDelete, []string{"all_nested", "list", "list:m", "obj:m"}, []string{"*s*"}},
		{catalog.KindDish, catalog.OpCreate, []string{"all_nested", "list", "list:m", "list:m:s", "obj:m", "obj:m:s"}, nil},
		{catalog.KindDish, catalog.OpUpdate, []string{"all_nested", "list:m:s", "obj:m:s:d"}, nil},
		{catalog.KindDish, catalog.OpDelete, []string{"all_nested", "list", "list:m", "list:m:s", "obj:m", "obj:m:s"}, []string{"*d*"}},
	}
	for _, tc := range cases {
		path := p
		switch tc.kind {
		case catalog.KindMenu:
			path = catalog.MenuPath("m")
		case catalog.KindSubmenu:
			path = catalog.SubmenuPath("m", "s")
		}
		plan := PlanFor(tc.kind, tc.op, path)
		if !reflect.DeepEqual(sorted(plan.Keys), sorted(tc.keys)) {
			t.Fatalf("%s %s keys = %v, want %v", tc.kind, tc.op, plan.Keys, tc.keys)
		}
		if !reflect.DeepEqual(sorted(plan.Patterns), sorted(tc.patterns)) {
			t.Fatalf("%s %s patterns = %v, want %v", tc.kind, tc.op, plan.Patterns, tc.patterns)
		}
	}
}

func TestManagerAttemptsEveryKey(t *testing.T) {
	boom := errors.New("boom")
	r := &recorder{failKeys: map[string]error{"list": boom}}
	hooks := &hookRecorder{}
	m := NewManager(r, nil, hooks)

	err := m.Invalidate(context.Background(), catalog.KindMenu, catalog.OpDelete, catalog.MenuPath("m"))
	var ierr *menusync.InvalidateError
	if !errors.As(err, &ierr) {
		t.Fatalf("want *InvalidateError, got %T %v", err, err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause not wrapped: %v", err)
	}
	if len(ierr.Keys) != 1 || ierr.Keys["list"] == nil {
		t.Fatalf("failed keys = %v", ierr.Keys)
	}
	if len(r.keys) != 2 || len(r.patterns) != 1 {
		t.Fatalf("not every op attempted: keys=%v patterns=%v", r.keys, r.patterns)
	}
	if len(hooks.failed) != 1 || hooks.failed[0] != "list" {
		t.Fatalf("hook calls = %v", hooks.failed)
	}
}

func TestDeleteClearsDescendantsAndDiscounts(t *testing.T) {
	ctx := context.Background()
	p := ttlcache.New(ttlcache.Config{})
	b, err := views.NewBackend(views.Options{Provider: p})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close(ctx)
	for _, k := range []string{"obj:m1:s1", "obj:m1:s1:d1", "list:m1:s1", "discount:m1:s1:d1", "obj:m2"} {
		if _, err := p.Set(ctx, k, []byte("x"), 0); err != nil {
			t.Fatal(err)
		}
	}
	m := NewManager(b, nil, nil)
	if err := m.Invalidate(ctx, catalog.KindMenu, catalog.OpDelete, catalog.MenuPath("m1")); err != nil {
		t.Fatal(err)
	}
	if got := p.Keys(); !reflect.DeepEqual(got, []string{"obj:m2"}) {
		t.Fatalf("remaining keys = %v", got)
	}
}

func TestDeferredRetriesUntilSuccess(t *testing.T) {
	r := &recorder{failures: 2}
	hooks := &hookRecorder{}
	d := NewDeferred(NewManager(r, nil, nil), DeferredConfig{Workers: 1, Backoff: time.Millisecond, Hooks: hooks})
	defer d.Close(context.Background())

	d.Submit(catalog.KindMenu, catalog.OpCreate, catalog.MenuPath("m"))
	d.Wait()

	// menu create plan has 2 keys; first two calls fail across two attempts
	if hooks.retries() == 0 {
		t.Fatalf("expected at least one retry")
	}
	if r.calls() < 4 {
		t.Fatalf("expected a successful full attempt, calls=%d", r.calls())
	}
}

func TestDeferredGivesUpAfterMaxAttempts(t *testing.T) {
	r := &recorder{failKeys: map[string]error{"list": errors.New("down")}}
	d := NewDeferred(NewManager(r, nil, nil), DeferredConfig{MaxAttempts: 3, Backoff: time.Millisecond})
	defer d.Close(context.Background())

	d.Submit(catalog.KindMenu, catalog.OpCreate, catalog.MenuPath("m"))
	d.Wait()
	if got := r.calls(); got != 6 {
		t.Fatalf("calls = %d, want 3 attempts x 2 keys", got)
	}
}

func TestDeferredRunsInlineAfterClose(t *testing.T) {
	r := &recorder{}
	d := NewDeferred(NewManager(r, nil, nil), DeferredConfig{})
	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.Submit(catalog.KindDish, catalog.OpUpdate, catalog.DishPath("m", "s", "d"))
	if got := r.calls(); got != 3 {
		t.Fatalf("inline calls = %d, want 3", got)
	}
}

type hookRecorder struct {
	menusync.NopHooks
	mu      sync.Mutex
	failed  []string
	retried int
}

func (h *hookRecorder) InvalidationFailed(key string, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed = append(h.failed, key)
}

func (h *hookRecorder) DeferredRetry(int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retried++
}

func (h *hookRecorder) retries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retried
}
