package finance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"organizapay/internal/core"
)

func TestRegistrySharesControllerPerUser(t *testing.T) {
	store := newHookStore()
	r := NewRegistry(store, 10, time.Minute, nil)
	defer r.Close()

	var wg sync.WaitGroup
	got := make([]*Controller, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Get(context.Background(), testUser)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			got[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range got[1:] {
		if c != got[0] {
			t.Fatal("expected one controller per user")
		}
	}
	if n := store.incomeLists.Load(); n != 1 {
		t.Fatalf("expected a single initial load, got %d", n)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestRegistryReleaseClosesController(t *testing.T) {
	r := NewRegistry(newHookStore(), 10, time.Minute, nil)
	defer r.Close()

	c, err := r.Get(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	r.Release(testUser.ID)

	if _, err := c.AddIncome(context.Background(), income(100)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected released controller to be closed, got %v", err)
	}
	again, err := r.Get(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again == c {
		t.Fatal("expected a fresh controller after release")
	}
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(newHookStore(), 1, time.Minute, nil)
	defer r.Close()

	first, err := r.Get(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := r.Get(context.Background(), core.User{ID: "user-2"}); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := first.LoadAll(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("evicted controller should be closed, got %v", err)
	}
}

func TestRegistryDoesNotCacheFailedLoad(t *testing.T) {
	store := newHookStore()
	store.listGoals = func(context.Context, string) ([]core.Goal, error) { return nil, errors.New("down") }
	r := NewRegistry(store, 10, time.Minute, nil)
	defer r.Close()

	if _, err := r.Get(context.Background(), testUser); !IsKind(err, KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("failed controller cached")
	}
}

func TestRegistryLoadOutlivesCallerContext(t *testing.T) {
	store := newHookStore()
	store.listGoals = func(ctx context.Context, userID string) ([]core.Goal, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return store.Store.ListGoals(ctx, userID)
	}
	r := NewRegistry(store, 10, time.Minute, nil)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := r.Get(ctx, testUser)
	if err != nil {
		t.Fatalf("Get with cancelled caller: %v", err)
	}
	if _, ok := c.User(); !ok || r.Len() != 1 {
		t.Fatalf("controller not cached after shared load")
	}
}
