package idempotency_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"streakd/internal/platform/clock"
	"streakd/internal/platform/idempotency"
)

type created struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newClock() *clock.Manual {
	return &clock.Manual{T: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestGuardReplaysWithinTTLAndRunsOnce(t *testing.T) {
	t.Parallel()
	clk := newClock()
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(clk), 5*time.Minute, clk, nil)
	calls := 0
	create := func(context.Context) (any, error) {
		calls++
		return created{ID: "s-1", Title: "Read <daily>"}, nil
	}

	first, err := guard.Do(context.Background(), "u1", "key-1", create)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	clk.Advance(4 * time.Minute)
	second, err := guard.Do(context.Background(), "u1", "key-1", create)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one creation, got %d", calls)
	}
	if first.Replayed || !second.Replayed {
		t.Fatalf("unexpected replay flags: %v %v", first.Replayed, second.Replayed)
	}
	if string(first.Payload) != string(second.Payload) {
		t.Fatalf("payloads differ: %s vs %s", first.Payload, second.Payload)
	}
}

func TestGuardExpiresAndScopesByUser(t *testing.T) {
	t.Parallel()
	clk := newClock()
	store := idempotency.NewMemoryStore(clk)
	guard := idempotency.NewGuard(store, 5*time.Minute, clk, nil)
	calls := 0
	create := func(context.Context) (any, error) {
		calls++
		return created{ID: "s"}, nil
	}
	ctx := context.Background()
	if _, err := guard.Do(ctx, "u1", "k", create); err != nil {
		t.Fatalf("u1: %v", err)
	}
	if _, err := guard.Do(ctx, "u2", "k", create); err != nil {
		t.Fatalf("u2: %v", err)
	}
	if calls != 2 {
		t.Fatalf("keys must be scoped per user, got %d calls", calls)
	}

	clk.Advance(5 * time.Minute)
	if removed := store.Sweep(); removed != 2 {
		t.Fatalf("expected sweep to evict 2 entries, got %d", removed)
	}
	if _, err := guard.Do(ctx, "u1", "k", create); err != nil {
		t.Fatalf("after expiry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected creation to rerun after ttl, got %d", calls)
	}
}

func TestGuardDoesNotCacheFailuresOrBlankKeys(t *testing.T) {
	t.Parallel()
	clk := newClock()
	store := idempotency.NewMemoryStore(clk)
	guard := idempotency.NewGuard(store, time.Minute, clk, nil)
	boom := errors.New("boom")
	if _, err := guard.Do(context.Background(), "u1", "k", func(context.Context) (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected creation error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("failed creation must not be cached")
	}
	calls := 0
	for i := 0; i < 2; i++ {
		if _, err := guard.Do(context.Background(), "u1", "  ", func(context.Context) (any, error) {
			calls++
			return created{}, nil
		}); err != nil {
			t.Fatalf("blank key: %v", err)
		}
	}
	if calls != 2 || store.Len() != 0 {
		t.Fatalf("blank key must bypass the cache, calls=%d len=%d", calls, store.Len())
	}
}

func TestGuardCollapsesConcurrentCallers(t *testing.T) {
	t.Parallel()
	clk := newClock()
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(clk), time.Minute, clk, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	create := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return created{ID: "s-1"}, nil
	}

	var wg sync.WaitGroup
	results := make([]idempotency.Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := guard.Do(context.Background(), "u1", "same", create)
			if err != nil {
				t.Errorf("call %d: %v", i, err)
			}
			results[i] = res
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected concurrent callers to share one creation, got %d", got)
	}
	for _, res := range results {
		if string(res.Payload) != string(results[0].Payload) {
			t.Fatalf("payload mismatch: %s vs %s", res.Payload, results[0].Payload)
		}
	}
}

func TestGuardSurvivesCancelledLeader(t *testing.T) {
	t.Parallel()
	clk := newClock()
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(clk), 5*time.Minute, clk, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	create := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return created{ID: "s-9", Title: "Write"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := guard.Do(leaderCtx, "u1", "key-9", create)
		leaderErr <- err
	}()
	<-started

	type outcome struct {
		res idempotency.Result
		err error
	}
	follower := make(chan outcome, 1)
	go func() {
		res, err := guard.Do(context.Background(), "u1", "key-9", create)
		follower <- outcome{res: res, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader should see its own cancellation, got %v", err)
	}
	close(release)

	got := <-follower
	if got.err != nil {
		t.Fatalf("follower must not inherit the leader's cancellation: %v", got.err)
	}
	if string(got.res.Payload) != `{"id":"s-9","title":"Write"}` {
		t.Fatalf("unexpected payload: %s", got.res.Payload)
	}
	replay, err := guard.Do(context.Background(), "u1", "key-9", create)
	if err != nil || !replay.Replayed {
		t.Fatalf("expected cached replay, got %+v %v", replay, err)
	}
}

func TestRedisStoreSharesEntries(t *testing.T) {
	t.Parallel()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	clk := newClock()
	store := idempotency.NewRedisStore(client, "")
	instanceA := idempotency.NewGuard(store, 5*time.Minute, clk, nil)
	instanceB := idempotency.NewGuard(store, 5*time.Minute, clk, nil)
	calls := 0
	create := func(context.Context) (any, error) {
		calls++
		return created{ID: "s-1", Title: "a&b"}, nil
	}
	first, err := instanceA.Do(context.Background(), "u1", "k", create)
	if err != nil {
		t.Fatalf("instance a: %v", err)
	}
	second, err := instanceB.Do(context.Background(), "u1", "k", create)
	if err != nil {
		t.Fatalf("instance b: %v", err)
	}
	if calls != 1 || !second.Replayed || string(first.Payload) != string(second.Payload) {
		t.Fatalf("expected shared replay, calls=%d replayed=%v", calls, second.Replayed)
	}
	if ttl := srv.TTL("streakd:idem:2:u1:k"); ttl != 5*time.Minute {
		t.Fatalf("expected redis ttl of 5m, got %s", ttl)
	}
}
