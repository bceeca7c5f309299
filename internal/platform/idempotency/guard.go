package idempotency

import (
	"context"
	"fmt"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"

	"streakd/internal/platform/canonjson"
	"streakd/internal/platform/clock"
	"streakd/internal/platform/logging"
)

const DefaultTTL = 5 * time.Minute

// Result is the canonical response of a guarded call.
type Result struct {
	Payload  []byte
	Replayed bool
}

// Guard deduplicates retried creation requests keyed by (user, key).
//
// The cache is populated only after the creation succeeds. Concurrent calls
// with the same key are collapsed inside one process; calls racing across
// processes that share a Store can still both run.
type Guard struct {
	store  Store
	ttl    time.Duration
	clock  clock.Clock
	group  singleflight.Group
	logger hclog.Logger
}

func NewGuard(store Store, ttl time.Duration, clk clock.Clock, logger hclog.Logger) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{store: store, ttl: ttl, clock: clk, logger: logging.OrDiscard(logger).Named("idempotency")}
}

// Do returns the cached payload for (userID, key) when one is live, and
// otherwise runs create and caches its canonical JSON encoding. An empty key
// disables caching.
func (g *Guard) Do(ctx context.Context, userID, key string, create func(context.Context) (any, error)) (Result, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		payload, err := g.run(ctx, create)
		if err != nil {
			return Result{}, err
		}
		return Result{Payload: payload}, nil
	}
	cacheKey := scopedKey(userID, key)

	if cached, ok := g.lookup(ctx, cacheKey); ok {
		g.logger.Debug("replaying cached response", "user", userID, "key", key)
		return Result{Payload: cached, Replayed: true}, nil
	}

	type flight struct {
		payload  []byte
		replayed bool
	}
	// A cancelled caller stops waiting; the creation keeps running for the rest.
	flightCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(cacheKey, func() (any, error) {
		if cached, ok := g.lookup(flightCtx, cacheKey); ok {
			return flight{payload: cached, replayed: true}, nil
		}
		payload, err := g.run(flightCtx, create)
		if err != nil {
			return nil, err
		}
		entry := Entry{StoredAt: g.clock.Now(), Response: payload}
		if err := g.store.Put(flightCtx, cacheKey, entry, g.ttl); err != nil {
			g.logger.Warn("cache creation response failed", "user", userID, "key", key, "error", err)
		}
		return flight{payload: payload}, nil
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		f := res.Val.(flight)
		return Result{Payload: f.payload, Replayed: f.replayed}, nil
	}
}

func (g *Guard) lookup(ctx context.Context, cacheKey string) ([]byte, bool) {
	entry, ok, err := g.store.Get(ctx, cacheKey)
	if err != nil {
		g.logger.Warn("idempotency lookup failed", "error", err)
		return nil, false
	}
	if !ok || !g.clock.Now().Before(entry.StoredAt.Add(g.ttl)) {
		return nil, false
	}
	return entry.Response, true
}

func (g *Guard) run(ctx context.Context, create func(context.Context) (any, error)) ([]byte, error) {
	out, err := create(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := canonjson.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode creation response: %w", err)
	}
	return payload, nil
}

func scopedKey(userID, key string) string {
	return fmt.Sprintf("%d:%s:%s", len(userID), userID, key)
}
