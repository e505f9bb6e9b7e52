// Package ratelimit provides token-bucket limiters built on golang.org/x/time/rate:
// a single limiter for a collaborator and a keyed limiter with one bucket per key.
// Instances are created explicitly and passed to their users; nothing here is global.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/releasewatch/internal/errors"
)

// Limiter is what callers wait on before a rate-limited operation.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

// Unlimited never blocks.
type Unlimited struct{}

// Wait returns immediately unless ctx is already done.
func (Unlimited) Wait(ctx context.Context, _ string) error {
	return ctx.Err()
}

// Keyed keeps one token bucket per key, for example per target id, so repeated
// checks of one key are spaced out while distinct keys never wait on each other.
type Keyed struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewKeyed creates a keyed limiter allowing one event per interval per key with
// the given burst. A non-positive interval disables limiting.
func NewKeyed(interval time.Duration, burst int) *Keyed {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if burst <= 0 {
		burst = 1
	}

	idleTTL := 10 * interval
	if idleTTL < time.Hour {
		idleTTL = time.Hour
	}

	return &Keyed{
		limiters: make(map[string]*entry),
		limit:    limit,
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Wait blocks until key's bucket yields a token. It fails fast with a limit error
// when ctx's deadline would expire before the token is available.
func (k *Keyed) Wait(ctx context.Context, key string) error {
	if err := k.get(key).Wait(ctx); err != nil {
		return errors.New(err).
			Component("ratelimit").
			Category(errors.CategoryLimit).
			Context("key", key).
			Build()
	}
	return nil
}

// Allow reports whether an event for key may happen now, consuming a token if so.
func (k *Keyed) Allow(key string) bool {
	return k.get(key).Allow()
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

func (k *Keyed) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	e, ok := k.limiters[key]
	if !ok {
		k.evictIdleLocked(now)
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = e
	}
	e.lastUsed = now
	return e.limiter
}

// evictIdleLocked drops buckets idle long enough to have refilled completely.
func (k *Keyed) evictIdleLocked(now time.Time) {
	for key, e := range k.limiters {
		if now.Sub(e.lastUsed) > k.idleTTL {
			delete(k.limiters, key)
		}
	}
}

// Single is one shared bucket for a collaborator such as the extraction API.
type Single struct {
	limiter *rate.Limiter
}

// NewSingle creates a limiter allowing rps events per second with burst.
// A non-positive rps disables limiting.
func NewSingle(rps float64, burst int) *Single {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Single{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available; key is ignored.
func (s *Single) Wait(ctx context.Context, _ string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return errors.New(err).
			Component("ratelimit").
			Category(errors.CategoryLimit).
			Build()
	}
	return nil
}
