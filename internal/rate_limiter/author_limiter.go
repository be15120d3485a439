package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/johndosdos/chatrooms/internal/model"
)

// DefaultCooldown is the minimum gap between two sends of a regular user.
const DefaultCooldown = 250 * time.Millisecond

type authorEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AuthorLimiter gates sends per author. Each author gets a one-token bucket
// refilled every cooldown, so a send is allowed only when at least cooldown
// has passed since the last allowed one. Denied sends do not reset the
// clock.
type AuthorLimiter struct {
	mu       sync.Mutex
	authors  map[int64]*authorEntry
	cooldown time.Duration
}

func NewAuthorLimiter(cooldown time.Duration) *AuthorLimiter {
	return &AuthorLimiter{
		authors:  make(map[int64]*authorEntry),
		cooldown: cooldown,
	}
}

// Allow reports whether authorID may send at now. Superusers are never
// limited.
func (l *AuthorLimiter) Allow(authorID int64, role model.Role, now time.Time) bool {
	if role == model.Superuser || l.cooldown <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.authors[authorID]
	if !ok {
		e = &authorEntry{limiter: rate.NewLimiter(rate.Every(l.cooldown), 1)}
		l.authors[authorID] = e
	}

	allowed := e.limiter.AllowN(now, 1)
	if allowed {
		e.lastSeen = now
	}
	return allowed
}

// Len returns the number of tracked authors.
func (l *AuthorLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.authors)
}

// Evict drops authors idle for longer than ttl as of now. An evicted
// author starts again with a full bucket, which is only observable if
// ttl is shorter than the cooldown.
func (l *AuthorLimiter) Evict(now time.Time, ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for id, e := range l.authors {
		if now.Sub(e.lastSeen) > ttl {
			delete(l.authors, id)
			n++
		}
	}
	return n
}

// RunEviction calls Evict every interval until ctx is done.
func (l *AuthorLimiter) RunEviction(ctx context.Context, opts CleanupOpts) {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Evict(now, opts.TTL)
		}
	}
}
