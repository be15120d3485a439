package ratelimiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/johndosdos/chatrooms/internal/model"
)

func TestAuthorLimiter_Allow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		role  model.Role
		steps []time.Duration
		want  []bool
	}{
		{"second_within_cooldown_denied", model.Regular, []time.Duration{0, 100 * time.Millisecond}, []bool{true, false}},
		{"exactly_cooldown_allowed", model.Regular, []time.Duration{0, 250 * time.Millisecond}, []bool{true, true}},
		{"after_cooldown_allowed", model.Regular, []time.Duration{0, 300 * time.Millisecond}, []bool{true, true}},
		{"denied_send_does_not_reset", model.Regular, []time.Duration{0, 200 * time.Millisecond, 260 * time.Millisecond}, []bool{true, false, true}},
		{"superuser_never_denied", model.Superuser, []time.Duration{0, 0, time.Millisecond}, []bool{true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewAuthorLimiter(DefaultCooldown)
			for i, step := range tt.steps {
				got := l.Allow(1, tt.role, start.Add(step))
				assert.Equal(t, tt.want[i], got, "step %d at +%v", i, step)
			}
		})
	}
}

func TestAuthorLimiter_PerAuthor(t *testing.T) {
	l := NewAuthorLimiter(DefaultCooldown)
	now := time.Now()

	assert.True(t, l.Allow(1, model.Regular, now))
	assert.True(t, l.Allow(2, model.Regular, now))
	assert.False(t, l.Allow(1, model.Regular, now.Add(time.Millisecond)))
	assert.Equal(t, 2, l.Len())
}

func TestAuthorLimiter_Evict(t *testing.T) {
	l := NewAuthorLimiter(DefaultCooldown)
	now := time.Now()

	l.Allow(1, model.Regular, now)
	l.Allow(2, model.Regular, now.Add(time.Minute))

	assert.Equal(t, 1, l.Evict(now.Add(2*time.Minute), 90*time.Second))
	assert.Equal(t, 1, l.Len())
}

func TestAuthorLimiter_RunEviction(t *testing.T) {
	l := NewAuthorLimiter(DefaultCooldown)
	l.Allow(1, model.Regular, time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.RunEviction(ctx, CleanupOpts{TTL: time.Minute, Interval: 5 * time.Millisecond})
		close(done)
	}()

	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestAuthorLimiter_Concurrent(t *testing.T) {
	l := NewAuthorLimiter(time.Hour)
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(7, model.Regular, now) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed)
}
