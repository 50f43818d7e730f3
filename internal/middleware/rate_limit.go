package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/router"
	"github.com/luckydrop/backend/pkg/xcontext"
	"github.com/puzpuzpuz/xsync"
)

type window struct {
	mu    sync.Mutex
	start time.Time
	count int
}

type RateLimiter struct {
	limit   int
	period  time.Duration
	now     func() time.Time
	windows *xsync.MapOf[string, *window]
}

// NewRateLimiter allows limit requests per period and per authenticated user.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: xsync.NewMapOf[*window](),
	}
}

func (l *RateLimiter) Allow(key string) bool {
	w, _ := l.windows.LoadOrStore(key, &window{})

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	if now.Sub(w.start) >= l.period {
		w.start = now
		w.count = 0
	}

	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

func (l *RateLimiter) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if !l.Allow(xcontext.RequestUserID(ctx)) {
			return ctx, errorx.New(errorx.TooManyRequests, "Too many requests, please try again later")
		}

		return ctx, nil
	}
}
