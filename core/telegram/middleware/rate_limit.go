package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
	tghelpers "github.com/EgoisTa-Git/fish-shop/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures the per-user token bucket.
type RateLimitOptions struct {
	PerSecond float64
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// IdleTTL drops buckets of users silent for longer; 0 means 10 minutes.
	IdleTTL time.Duration
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

type userLimiter struct {
	opts RateLimitOptions

	mu        sync.Mutex
	buckets   map[int64]*bucket
	lastSweep time.Time
}

func (u *userLimiter) allow(userID int64, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if now.Sub(u.lastSweep) > u.opts.IdleTTL {
		for id, b := range u.buckets {
			if now.Sub(b.seen) > u.opts.IdleTTL {
				delete(u.buckets, id)
			}
		}
		u.lastSweep = now
	}

	b, ok := u.buckets[userID]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(u.opts.PerSecond), u.opts.Burst)}
		u.buckets[userID] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// RateLimitMiddleware drops updates from users exceeding PerSecond with the
// given Burst. Excluded update kinds always pass.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	lim := &userLimiter{opts: opts, buckets: make(map[int64]*bucket), lastSweep: time.Now()}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.PerSecond <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if lim.allow(user.ID, time.Now()) {
				return next(c)
			}

			metrics.RateLimitedTotal.WithLabelValues(kind).Inc()
			metrics.UpdatesTotal.WithLabelValues(kind, "rate_limited").Inc()
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("status", "fail"),
				slog.String("outcome", "rate_limited"),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
