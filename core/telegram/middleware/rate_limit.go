package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/logger"
	tghelpers "github.com/gogermany/gobot/core/telegram/helpers"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude lists update kinds that bypass the limit: callback, message,
	// inline_query, other.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc

	now func() time.Time
}

// UpdateKind names the kind of update c carries.
func UpdateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

type userLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitMiddleware drops updates that arrive from the same user faster
// than Interval. Limiters idle for a minute are forgotten.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.now
	if now == nil {
		now = time.Now
	}
	idle := max(time.Minute, 2*opts.Interval)

	var (
		mu        sync.Mutex
		users     = make(map[int64]*userLimiter)
		lastSweep time.Time
	)
	allow := func(userID int64, at time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		if at.Sub(lastSweep) > idle {
			for id, u := range users {
				if at.Sub(u.seen) > idle {
					delete(users, id)
				}
			}
			lastSweep = at
		}
		u, ok := users[userID]
		if !ok {
			u = &userLimiter{lim: rate.NewLimiter(rate.Every(opts.Interval), 1)}
			users[userID] = u
		}
		u.seen = at
		return u.lim.AllowN(at, 1)
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c)
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if allow(user.ID, now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limited",
				slog.String("kind", kind),
				slog.Int64("user_id", user.ID),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
