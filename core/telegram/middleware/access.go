package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/logger"
	tghelpers "github.com/gogermany/gobot/core/telegram/helpers"
)

// AdminOptions configure AdminOnlyMiddleware.
type AdminOptions struct {
	// IsAdmin reports whether a user may pass. Nil lets nobody through.
	IsAdmin func(userID int64) bool
	// OnReject answers users that were turned away. Nil stays silent.
	OnReject tele.HandlerFunc
}

func (o AdminOptions) allows(c tele.Context) (int64, bool) {
	s := c.Sender()
	if s == nil || o.IsAdmin == nil {
		return 0, false
	}
	return s.ID, o.IsAdmin(s.ID)
}

// AdminOnlyMiddleware lets only admins reach next.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID, ok := opts.allows(c)
			if ok {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "admin.rejected",
				slog.Int64("user_id", userID),
				slog.String("update", UpdateKind(c)),
			)
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
