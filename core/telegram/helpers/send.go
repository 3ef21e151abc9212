package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/core/telegram/sender"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the queue used by Deliver. nil restores inline sends.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// Deliver hands run to the installed dispatcher. Without one, or when the
// queue is full or closed, run is called synchronously instead.
func Deliver(c tele.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("reason", err.Error()),
		)
		return run()
	default:
		return err
	}
}

// SendText sends plain text to the chat of c and counts it against the
// update. A non-nil markup is attached to the message.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	CountMessage(BuildContext(c), markup != nil)
	return Deliver(c, "send.text", "sendMessage", func() error {
		if markup != nil {
			return c.Send(text, markup)
		}
		return c.Send(text)
	})
}
