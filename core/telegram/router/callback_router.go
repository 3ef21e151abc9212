package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/gogermany/gobot/core/telegram"
	"github.com/gogermany/gobot/core/telegram/callbacks"
)

// CallbackOptions configures the inline button route.
type CallbackOptions struct {
	// NotFound serves keys the registry does not know and has no
	// fallback for.
	NotFound tele.HandlerFunc
	// KeepSpinner leaves the button loading state to the handler instead
	// of answering the callback up front.
	KeepSpinner bool
}

// CallbackRoute dispatches every callback query by its unique key.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		start := time.Now()
		key, _ := callbacks.ParseCallbackData(cb)
		if !opts.KeepSpinner {
			_ = c.Respond()
		}

		h, reason := lookupCallback(reg, key, opts.NotFound)
		attrs := []slog.Attr{slog.String("cb_key", key)}
		if reason != "" {
			attrs = append(attrs, slog.String("reason", reason))
		}
		return observe(c, "callback."+handlerName(key), start, func() error {
			if h == nil {
				return nil
			}
			return h(c)
		}, attrs...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: guarded(handler)}
}

// lookupCallback resolves key to its handler. A miss falls back to the
// registry's not-found handler, then to notFound, and reports "not_found".
func lookupCallback(reg *tg.Registry, key string, notFound tele.HandlerFunc) (tele.HandlerFunc, string) {
	if reg == nil {
		return notFound, "not_found"
	}
	if h, ok := reg.Callback(key); ok && h != nil {
		return h, ""
	}
	if fb := reg.CallbackNotFound(); fb != nil {
		return fb, "not_found"
	}
	return notFound, "not_found"
}
