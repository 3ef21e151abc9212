package middleware

import (
	"slices"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/gogermany/gobot/core/telegram/helpers"
)

// countingContext records every successful reply made through the
// embedded context on the update's counters.
type countingContext struct{ tele.Context }

func (c countingContext) record(err error, opts []any) error {
	if err == nil {
		tghelpers.CountMessage(tghelpers.BuildContext(c.Context), slices.ContainsFunc(opts, carriesMarkup))
	}
	return err
}

func carriesMarkup(opt any) bool {
	switch v := opt.(type) {
	case *tele.ReplyMarkup:
		return v != nil
	case *tele.SendOptions:
		return v != nil && v.ReplyMarkup != nil
	}
	return false
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.record(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.record(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.record(c.Context.Edit(what, opts...), opts)
}

// MessageMetricsMiddleware gives each update fresh reply counters. Replies
// through the context and through any sender calling
// helpers.CountMessage both land on them.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, _ := tghelpers.WithCounters(tghelpers.BuildContext(c))
		tghelpers.StoreContext(c, ctx)
		return next(countingContext{Context: c})
	}
}

// GetCounters returns the replies sent so far for c and whether one of
// them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	ctx, ok := tghelpers.ContextFrom(c)
	if !ok {
		return 0, false
	}
	return tghelpers.CountersFrom(ctx).Snapshot()
}
