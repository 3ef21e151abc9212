package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/logger"
	tghelpers "github.com/gogermany/gobot/core/telegram/helpers"
	"github.com/gogermany/gobot/core/telegram/middleware"
)

// runStage tags the context with the stage name so logs emitted while it
// runs are attributed to it.
func runStage(c tele.Context, name string, fn func() error) error {
	tghelpers.WithHandler(c, name)
	return fn()
}

// observe runs fn as handler name and logs its summary line.
func observe(c tele.Context, name string, start time.Time, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, name)
	err := fn()
	logHandled(c, name, start, err, extras...)
	return err
}

// logHandled writes the handler.handled line: outcome, replies sent and
// elapsed time. extras may override status.
func logHandled(c tele.Context, name string, start time.Time, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	msgs, kb := middleware.GetCounters(c)

	status := "ok"
	if err != nil {
		status = "fail"
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.Info(ctx, "tg", "handler.handled", append(attrs, extras...)...)
}

// guarded puts h behind panic recovery and request logging. Routes added
// outside the global chain need both.
func guarded(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

func summarized(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return observe(c, name, time.Now(), func() error { return h(c) })
	}
}

// handlerName turns "/Start Here" into "start_here".
func handlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// errorCode prefers an error's own Code(), then the innermost named type.
func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if errors.Unwrap(e) != nil {
			continue
		}
		t := reflect.TypeOf(e)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Name() != "" {
			return strings.ToUpper(t.Name())
		}
	}
	return "UNKNOWN_ERROR"
}
