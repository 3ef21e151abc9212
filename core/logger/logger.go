// Package logger writes one structured line per event. Every line carries
// a component and an event name; request identifiers stored in the context
// are added automatically.
package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/gogermany/gobot/core/buildinfo"
	coreconfig "github.com/gogermany/gobot/core/config"
)

var (
	initOnce sync.Once
	closeMu  sync.Mutex
	closed   bool

	out     *asyncWriter
	closers []io.Closer

	levelVar slog.LevelVar
	debugs   = &sampler{}
	traceAll bool

	// L is the process-wide logger. It is nil until InitLogger runs and the
	// package helpers are no-ops until then.
	L *slog.Logger
)

// InitLogger installs the global logger. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		s := settingsFrom(cfg)
		levelVar.Set(s.level)
		debugs.Set(s.sampleKeep, s.sampleEvery)
		traceAll = s.traceAll

		sinks, c, err := openSinks(s)
		if err != nil {
			initErr = err
			return
		}
		closers = c
		out = newAsyncWriter(io.MultiWriter(sinks...), 256)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   out,
			format:   s.format,
			keyOrder: s.keyOrder,
		}))
		slog.SetDefault(L)

		bi := buildinfo.Get()
		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", bi.Version),
			slog.String("build_commit", bi.Commit),
			slog.String("build_time", bi.Date),
			slog.String("cfg_profile", s.profile),
			slog.String("format", string(s.format)),
		)
	})
	return initErr
}

// Shutdown drains pending lines and closes file sinks. Later calls return nil.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var result *multierror.Error
	if out != nil {
		result = multierror.Append(result, out.Close())
	}
	for _, c := range closers {
		result = multierror.Append(result, c.Close())
	}
	return result.ErrorOrNil()
}

// Background is context.Background for call sites that have no request.
func Background() context.Context {
	return context.Background()
}

func emit(ctx context.Context, level slog.Level, component, event string, attrs []slog.Attr) {
	l := L
	if l == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}
	head := make([]slog.Attr, 0, len(attrs)+2)
	if c := strings.TrimSpace(component); c != "" {
		head = append(head, slog.String("component", c))
	}
	if event != "" {
		head = append(head, slog.String("event", event))
	}
	l.LogAttrs(ctx, level, "", append(head, attrs...)...)
}

// Debug logs event at debug level.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelDebug, component, event, attrs)
}

// Info logs event at info level.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelInfo, component, event, attrs)
}

// Warn logs event at warn level.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelWarn, component, event, attrs)
}

// Error logs event at error level.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelError, component, event, attrs)
}

// ShouldSampleDebug thins out high-volume debug events. TRACE=1 lets every
// event through.
func ShouldSampleDebug() bool {
	return traceAll || debugs.Allow()
}
