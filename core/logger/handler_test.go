package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func render(t *testing.T, format logFormat, fn func(l *slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter(buf, 16)
	l := slog.New(newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	}))
	fn(l)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestKVLeadingKeyOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(Background(), "7:9:42"), 7, 42, 9)
	line := render(t, formatKV, func(l *slog.Logger) {
		l.LogAttrs(ctx, slog.LevelInfo, "",
			slog.String("component", "bot"),
			slog.String("event", "menu.open"),
			slog.String("zeta", "last"),
			slog.String("status", "OK"),
		)
	})

	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=bot", "event=menu.open", "status=ok", "rid=7:9:42", "update_id=7", "user_id=42", "chat_id=9", "zeta=last"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v", tokens)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestJSONLineAndDurations(t *testing.T) {
	line := render(t, formatJSON, func(l *slog.Logger) {
		l.LogAttrs(Background(), slog.LevelError, "",
			slog.String("component", "storage"),
			slog.String("event", "query.failed"),
			slog.Duration("duration", 1499*time.Microsecond),
			slog.Duration("poll_timeout", 10*time.Second),
			slog.String("empty", ""),
		)
	})
	for _, part := range []string{`{"ts":`, `"level":"ERROR"`, `"component":"storage"`, `"event":"query.failed"`, `"duration_ms":1`, `"poll_timeout_ms":10000`} {
		if !strings.Contains(line, part) {
			t.Fatalf("missing %s in %s", part, line)
		}
	}
	if strings.Contains(line, "empty") {
		t.Fatalf("empty field kept: %s", line)
	}
	if strings.Index(line, `"level"`) > strings.Index(line, `"component"`) {
		t.Fatalf("level must precede component: %s", line)
	}
}

func TestDefaultsAndGroups(t *testing.T) {
	line := render(t, formatKV, func(l *slog.Logger) {
		l.WithGroup("db").Info("ping", "host", "localhost")
	})
	for _, part := range []string{"component=app", "event=ping", "db.host=localhost"} {
		if !strings.Contains(line, part) {
			t.Fatalf("missing %s in %s", part, line)
		}
	}
}

func TestKVQuotesValues(t *testing.T) {
	line := render(t, formatKV, func(l *slog.Logger) {
		l.Info("x", "err", `bad "input" here`)
	})
	if !strings.Contains(line, `err="bad \"input\" here"`) {
		t.Fatalf("value not quoted: %s", line)
	}
}

func TestSpanContextIDs(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	line := render(t, formatKV, func(l *slog.Logger) {
		l.InfoContext(ctx, "", "event", "broadcast.done")
	})
	if !strings.Contains(line, "trace_id=4bf92f3577b34da6a3ce929d0e0e4736") || !strings.Contains(line, "span_id=00f067aa0ba902b7") {
		t.Fatalf("span ids missing: %s", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter(buf, 4)
	var lv slog.LevelVar
	lv.Set(slog.LevelWarn)
	l := slog.New(newStructuredHandler(handlerConfig{level: &lv, writer: aw, format: formatKV}))
	l.Info("dropped")
	l.Warn("kept")
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("lines = %d, want 1: %s", got, buf.String())
	}
}
