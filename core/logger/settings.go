package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	coreconfig "github.com/gogermany/gobot/core/config"
)

type settings struct {
	level       slog.Level
	format      logFormat
	keyOrder    []string
	profile     string
	sampleKeep  int
	sampleEvery int
	traceAll    bool
	dir         string
	file        string
}

// stdoutIsTerminal is swapped in tests.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func settingsFrom(cfg *coreconfig.Config) settings {
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}
	s := settings{
		level:    parseLevel(lc.Level),
		profile:  strings.ToLower(strings.TrimSpace(lc.Profile)),
		keyOrder: parseKeyOrder(lc.KeysOrder),
		traceAll: truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE")),
		dir:      strings.TrimSpace(lc.Dir),
		file:     strings.TrimSpace(lc.BotFile),
	}
	if s.profile == "" {
		s.profile = "prod"
	}
	s.format = pickFormat(lc.Format, s.profile)
	s.sampleKeep, s.sampleEvery = parseRatio(lc.DebugSample)
	return s
}

// pickFormat honours an explicit format, then the profile, then whether
// stdout is a terminal.
func pickFormat(raw, profile string) logFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return formatJSON
	case "kv", "text", "pretty":
		return formatKV
	}
	if profile == "dev" || profile == "debug" || stdoutIsTerminal() {
		return formatKV
	}
	return formatJSON
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	var order []string
	if raw != "" && raw != "default" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
	}
	if len(order) == 0 {
		return append([]string(nil), defaultKeyOrder...)
	}
	return order
}

// parseRatio reads "keep/every" or "every" (meaning 1/every). Empty input
// gives 1/50; "0" or "off" disables sampling.
func parseRatio(raw string) (keep, every int) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return 1, 50
	case "0", "off", "none":
		return 0, 0
	}
	if a, b, ok := strings.Cut(raw, "/"); ok {
		k, err1 := strconv.Atoi(strings.TrimSpace(a))
		e, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 == nil && err2 == nil && k > 0 && e > 0 {
			return min(k, e), e
		}
		return 1, 50
	}
	if e, err := strconv.Atoi(raw); err == nil && e > 0 {
		return 1, e
	}
	return 1, 50
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// openSinks returns stdout plus the optional log file.
func openSinks(s settings) ([]io.Writer, []io.Closer, error) {
	sinks := []io.Writer{os.Stdout}
	if s.dir == "" || s.file == "" {
		return sinks, nil, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logger: create log dir %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, s.file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: open log file %s: %w", path, err)
	}
	return append(sinks, f), []io.Closer{f}, nil
}
