package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/gogermany/gobot/core/config"
	coredatabase "github.com/gogermany/gobot/core/database"
)

func noLogger(*coreconfig.Config) error        { return nil }
func noTracing(coreconfig.TracingConfig) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunWithoutDatabase(t *testing.T) {
	res, err := Run(Options{
		Config:      &coreconfig.Config{},
		LoggerInit:  noLogger,
		TracingInit: noTracing,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not run without a database config")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DB != nil {
		t.Fatal("expected no database handle")
	}
	if err := res.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRunNamesFailingStep(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{
		Config:      &coreconfig.Config{},
		Database:    &coredatabase.Config{},
		LoggerInit:  noLogger,
		TracingInit: noTracing,
		Connect:     func(coredatabase.Config) (*sqlx.DB, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped connect error, got %v", err)
	}
	if !strings.Contains(err.Error(), "database failed") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestRunStopsAtLoggerError(t *testing.T) {
	boom := errors.New("no sink")
	tracingCalled := false
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return boom },
		TracingInit: func(coreconfig.TracingConfig) error {
			tracingCalled = true
			return nil
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped logger error, got %v", err)
	}
	if tracingCalled {
		t.Fatal("tracing must not start after the logger failed")
	}
}

func TestResultCloseRunsNewestFirst(t *testing.T) {
	var order []string
	r := &Result{closers: []func(context.Context) error{
		func(context.Context) error { order = append(order, "first"); return nil },
		func(context.Context) error { order = append(order, "second"); return errors.New("x") },
	}}
	if err := r.Close(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
	if strings.Join(order, ",") != "second,first" {
		t.Fatalf("close order = %v", order)
	}
	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
