// Package bootstrap brings up the process-wide infrastructure a bot needs
// before handlers are built: logging, tracing and the optional database.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"

	coreconfig "github.com/gogermany/gobot/core/config"
	coredatabase "github.com/gogermany/gobot/core/database"
	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/core/tracing"
)

// Options select and override the startup steps. Nil funcs use the core
// package defaults.
type Options struct {
	Config *coreconfig.Config
	// Database is nil for bots that keep their state elsewhere.
	Database *coredatabase.Config

	LoggerInit  func(*coreconfig.Config) error
	TracingInit func(coreconfig.TracingConfig) error
	Connect     func(coredatabase.Config) (*sqlx.DB, error)
	Migrate     func(coredatabase.Config) error
}

// Result holds what Run brought up. Close releases it in reverse order.
type Result struct {
	DB *sqlx.DB

	closers []func(context.Context) error
}

// Close shuts down everything Run started, newest first.
func (r *Result) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var result *multierror.Error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	r.closers = nil
	return result.ErrorOrNil()
}

type step struct {
	name string
	run  func(*Result) error
}

// Run executes the startup steps in order. When one fails the steps
// already done are undone and the error names the failing step.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts = opts.withDefaults()

	steps := []step{
		{"logger", func(*Result) error { return opts.LoggerInit(opts.Config) }},
		{"tracing", func(r *Result) error {
			if err := opts.TracingInit(opts.Config.Tracing); err != nil {
				return err
			}
			if opts.Config.Tracing.Enabled {
				r.closers = append(r.closers, tracing.Shutdown)
			}
			return nil
		}},
	}
	if opts.Database != nil {
		dbCfg := *opts.Database
		steps = append(steps,
			step{"database", func(r *Result) error {
				db, err := opts.Connect(dbCfg)
				if err != nil {
					return err
				}
				r.DB = db
				r.closers = append(r.closers, func(context.Context) error { return db.Close() })
				return nil
			}},
			step{"migrations", func(*Result) error { return opts.Migrate(dbCfg) }},
		)
	}

	res := &Result{}
	ctx := logger.Background()
	for _, s := range steps {
		start := time.Now()
		if err := s.run(res); err != nil {
			if cerr := res.Close(ctx); cerr != nil {
				logger.Warn(ctx, "bootstrap", "unwind.failed", slog.String("err", cerr.Error()))
			}
			return nil, fmt.Errorf("bootstrap: %s failed: %w", s.name, err)
		}
		logger.Debug(ctx, "bootstrap", "step.done",
			slog.String("step", s.name),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
	return res, nil
}

func (o Options) withDefaults() Options {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.TracingInit == nil {
		o.TracingInit = tracing.Init
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	return o
}
