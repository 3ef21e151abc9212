// Package app wires configuration, storage and the Telegram runtime into a
// runnable bot.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/gogermany/gobot/core/bootstrap"
	corecmd "github.com/gogermany/gobot/core/cmd"
	"github.com/gogermany/gobot/core/logger"
	tg "github.com/gogermany/gobot/core/telegram"
	"github.com/gogermany/gobot/internal/admin"
	"github.com/gogermany/gobot/internal/bot"
	"github.com/gogermany/gobot/internal/broadcast"
	"github.com/gogermany/gobot/internal/config"
	"github.com/gogermany/gobot/internal/flow"
	"github.com/gogermany/gobot/internal/jobs"
	"github.com/gogermany/gobot/internal/membership"
	"github.com/gogermany/gobot/internal/reveal"
	"github.com/gogermany/gobot/internal/storage"
	"github.com/gogermany/gobot/internal/storage/memory"
	"github.com/gogermany/gobot/internal/storage/sqlstore"
	"github.com/gogermany/gobot/internal/transport"
)

const (
	component   = "app"
	stopTimeout = 10 * time.Second
)

// App holds the assembled bot until it is handed to the runtime.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	store    storage.Store
	jobs     *jobs.Group
	handlers *bot.Bot
	runOpts  tg.RunOptions
}

// Load is the config loader used by cmd.Run.
func Load(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap builds the App from a loaded configuration.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// New initializes logging, storage and tracing and assembles the handlers.
func New(cfg *config.Config) (*App, error) {
	opts := bootstrap.Options{Config: &cfg.Config}
	if cfg.Storage.Driver == config.DriverPostgres {
		opts.Database = &cfg.Database
	}
	res, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}

	ctx := logger.Background()
	store, err := openStore(ctx, cfg, res)
	if err != nil {
		_ = res.Close(ctx)
		return nil, err
	}
	logger.Info(ctx, component, "storage.ready", slog.String("driver", cfg.Storage.Driver))
	release := func() {
		_ = store.Close()
		_ = res.Close(ctx)
	}

	teleBot, err := tg.NewBot(&cfg.Config)
	if err != nil {
		release()
		return nil, err
	}

	out := transport.NewTelegram(teleBot)
	members := membership.NewChecker(out, cfg.Channels.Groups()...)
	group := jobs.NewGroup()

	handlers, err := bot.New(bot.Deps{
		Users:     store,
		Machine:   flow.NewMachine(members, store),
		Transport: out,
		Admin:     admin.NewService(store, store, time.Now),
		Sessions:  admin.NewSessions(),
		Reveal:    reveal.NewTimer(out, cfg.WhatsApp.Display(), cfg.WhatsApp.Tick()),
		Broadcast: broadcast.NewEngine(out, cfg.Broadcast.Delay(), cfg.Broadcast.ProgressEvery),
		Jobs:      group,
		Settings: bot.Settings{
			Admins:       cfg.Telegram.AdminIDs,
			Groups:       members.Groups(),
			WhatsAppLink: cfg.WhatsApp.GroupLink,
		},
	})
	if err != nil {
		release()
		return nil, err
	}

	reg := tg.NewRegistry()
	if err := handlers.Register(reg); err != nil {
		release()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	a := &App{
		cfg:      cfg,
		infra:    res,
		store:    store,
		jobs:     group,
		handlers: handlers,
	}
	a.runOpts = tg.RunOptions{
		Config:      &cfg.Config,
		Registry:    reg,
		Bot:         teleBot,
		Middlewares: a.middlewares(),
		Routes:      handlers.Routes(reg),
		OnStop:      a.stop,
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, res *bootstrap.Result) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return sqlstore.New(res.DB), nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("app: create storage dir: %w", err)
			}
		}
		return sqlstore.OpenSQLite(ctx, cfg.Storage.Path)
	default:
		return memory.New(), nil
	}
}

func (a *App) middlewares() []tg.Middleware {
	mws := tg.DefaultMiddlewares(&a.cfg.Config, nil)
	return append(mws, tg.Middleware{Name: "user", Use: a.handlers.Middleware})
}

// TelegramRunOptions satisfies cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return a.runOpts, nil
}

// stop waits for background jobs, then flushes traces and closes storage.
func (a *App) stop(ctx context.Context, _ tg.Runtime) error {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	var result *multierror.Error
	if err := a.jobs.Stop(stopCtx); err != nil {
		logger.Warn(stopCtx, component, "jobs.stop_timeout", slog.String("err", err.Error()))
		result = multierror.Append(result, err)
	}
	if err := a.store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close storage: %w", err))
	}
	if err := a.infra.Close(stopCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("close infrastructure: %w", err))
	}
	return result.ErrorOrNil()
}
