package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/gogermany/gobot/core/config"
	coretelegram "github.com/gogermany/gobot/core/telegram"
)

type stubConfig struct{ core *coreconfig.Config }

func (s stubConfig) CoreConfig() *coreconfig.Config { return s.core }

type stubApp struct{ opts coretelegram.RunOptions }

func (s stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return s.opts, nil }

func TestRunRequiresHooks(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("expected error without LoadConfig and Bootstrap")
	}
}

func TestRunUsesEnvPathAndChainsHooks(t *testing.T) {
	t.Setenv("TEST_BOT_CONFIG", "/tmp/from-env.yaml")

	var (
		loaded           string
		started, stopped bool
		loggerClosed     bool
	)
	err := Run(Options{
		ConfigEnvVar:      "TEST_BOT_CONFIG",
		DefaultConfigPath: "ignored.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return stubConfig{core: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return stubApp{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { loggerClosed = true; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loaded != "/tmp/from-env.yaml" {
		t.Fatalf("config path = %q", loaded)
	}
	if !started || !stopped || !loggerClosed {
		t.Fatalf("started=%v stopped=%v loggerClosed=%v", started, stopped, loggerClosed)
	}
}

func TestRunFailsOnMissingCoreConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return stubConfig{}, nil },
		Bootstrap:         func(ConfigCarrier) (TelegramApp, error) { return nil, errors.New("unreachable") },
	})
	if err == nil || err.Error() != "cmd: loaded config is missing core configuration" {
		t.Fatalf("err = %v", err)
	}
}
