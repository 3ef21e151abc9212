package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/gogermany/gobot/core/config"
	coredatabase "github.com/gogermany/gobot/core/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const baseYAML = `
telegram:
  token: tkn
  admin_ids: [11]
storage:
  driver: memory
channels:
  first_id: "@gogermany_news"
  second_id: "-100200300"
  second_link: https://t.me/+invite
whatsapp:
  group_link: https://chat.whatsapp.com/abc
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "https://t.me/gogermany_news", cfg.Channels.FirstLink)
	assert.Equal(t, "https://t.me/+invite", cfg.Channels.SecondLink)
	assert.Equal(t, 60*time.Second, cfg.WhatsApp.Display())
	assert.Equal(t, 10*time.Second, cfg.WhatsApp.Tick())
	assert.Equal(t, 50*time.Millisecond, cfg.Broadcast.Delay())
	assert.Equal(t, 50, cfg.Broadcast.ProgressEvery)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())

	groups := cfg.Channels.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "-100200300", groups[1].ID)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHANNEL_2_ID", "@second")
	t.Setenv("WHATSAPP_LINK_DISPLAY_SECONDS", "30")
	t.Setenv("BROADCAST_DELAY_MS", "120")
	t.Setenv("ADMIN_IDS", "11,12")

	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "@second", cfg.Channels.SecondID)
	assert.Equal(t, 30*time.Second, cfg.WhatsApp.Display())
	assert.Equal(t, 120*time.Millisecond, cfg.Broadcast.Delay())
	assert.True(t, cfg.Telegram.IsAdmin(12))
}

func TestNormalizeErrors(t *testing.T) {
	valid := func() Config {
		return Config{
			Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
			Storage:  StorageConfig{Driver: DriverMemory},
			Channels: ChannelsConfig{FirstID: "@a", SecondID: "@b"},
			WhatsApp: WhatsAppConfig{GroupLink: "https://chat.whatsapp.com/x"},
		}
	}
	base := valid()
	require.NoError(t, Normalize(&base))

	cases := map[string]func(*Config){
		"missing token":    func(c *Config) { c.Telegram.Token = "" },
		"unknown driver":   func(c *Config) { c.Storage.Driver = "mongo" },
		"postgres no host": func(c *Config) { c.Storage.Driver = DriverPostgres },
		"missing channel":  func(c *Config) { c.Channels.SecondID = " " },
		"missing whatsapp": func(c *Config) { c.WhatsApp.GroupLink = "" },
		"negative delay":   func(c *Config) { c.Broadcast.DelayMS = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, Normalize(&cfg))
		})
	}
}

func TestNormalizeClampsTick(t *testing.T) {
	cfg := Config{
		Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
		Storage:  StorageConfig{Driver: DriverMemory},
		Channels: ChannelsConfig{FirstID: "1", SecondID: "2"},
		WhatsApp: WhatsAppConfig{GroupLink: "l", DisplaySeconds: 5, TickSeconds: 10},
	}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, 5, cfg.WhatsApp.TickSeconds)
	assert.Empty(t, cfg.Channels.FirstLink)
}

func TestNormalizePostgresDefaults(t *testing.T) {
	cfg := Config{
		Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
		Database: coredatabase.Config{Host: "db", Name: "gobot"},
		Channels: ChannelsConfig{FirstID: "1", SecondID: "2"},
		WhatsApp: WhatsAppConfig{GroupLink: "l"},
	}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
}

func TestNormalizeSQLiteDefaultsPath(t *testing.T) {
	cfg := Config{
		Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
		Storage:  StorageConfig{Driver: " SQLite "},
		Channels: ChannelsConfig{FirstID: "1", SecondID: "2"},
		WhatsApp: WhatsAppConfig{GroupLink: "l"},
	}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "data/gogermany.db", cfg.Storage.Path)
}
