// Package config loads the bot configuration: the shared core settings plus
// database, channels, reveal and broadcast parameters.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/gogermany/gobot/core/config"
	coredatabase "github.com/gogermany/gobot/core/database"
	"github.com/gogermany/gobot/internal/membership"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// StorageConfig selects the persistence backend. Path is the database file
// of the sqlite driver.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Path   string `yaml:"path" envconfig:"STORAGE_PATH"`
}

// ChannelsConfig lists the two groups a user must join during onboarding.
// IDs are numeric chat ids or @usernames.
type ChannelsConfig struct {
	FirstID    string `yaml:"first_id" envconfig:"CHANNEL_1_ID"`
	FirstLink  string `yaml:"first_link" envconfig:"CHANNEL_1_LINK"`
	SecondID   string `yaml:"second_id" envconfig:"CHANNEL_2_ID"`
	SecondLink string `yaml:"second_link" envconfig:"CHANNEL_2_LINK"`
}

// Groups returns the required groups in display order.
func (c ChannelsConfig) Groups() []membership.Group {
	return []membership.Group{
		{ID: c.FirstID, Link: c.FirstLink},
		{ID: c.SecondID, Link: c.SecondLink},
	}
}

// WhatsAppConfig controls the gated group-link reveal.
type WhatsAppConfig struct {
	GroupLink      string `yaml:"group_link" envconfig:"WHATSAPP_GROUP_LINK"`
	DisplaySeconds int    `yaml:"display_seconds" envconfig:"WHATSAPP_LINK_DISPLAY_SECONDS"`
	TickSeconds    int    `yaml:"tick_seconds" envconfig:"WHATSAPP_TICK_SECONDS"`
}

func (w WhatsAppConfig) Display() time.Duration { return time.Duration(w.DisplaySeconds) * time.Second }

func (w WhatsAppConfig) Tick() time.Duration { return time.Duration(w.TickSeconds) * time.Second }

// BroadcastConfig tunes the admin broadcast fan-out.
type BroadcastConfig struct {
	DelayMS       int `yaml:"delay_ms" envconfig:"BROADCAST_DELAY_MS"`
	ProgressEvery int `yaml:"progress_every" envconfig:"BROADCAST_PROGRESS_EVERY"`
}

func (b BroadcastConfig) Delay() time.Duration { return time.Duration(b.DelayMS) * time.Millisecond }

// Config is the complete bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Storage   StorageConfig       `yaml:"storage"`
	Channels  ChannelsConfig      `yaml:"channels"`
	WhatsApp  WhatsAppConfig      `yaml:"whatsapp"`
	Broadcast BroadcastConfig     `yaml:"broadcast"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads YAML from path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = DriverPostgres
	}
	switch driver {
	case DriverPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres driver")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 10
		}
	case DriverSQLite:
		cfg.Storage.Path = strings.TrimSpace(cfg.Storage.Path)
		if cfg.Storage.Path == "" {
			cfg.Storage.Path = "data/gogermany.db"
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: postgres, sqlite, memory", cfg.Storage.Driver)
	}
	cfg.Storage.Driver = driver

	ch := &cfg.Channels
	ch.FirstID = strings.TrimSpace(ch.FirstID)
	ch.SecondID = strings.TrimSpace(ch.SecondID)
	if ch.FirstID == "" || ch.SecondID == "" {
		return fmt.Errorf("channels.first_id and channels.second_id are required")
	}
	ch.FirstLink = inviteLink(ch.FirstID, ch.FirstLink)
	ch.SecondLink = inviteLink(ch.SecondID, ch.SecondLink)

	if strings.TrimSpace(cfg.WhatsApp.GroupLink) == "" {
		return fmt.Errorf("whatsapp.group_link is required")
	}
	if cfg.WhatsApp.DisplaySeconds <= 0 {
		cfg.WhatsApp.DisplaySeconds = 60
	}
	if cfg.WhatsApp.TickSeconds <= 0 {
		cfg.WhatsApp.TickSeconds = 10
	}
	if cfg.WhatsApp.TickSeconds > cfg.WhatsApp.DisplaySeconds {
		cfg.WhatsApp.TickSeconds = cfg.WhatsApp.DisplaySeconds
	}

	if cfg.Broadcast.DelayMS < 0 {
		return fmt.Errorf("broadcast.delay_ms must be >= 0")
	}
	if cfg.Broadcast.DelayMS == 0 {
		cfg.Broadcast.DelayMS = 50
	}
	if cfg.Broadcast.ProgressEvery <= 0 {
		cfg.Broadcast.ProgressEvery = 50
	}
	return nil
}

// inviteLink derives a t.me link for public @usernames when none is configured.
func inviteLink(id, link string) string {
	link = strings.TrimSpace(link)
	if link != "" {
		return link
	}
	if strings.HasPrefix(id, "@") {
		return "https://t.me/" + strings.TrimPrefix(id, "@")
	}
	return ""
}
