package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/wbcoef/wbcoef/core/config"
	"github.com/wbcoef/wbcoef/core/database"
	"github.com/wbcoef/wbcoef/internal/keyboards"
	"github.com/wbcoef/wbcoef/internal/sweeper"
	"github.com/wbcoef/wbcoef/internal/wbapi"
)

// DefaultAdminUsername is a placeholder that matches no real account.
const DefaultAdminUsername = "SET_YOUR_LOGIN_HERE"

// BotConfig holds the behaviour of the conversation engine.
type BotConfig struct {
	AdminUsername string        `yaml:"admin_username" envconfig:"ADMIN_USERNAME"`
	PageSize      int           `yaml:"page_size" envconfig:"PAGE_SIZE"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL"`
	// NotifyStart sends the admin a message once the bot is up; nil means true.
	NotifyStart *bool `yaml:"notify_start" envconfig:"NOTIFY_START"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	WB       wbapi.Config    `yaml:"wb"`
	Bot      BotConfig       `yaml:"bot"`
	Metrics  MetricsConfig   `yaml:"metrics"`
}

// CoreConfig exposes the embedded core settings to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// ShouldNotifyStart reports whether the startup notice is enabled.
func (c *Config) ShouldNotifyStart() bool {
	return c.Bot.NotifyStart == nil || *c.Bot.NotifyStart
}

// LoadConfig reads path (optional) and the environment, then validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	cfg.Database = cfg.Database.WithDefaults()
	cfg.WB = cfg.WB.WithDefaults()

	cfg.Bot.AdminUsername = strings.TrimPrefix(strings.TrimSpace(cfg.Bot.AdminUsername), "@")
	if cfg.Bot.AdminUsername == "" {
		cfg.Bot.AdminUsername = DefaultAdminUsername
	}
	switch {
	case cfg.Bot.PageSize == 0:
		cfg.Bot.PageSize = keyboards.PageSize
	case cfg.Bot.PageSize < 0:
		return fmt.Errorf("bot.page_size must be > 0")
	}
	switch {
	case cfg.Bot.SweepInterval == 0:
		cfg.Bot.SweepInterval = sweeper.DefaultInterval
	case cfg.Bot.SweepInterval < 0:
		return fmt.Errorf("bot.sweep_interval must be > 0")
	}
	return nil
}
