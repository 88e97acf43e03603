package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/wbcoef/wbcoef/core/config"
	coretelegram "github.com/wbcoef/wbcoef/core/telegram"
	"github.com/wbcoef/wbcoef/internal/sweeper"
)

var envKeys = []string{
	"BOT_TOKEN", "TELEGRAM_BOT_TOKEN", coreconfig.LegacyTokenEnv,
	"ADMIN_USERNAME", "BOT_ADMIN_USERNAME", "DB_PATH", "DATABASE_PATH",
	"METRICS_LISTEN", "METRICS_METRICS_LISTEN", "PAGE_SIZE", "SWEEP_INTERVAL",
	"NOTIFY_START", "WB_TIMEOUT",
}

func unsetEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		prev, had := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, prev)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminUsername, cfg.Bot.AdminUsername)
	assert.Equal(t, 10, cfg.Bot.PageSize)
	assert.Equal(t, sweeper.DefaultInterval, cfg.Bot.SweepInterval)
	assert.True(t, cfg.ShouldNotifyStart())
	assert.Equal(t, "bot.db", cfg.Database.Path)
	assert.Zero(t, cfg.WB.Timeout)
	assert.Equal(t, "", cfg.Metrics.Listen)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	unsetEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: "1:file"
database:
  path: /tmp/file.db
wb:
  timeout: 5s
bot:
  admin_username: "@owner"
  page_size: 5
  sweep_interval: 15m
  notify_start: false
metrics:
  listen: 127.0.0.1:9090
`), 0o600))
	t.Setenv("DB_PATH", "/tmp/env.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "1:file", cfg.Telegram.Token)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.WB.Timeout)
	assert.Equal(t, "owner", cfg.Bot.AdminUsername)
	assert.Equal(t, 5, cfg.Bot.PageSize)
	assert.Equal(t, 15*time.Minute, cfg.Bot.SweepInterval)
	assert.False(t, cfg.ShouldNotifyStart())
	assert.Equal(t, "127.0.0.1:9090", cfg.Metrics.Listen)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	unsetEnv(t)
	_, err := LoadConfig("")
	require.Error(t, err, "token is mandatory")

	t.Setenv("BOT_TOKEN", "1:x")
	t.Setenv("PAGE_SIZE", "-1")
	_, err = LoadConfig("")
	require.Error(t, err)
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	unsetEnv(t)
	t.Setenv("BOT_TOKEN", "1:x")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "bot.db"))
	t.Setenv("METRICS_LISTEN", "127.0.0.1:0")
	t.Setenv("NOTIFY_START", "false")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func TestBootstrapBuildsRunOptions(t *testing.T) {
	a, err := Bootstrap(testConfig(t))
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.NotNil(t, opts.Config)
	assert.NotEmpty(t, opts.Middlewares)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	assert.True(t, endpoints[tele.OnCallback])
	assert.True(t, endpoints[tele.OnText])

	for _, name := range []string{"/start", "/help", "/msg_to_all"} {
		_, _, ok := opts.Registry.LookupCommand(name)
		assert.True(t, ok, name)
	}

	rt := coretelegram.Runtime{Registry: opts.Registry}
	require.NoError(t, opts.OnStart(context.Background(), rt))
	require.NoError(t, opts.OnStop(context.Background(), rt))
}

func TestBootstrapFailsOnUnwritableDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "missing", "dir", "bot.db")
	_, err := Bootstrap(cfg)
	require.Error(t, err)
}
