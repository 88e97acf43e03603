// Package app wires the store, the marketplace client, the conversation
// engine and the background jobs into the Telegram runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wbcoef/wbcoef/core/bootstrap"
	coreconfig "github.com/wbcoef/wbcoef/core/config"
	"github.com/wbcoef/wbcoef/core/logger"
	coretelegram "github.com/wbcoef/wbcoef/core/telegram"
	"github.com/wbcoef/wbcoef/core/telegram/router"
	"github.com/wbcoef/wbcoef/internal/catalog"
	"github.com/wbcoef/wbcoef/internal/metrics"
	"github.com/wbcoef/wbcoef/internal/session"
	"github.com/wbcoef/wbcoef/internal/storage"
	"github.com/wbcoef/wbcoef/internal/sweeper"
	"github.com/wbcoef/wbcoef/internal/wbapi"
)

// App owns the long-lived components.
type App struct {
	cfg     *Config
	store   *storage.Store
	engine  *session.Engine
	sweeper *sweeper.Sweeper
	metrics *metrics.Server

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Bootstrap opens the database, applies migrations and builds the app.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:        cfg.CoreConfig(),
		Database:      cfg.Database,
		Migrations:    storage.Migrations,
		MigrationsDir: storage.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}
	return build(cfg, storage.New(res.DB))
}

func build(cfg *Config, store *storage.Store) (*App, error) {
	api := wbapi.New(cfg.WB)
	engine := session.New(store, api, catalog.New(api, store), session.Options{
		AdminUsername: cfg.Bot.AdminUsername,
		PageSize:      cfg.Bot.PageSize,
	})

	srv, err := metrics.Listen(cfg.Metrics.Listen)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("app: metrics listener: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		sweeper: sweeper.New(store, cfg.Bot.SweepInterval),
		metrics: srv,
	}, nil
}

// TelegramRunOptions describes routes, middlewares and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.engine.Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := []coretelegram.Route{
		router.CallbackRoute(reg, router.CallbackOptions{NotFound: a.engine.UnknownCallback()}),
	}
	routes = append(routes, router.TextRoutes(a.engine.FSM(), reg, router.TextOptions{
		Commands: router.CommandOptions{
			AdminUsername: a.cfg.Bot.AdminUsername,
			OnAdminReject: a.engine.Denied,
		},
		OnStateError: a.engine.StateError,
		UnknownText:  a.engine.UnknownText(),
	})...)

	return coretelegram.RunOptions{
		Config:      a.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.CoreConfig(), nil),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

// CoreConfig returns the core part of the configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg.CoreConfig()
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	router.LogWiring(rt.Registry)
	if rt.Bot != nil {
		a.engine.Attach(rt.Bot)
	}

	bg, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.sweeper.Run(bg)
	}()
	go func() {
		defer a.wg.Done()
		if err := a.metrics.Serve(bg); err != nil {
			logger.Metrics.Error("metrics server failed",
				slog.String("event", "serve"),
				slog.String("err", err.Error()),
			)
		}
	}()

	if a.cfg.ShouldNotifyStart() {
		a.engine.NotifyStart(ctx)
	}
	return nil
}

func (a *App) stop(context.Context, coretelegram.Runtime) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return a.store.Close()
}
