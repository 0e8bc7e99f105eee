// Package bot wires the order bot: storage, conversation state, the
// conversation router and its Telegram adapter.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	botconfig "github.com/mayak/orderbot/bot/config"
	"github.com/mayak/orderbot/bot/conversation"
	"github.com/mayak/orderbot/bot/domain"
	"github.com/mayak/orderbot/bot/storage"
	bottelegram "github.com/mayak/orderbot/bot/telegram"
	"github.com/mayak/orderbot/core/bootstrap"
	"github.com/mayak/orderbot/core/logger"
	coretelegram "github.com/mayak/orderbot/core/telegram"
	"github.com/mayak/orderbot/core/telegram/state"
	"github.com/mayak/orderbot/migrations"
)

// App holds the infrastructure of a running order bot.
type App struct {
	cfg      *botconfig.Config
	db       *sqlx.DB
	store    state.Store[domain.OrderState]
	closers  []io.Closer
	notifier *bottelegram.OperatorNotifier
	router   *conversation.Router
}

// Bootstrap initializes logging, the database (migrations and catalog seed)
// and the conversation state backend.
func Bootstrap(ctx context.Context, cfg *botconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bot: nil config")
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
		Seeders: []bootstrap.Seeder{
			storage.CatalogSeeder{Path: cfg.Catalog.SeedFile, Check: conversation.CheckCatalogTokens},
		},
	})
	if err != nil {
		return nil, err
	}
	app := &App{cfg: cfg, db: res.DB, closers: []io.Closer{res.DB}}

	store, closer, err := NewStateStore(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	app.store = store

	app.notifier = bottelegram.NewOperatorNotifier(cfg.Telegram.OperatorChatID)
	app.router, err = conversation.New(conversation.Options{
		Store:    store,
		Catalog:  storage.NewCatalogRepo(res.DB),
		Orders:   storage.NewOrderRepo(res.DB),
		Notifier: app.notifier,
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// NewStateStore builds the configured conversation state backend. The
// returned closer is nil for the memory backend.
func NewStateStore(ctx context.Context, cfg *botconfig.Config) (state.Store[domain.OrderState], io.Closer, error) {
	switch cfg.State.Backend {
	case botconfig.StateRedis:
		cli, err := state.NewGoRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("bot: state backend: %w", err)
		}
		logger.Info(ctx, "state", "backend", slog.String("mode", botconfig.StateRedis), slog.String("host", cfg.Redis.Addr))
		return state.NewRedisStore[domain.OrderState](cli, state.RedisOptions{
			TTL:     cfg.State.TTL(),
			LockTTL: cfg.State.LockTTL(),
		}), cli, nil
	default:
		logger.Info(ctx, "state", "backend", slog.String("mode", botconfig.StateMemory))
		return state.NewMemoryStore[domain.OrderState](), nil, nil
	}
}

// TelegramRunOptions registers the bot's handlers and returns the runtime options.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := bottelegram.NewHandler(a.router).Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}
	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      bottelegram.Routes(reg),
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.notifier.Bind(rt.Bot)
			return nil
		},
	}, nil
}

// Close releases the database and the state backend.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
