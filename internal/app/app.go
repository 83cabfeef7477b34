// Package app assembles the quizbot: configuration, logger, storage,
// migrations, locale bundle, admin workflows and the Telegram runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	coreconfig "quizbot/core/config"
	coredatabase "quizbot/core/database"
	"quizbot/core/logger"
	tg "quizbot/core/telegram"
	tghelpers "quizbot/core/telegram/helpers"
	"quizbot/core/telegram/middleware"
	"quizbot/core/telegram/router"
	"quizbot/core/telegram/state"
	"quizbot/internal/admin"
	"quizbot/internal/locale"
	"quizbot/internal/roster"
	"quizbot/internal/storage"
)

// App holds every long-lived component of the bot.
type App struct {
	cfg *coreconfig.Config

	db      *sqlx.DB
	users   *storage.Users
	players *storage.Players
	photos  *storage.PhotoStore
	texts   *locale.Bundle

	states   state.Manager
	registry *tg.Registry
	flows    *admin.Flows
}

// Load reads the configuration file; nothing else is initialized yet.
func Load(path string) (*App, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg}, nil
}

// CoreConfig exposes the loaded configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg
}

// Bootstrap initializes the logger, storage, migrations, seed data, locale
// bundle and the workflow registry. Must run once before TelegramRunOptions.
func (a *App) Bootstrap(ctx context.Context) error {
	if err := logger.InitLogger(a.cfg); err != nil {
		return fmt.Errorf("app: logger init failed: %w", err)
	}

	dbCfg := coredatabase.Config{
		Path:           a.cfg.Database.Path,
		MaxConnections: a.cfg.Database.MaxConnections,
		MigrationsDir:  a.cfg.Database.MigrationsDir,
	}
	db, err := coredatabase.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("app: database initialization failed: %w", err)
	}
	if err := coredatabase.RunMigrations(dbCfg); err != nil {
		_ = db.Close()
		return fmt.Errorf("app: migrations failed: %w", err)
	}

	a.db = db
	a.users = storage.NewUsers(db)
	a.players = storage.NewPlayers(db)

	if _, err := a.users.SeedAdmins(ctx, a.cfg.Roster.AdminIDs); err != nil {
		_ = db.Close()
		return fmt.Errorf("app: admin seeding failed: %w", err)
	}

	a.photos, err = storage.NewPhotoStore(a.cfg.Roster.PhotosDir)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("app: photo store init failed: %w", err)
	}

	a.texts, err = locale.Load(a.cfg.Locale.Dir, a.cfg.Locale.Language)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("app: locale load failed: %w", err)
	}

	a.states = state.NewMemoryManager()
	a.registry = tg.NewRegistry()
	a.flows = admin.Register(a.registry, admin.Deps{
		Users:   a.users,
		Players: a.players,
		Photos:  a.photos,
		States:  a.states,
		Texts:   a.texts,
	})
	return nil
}

// TelegramRunOptions builds the bot runtime: middleware chain with the
// database-backed access gate, and routes for commands, callbacks and
// FSM-driven text/photo input.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.registry == nil {
		return tg.RunOptions{}, fmt.Errorf("app: bootstrap must run first")
	}

	notRegistered := func(c tele.Context) error {
		return tghelpers.SendText(c, a.texts.Get(locale.ModuleBot, "not_registered",
			"You are not registered. Ask an administrator for access."))
	}
	insufficientRole := func(c tele.Context) error {
		return tghelpers.SendText(c, a.texts.Get(locale.ModuleBot, "insufficient_privileges",
			"This command requires admin privileges."))
	}

	middlewares := tg.DefaultMiddlewares(a.cfg, nil)
	middlewares = append(middlewares, tg.Middleware{
		Name: "auth",
		Use: middleware.Auth(middleware.AuthOptions{
			Resolver:       a.users,
			OnUnregistered: notRegistered,
		}),
	})

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminRoles:    []string{string(roster.RoleAdmin)},
		OnAdminReject: insufficientRole,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.states, a.registry, router.TextOptions{})...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.flows.SetFiles(rt.Bot)
			logger.L.With("component", "app").InfoContext(ctx, "bot ready",
				slog.String("event", "ready"),
				slog.String("lang", a.texts.Language()),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases the storage resources.
func (a *App) Close() error {
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}
