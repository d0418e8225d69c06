package quizbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/quizbot/core/bootstrap"
	corecmd "github.com/m3rciful/quizbot/core/cmd"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/quiz"
	"github.com/m3rciful/quizbot/core/results"
	"github.com/m3rciful/quizbot/core/session"
	coretelegram "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/core/telegram/router"
)

// App is a bootstrapped quiz bot.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	store    session.Store
	locks    *session.UserLocks
	recorder results.Recorder
	driver   *quiz.Driver
	handlers *Handlers
	registry *coretelegram.Registry
}

// Bootstrap adapts New to the core runner.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("quizbot: unexpected config type %T", carrier)
	}
	opts := bootstrap.Options{Config: cfg.CoreConfig()}
	if cfg.NeedsDatabase() {
		opts.Database = &cfg.Database
	}
	infra, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	app, err := New(ctx, cfg, infra)
	if err != nil {
		return nil, errors.Join(err, infra.Close())
	}
	return app, nil
}

// New builds the bank, driver, stores and command registry. infra may be nil
// when no backend needs Postgres.
func New(ctx context.Context, cfg *Config, infra *bootstrap.Result) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("quizbot: nil config")
	}
	var db *sqlx.DB
	if infra != nil {
		db = infra.DB
	}

	bank, err := loadBank(cfg.Quiz)
	if err != nil {
		return nil, err
	}
	driver, err := quiz.NewDriver(bank, quiz.WithTitle(cfg.Quiz.Title), quiz.WithWelcome(cfg.Quiz.Welcome))
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg.Session, db)
	if err != nil {
		return nil, err
	}
	recorder, err := openRecorder(cfg.Results, db)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}

	app := &App{
		cfg:      cfg,
		infra:    infra,
		store:    store,
		locks:    session.NewUserLocks(),
		recorder: recorder,
		driver:   driver,
		handlers: NewHandlers(driver, recorder, cfg.Results.TopLimit, cfg.Quiz.KeyboardColumns),
		registry: coretelegram.NewRegistry(),
	}
	if err := app.registerCommands(); err != nil {
		return nil, errors.Join(err, app.Close())
	}

	logger.Info(ctx, "app", "quiz.ready",
		slog.Int("total", bank.Len()),
		slog.String("backend", cfg.Session.Backend),
		slog.String("results_backend", cfg.Results.Backend),
	)
	return app, nil
}

func loadBank(cfg QuizConfig) (*quiz.Bank, error) {
	if cfg.QuestionsFile == "" {
		return quiz.DefaultBank(), nil
	}
	return quiz.LoadBankFile(cfg.QuestionsFile)
}

func openStore(ctx context.Context, cfg SessionConfig, db *sqlx.DB) (session.Store, error) {
	switch cfg.Backend {
	case BackendRedis:
		return session.DialRedis(ctx, cfg.RedisURL, session.RedisOptions{Prefix: cfg.Prefix, TTL: cfg.TTL()})
	case BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("quizbot: postgres session backend needs a database")
		}
		return session.NewPostgresStore(db), nil
	default:
		return session.NewMemoryStore(), nil
	}
}

func openRecorder(cfg ResultsConfig, db *sqlx.DB) (results.Recorder, error) {
	if cfg.Backend != BackendPostgres {
		return results.NewMemoryRecorder(), nil
	}
	if db == nil {
		return nil, fmt.Errorf("quizbot: postgres results backend needs a database")
	}
	return results.NewPostgresRecorder(db), nil
}

func (a *App) registerCommands() error {
	return errors.Join(
		a.registry.RegisterCommand("/start", coretelegram.Command{
			Handler:     a.handlers.Quiz,
			Description: "Start the quiz",
		}),
		a.registry.RegisterCommand(quiz.ResetCommand, coretelegram.Command{
			Handler:     a.handlers.Reset,
			Description: "Reset your quiz",
		}),
		a.registry.RegisterCommand("/top", coretelegram.Command{
			Handler:     a.handlers.Top,
			Description: "Show the leaderboard",
			Aliases:     []string{"/leaders"},
		}),
	)
}

// Registry returns the command registry.
func (a *App) Registry() *coretelegram.Registry { return a.registry }

// Driver returns the quiz driver.
func (a *App) Driver() *quiz.Driver { return a.driver }

// TelegramRunOptions assembles the middleware chain and routes. The session
// middleware runs last so the per-user lock covers only the handler.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	mws := coretelegram.DefaultMiddlewares(core, nil)
	mws = append(mws, coretelegram.Middleware{
		Name: "session",
		Use:  middleware.SessionMiddleware(middleware.SessionOptions{Store: a.store, Locks: a.locks}),
	})

	a.registry.SetTextFallback(a.handlers.Quiz)
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{Unsupported: a.handlers.Unsupported})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: mws,
		Routes:      routes,
	}, nil
}

// Close releases the session store and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.infra != nil {
		errs = append(errs, a.infra.Close())
	}
	return errors.Join(errs...)
}
