package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"barkeep/internal/bar"
	"barkeep/internal/cache"
	"barkeep/internal/catalog"
	"barkeep/internal/config"
	"barkeep/internal/db"
	"barkeep/internal/db/mock"
	"barkeep/internal/handlers"
	applog "barkeep/internal/log"
	"barkeep/internal/server"
	"barkeep/internal/usage"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	ensureOwnerFunc     = handlers.EnsureOwner
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		applog.Error(ctx, "failed to prepare database", "error", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	scheduler := usage.NewScheduler(usage.Options{
		Workers:    cfg.Usage.Workers,
		Timeout:    cfg.Usage.Timeout,
		Registerer: registry,
	})
	defer scheduler.Close()

	store := catalog.New(database)
	service := bar.NewService(store, cache.NewLists(), scheduler)

	srv, err := newServerFunc(server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Auth.Session.Lifetime,
			CookieName:   cfg.Auth.Session.CookieName,
			CookieDomain: cfg.Auth.Session.CookieDomain,
			CookieSecure: cfg.Auth.Session.CookieSecure,
		},
		Database: database,
		Service:  service,
		Store:    store,
		Metrics:  registry,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	signals, stop := subscribeShutdownSig()
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-signals:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "shutting down http server", "reason", ctx.Err())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server encountered an error", "error", err)
		return 1
	}
	applog.Info(ctx, "server stopped")
	return 0
}

// openDatabase returns the seeded mock database or connects to the configured
// one, seeding reference data and the owner account there.
func openDatabase(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	if cfg.Database.UseMock {
		applog.Info(ctx, "using in-memory mock database", "owner", mock.OwnerEmail)
		return newMockDatabaseFunc(ctx)
	}

	database, err := configureDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := catalog.New(database).SeedReference(ctx); err != nil {
		return nil, err
	}

	owner := cfg.Auth.Owner
	if owner.Email == "" {
		applog.Warn(ctx, "no owner account configured; sign-in needs an existing user")
		return database, nil
	}
	if err := ensureOwnerFunc(ctx, database, owner.Email, owner.Name, owner.Password); err != nil {
		return nil, err
	}
	return database, nil
}
