// Package app assembles the modules, the pool and the servers, and drives
// the process lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/gurkanbulca/projecthub/internal/config"
	"github.com/gurkanbulca/projecthub/internal/database"
	"github.com/gurkanbulca/projecthub/internal/health"
	"github.com/gurkanbulca/projecthub/internal/module"
	"github.com/gurkanbulca/projecthub/internal/modules/projects"
	"github.com/gurkanbulca/projecthub/internal/modules/tasks"
	"github.com/gurkanbulca/projecthub/internal/modules/ui"
	"github.com/gurkanbulca/projecthub/internal/server"
)

// Modules lists the module factories in registration order. Tasks depends
// on the projects table, so projects comes first.
func Modules() []module.Factory {
	return []module.Factory{
		projects.New,
		tasks.New,
		ui.New,
	}
}

// NewRegistry registers every module against shared.
func NewRegistry(shared *module.App, factories []module.Factory) (*module.Registry, error) {
	registry := module.NewRegistry(shared)
	for _, f := range factories {
		if err := registry.Register(f); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

type App struct {
	cfg      *config.Config
	log      *slog.Logger
	pool     *sqlx.DB
	registry *module.Registry
	engine   *gin.Engine
	health   *health.Server
}

// New opens the pool, registers the modules and runs their init hooks. The
// pool is closed again if any step fails.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	pool, err := openPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a, err := build(ctx, cfg, log, pool)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, log *slog.Logger, pool *sqlx.DB) (*App, error) {
	shared := &module.App{Pool: pool, Config: cfg, Logger: log}

	registry, err := NewRegistry(shared, Modules())
	if err != nil {
		return nil, err
	}
	if err := registry.InitAll(ctx); err != nil {
		return nil, err
	}

	engine := server.NewEngine(cfg, pool, log)
	registry.MountAll(engine)

	a := &App{
		cfg:      cfg,
		log:      log,
		pool:     pool,
		registry: registry,
		engine:   engine,
	}

	if cfg.Server.GRPCEnabled {
		var names []string
		for _, m := range registry.Modules() {
			names = append(names, m.Name())
		}
		a.health = health.New(names, cfg.Server.EnableReflection, log)
	}
	return a, nil
}

// Run serves until ctx is cancelled. On the way out the health service
// reports NOT_SERVING first, then HTTP drains, then modules clean up and the
// pool is closed.
func (a *App) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", ":"+a.cfg.Server.HTTPPort)
	if err != nil {
		a.close()
		return fmt.Errorf("listen http: %w", err)
	}

	var grpcLis net.Listener
	if a.health != nil {
		grpcLis, err = net.Listen("tcp", ":"+a.cfg.Server.GRPCPort)
		if err != nil {
			_ = httpLis.Close()
			a.close()
			return fmt.Errorf("listen grpc: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	httpCtx, stopHTTP := context.WithCancel(context.Background())
	defer stopHTTP()

	g.Go(func() error {
		return server.Run(httpCtx, httpLis, a.engine, a.cfg.Server.ShutdownTimeout, a.log)
	})
	if a.health != nil {
		g.Go(func() error {
			return a.health.Serve(grpcLis)
		})
		a.health.SetServing()
	}

	g.Go(func() error {
		<-gctx.Done()
		if a.health != nil {
			a.health.SetNotServing()
		}
		stopHTTP()
		if a.health != nil {
			a.health.Shutdown()
		}
		return nil
	})

	a.log.Info("server started",
		"app", a.cfg.App.Name,
		"version", a.cfg.App.Version,
		"http_port", a.cfg.Server.HTTPPort,
		"grpc_enabled", a.health != nil,
	)

	err = g.Wait()
	a.close()
	return err
}

func (a *App) close() {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = shutdownGrace
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.registry.CleanupAll(ctx)
	if err := a.pool.Close(); err != nil {
		a.log.Error("failed to close database pool", "error", err)
	}
	a.log.Info("shutdown complete")
}

// Migrate runs every module's init hook and exits.
func Migrate(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := openPool(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	registry, err := NewRegistry(&module.App{Pool: pool, Config: cfg, Logger: log}, Modules())
	if err != nil {
		return err
	}
	return registry.InitAll(ctx)
}

// Routes lists the routes the server would mount. No database is needed.
func Routes(cfg *config.Config, log *slog.Logger) ([]module.RouteInfo, error) {
	registry, err := NewRegistry(&module.App{Config: cfg, Logger: log}, Modules())
	if err != nil {
		return nil, err
	}
	return registry.RouteInfos(), nil
}

func openPool(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sqlx.DB, error) {
	return database.NewPool(ctx, database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
}

// Handler exposes the assembled HTTP handler, mainly for tests.
func (a *App) Handler() *gin.Engine { return a.engine }

// shutdownGrace bounds cleanup when no timeout is configured.
const shutdownGrace = 10 * time.Second
