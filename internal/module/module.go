// Package module defines the unit the application is assembled from: a named
// set of routes under a URL prefix with init and cleanup hooks.
package module

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/projecthub/internal/config"
)

// App is the shared state handed to every module. Pool is nil when modules
// are built only for introspection; modules must not touch it before their
// routes are served or a lifecycle hook runs.
type App struct {
	Pool   *sqlx.DB
	Config *config.Config
	Logger *slog.Logger
}

// Module is implemented by every feature module.
type Module interface {
	Name() string
	Prefix() string
	Tags() []string
	// Routes returns the module's route table, building it on first call.
	Routes() *RouteTable
	Init(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// Factory builds a module around the shared application handle.
type Factory func(app *App) Module

// Route is one handler chain registered by a module, relative to its prefix.
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

// RouteTable collects a module's routes before they are mounted on an engine.
type RouteTable struct {
	middleware []gin.HandlerFunc
	routes     []Route
}

// Use adds middleware that runs before every route of the module.
func (t *RouteTable) Use(handlers ...gin.HandlerFunc) {
	t.middleware = append(t.middleware, handlers...)
}

func (t *RouteTable) Handle(method, path string, handlers ...gin.HandlerFunc) {
	t.routes = append(t.routes, Route{Method: method, Path: path, Handlers: handlers})
}

func (t *RouteTable) GET(path string, handlers ...gin.HandlerFunc) {
	t.Handle(http.MethodGet, path, handlers...)
}

func (t *RouteTable) POST(path string, handlers ...gin.HandlerFunc) {
	t.Handle(http.MethodPost, path, handlers...)
}

func (t *RouteTable) PUT(path string, handlers ...gin.HandlerFunc) {
	t.Handle(http.MethodPut, path, handlers...)
}

func (t *RouteTable) PATCH(path string, handlers ...gin.HandlerFunc) {
	t.Handle(http.MethodPatch, path, handlers...)
}

func (t *RouteTable) DELETE(path string, handlers ...gin.HandlerFunc) {
	t.Handle(http.MethodDelete, path, handlers...)
}

func (t *RouteTable) Middleware() []gin.HandlerFunc { return t.middleware }

func (t *RouteTable) Routes() []Route { return t.routes }

func (t *RouteTable) Len() int { return len(t.routes) }

// Base carries the parts every module shares: the application handle and a
// route table that is registered exactly once, on first access. Concrete
// modules embed a *Base and may override Init and Cleanup.
type Base struct {
	app      *App
	name     string
	register func(*RouteTable)

	once  sync.Once
	table *RouteTable
}

// NewBase wires the route registration procedure; it is not called here.
func NewBase(app *App, name string, register func(*RouteTable)) *Base {
	return &Base{app: app, name: name, register: register}
}

func (b *Base) Name() string { return b.name }

func (b *Base) App() *App { return b.app }

// Pool returns the shared pool, or nil when the module was built without one.
func (b *Base) Pool() *sqlx.DB {
	if b.app == nil {
		return nil
	}
	return b.app.Pool
}

// Logger returns the application logger tagged with the module name.
func (b *Base) Logger() *slog.Logger {
	if b.app == nil || b.app.Logger == nil {
		return slog.Default().With("module", b.name)
	}
	return b.app.Logger.With("module", b.name)
}

func (b *Base) Routes() *RouteTable {
	b.once.Do(func() {
		b.table = &RouteTable{}
		if b.register != nil {
			b.register(b.table)
		}
	})
	return b.table
}

func (b *Base) Init(context.Context) error { return nil }

func (b *Base) Cleanup(context.Context) error { return nil }
