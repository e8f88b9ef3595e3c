package module

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/projecthub/internal/apperrors"
)

// Context keys set on every request routed to a module.
const (
	ContextKeyModule = "module"
	ContextKeyTags   = "module_tags"
)

// RootMounted is implemented by modules that serve human-facing pages. They
// are mounted at the root instead of under the API prefix.
type RootMounted interface {
	MountAtRoot() bool
}

// RouteInfo describes one mounted route.
type RouteInfo struct {
	Method string
	Path   string
	Module string
	Tags   []string
}

// Registry owns the module instances and drives their lifecycle in
// registration order.
type Registry struct {
	app     *App
	log     *slog.Logger
	modules []Module
	byName  map[string]Module
}

func NewRegistry(app *App) *Registry {
	log := slog.Default()
	if app != nil && app.Logger != nil {
		log = app.Logger
	}
	return &Registry{
		app:    app,
		log:    log,
		byName: make(map[string]Module),
	}
}

// Register builds the module and stores it under its name. A second module
// reporting the same name is a conflict.
func (r *Registry) Register(factory Factory) error {
	m := factory(r.app)
	name := m.Name()
	if _, exists := r.byName[name]; exists {
		return apperrors.Conflict("module %q already registered", name)
	}

	r.byName[name] = m
	r.modules = append(r.modules, m)
	r.log.Debug("module registered", "module", name, "prefix", m.Prefix())
	return nil
}

func (r *Registry) Get(name string) (Module, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Modules returns the modules in registration order.
func (r *Registry) Modules() []Module {
	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// InitAll runs every init hook sequentially. Later modules may depend on
// schema created by earlier ones, so the first failure stops the run.
func (r *Registry) InitAll(ctx context.Context) error {
	for _, m := range r.modules {
		if err := m.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", m.Name(), err)
		}
		r.log.Info("module initialized", "module", m.Name())
	}
	return nil
}

// CleanupAll runs every cleanup hook. Failures are logged and do not stop
// the remaining modules from cleaning up.
func (r *Registry) CleanupAll(ctx context.Context) {
	for _, m := range r.modules {
		if err := m.Cleanup(ctx); err != nil {
			r.log.Error("module cleanup failed", "module", m.Name(), "error", err)
			continue
		}
		r.log.Info("module cleaned up", "module", m.Name())
	}
}

// MountAll attaches every module's routes to router under
// {api prefix}{module prefix}, or at the root for RootMounted modules.
func (r *Registry) MountAll(router gin.IRouter) {
	for _, m := range r.modules {
		table := m.Routes()

		group := router.Group(r.mountPath(m))
		group.Use(tagRequest(m.Name(), m.Tags()))
		group.Use(table.Middleware()...)

		for _, route := range table.Routes() {
			group.Handle(route.Method, route.Path, route.Handlers...)
		}
	}
}

// RouteInfos lists the routes MountAll would mount, with their full paths.
func (r *Registry) RouteInfos() []RouteInfo {
	var out []RouteInfo
	for _, m := range r.modules {
		base := r.mountPath(m)
		for _, route := range m.Routes().Routes() {
			out = append(out, RouteInfo{
				Method: route.Method,
				Path:   joinPath(base, route.Path),
				Module: m.Name(),
				Tags:   m.Tags(),
			})
		}
	}
	return out
}

func (r *Registry) mountPath(m Module) string {
	if rm, ok := m.(RootMounted); ok && rm.MountAtRoot() {
		return "/"
	}
	prefix := ""
	if r.app != nil && r.app.Config != nil {
		prefix = r.app.Config.App.APIPrefix
	}
	return joinPath(prefix, m.Prefix())
}

func tagRequest(name string, tags []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyModule, name)
		c.Set(ContextKeyTags, tags)
		c.Next()
	}
}

// joinPath joins URL segments the way gin does, keeping a trailing slash.
func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	joined := path.Join(base, rel)
	if strings.HasSuffix(rel, "/") && !strings.HasSuffix(joined, "/") {
		return joined + "/"
	}
	if joined == "" {
		return "/"
	}
	return joined
}
