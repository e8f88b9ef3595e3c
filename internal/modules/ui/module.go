// Package ui serves the browser front end at the site root.
package ui

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/gurkanbulca/projecthub/internal/config"
	"github.com/gurkanbulca/projecthub/internal/models"
	"github.com/gurkanbulca/projecthub/internal/module"
)

const Name = "ui"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type Module struct {
	*module.Base
	tmpl   *template.Template
	static http.FileSystem
}

func New(app *module.App) module.Module {
	m := &Module{}
	m.Base = module.NewBase(app, Name, m.registerRoutes)
	return m
}

// UI routes are unprefixed.
func (m *Module) Prefix() string { return "" }

func (m *Module) Tags() []string { return []string{"ui"} }

func (m *Module) MountAtRoot() bool { return true }

func (m *Module) registerRoutes(r *module.RouteTable) {
	m.tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	m.static = http.FS(sub)

	r.GET("/", m.index)
	r.GET("/static/*filepath", m.serveStatic)
}

type priorityOption struct {
	Value int
	Name  string
}

type page struct {
	Name            string
	Version         string
	APIPrefix       string
	ProjectStatuses []models.ProjectStatus
	TaskStatuses    []models.TaskStatus
	Priorities      []priorityOption
}

func (m *Module) index(c *gin.Context) {
	settings := config.DefaultApp()
	if app := m.App(); app != nil && app.Config != nil {
		settings = app.Config.App
	}

	data := page{
		Name:            settings.Name,
		Version:         settings.Version,
		APIPrefix:       settings.APIPrefix,
		ProjectStatuses: models.ProjectStatuses(),
		TaskStatuses:    models.TaskStatuses(),
	}
	for p := models.PriorityLow; p <= models.PriorityCritical; p++ {
		data.Priorities = append(data.Priorities, priorityOption{Value: int(p), Name: p.String()})
	}

	c.Render(http.StatusOK, render.HTML{Template: m.tmpl, Name: "index.html", Data: data})
}

func (m *Module) serveStatic(c *gin.Context) {
	c.FileFromFS(c.Param("filepath"), m.static)
}
