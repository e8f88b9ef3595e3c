// Package projects is the module that owns the projects table and its
// JSON API.
package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/projecthub/internal/database"
	"github.com/gurkanbulca/projecthub/internal/middleware"
	"github.com/gurkanbulca/projecthub/internal/models"
	"github.com/gurkanbulca/projecthub/internal/module"
	"github.com/gurkanbulca/projecthub/internal/service"
)

const Name = "projects"

type Module struct {
	*module.Base
	validator *middleware.Validator
	now       service.Clock
}

// New builds the module. app may carry a nil pool when only the route table
// is inspected.
func New(app *module.App) module.Module {
	m := &Module{validator: middleware.NewValidator(nil)}
	m.Base = module.NewBase(app, Name, m.registerRoutes)
	return m
}

func (m *Module) Prefix() string { return "/projects" }

func (m *Module) Tags() []string { return []string{"projects"} }

// Init creates the project_status type, the projects table and its indexes.
func (m *Module) Init(ctx context.Context) error {
	return database.ApplySchema(ctx, m.Pool(), schema)
}

func (m *Module) registerRoutes(r *module.RouteTable) {
	r.Use(middleware.DBConn(m.Pool()))

	r.POST("/", m.create)
	r.GET("/", m.list)
	r.GET("/:id", m.get)
	r.PUT("/:id", m.update)
	r.DELETE("/:id", m.delete)
	r.PATCH("/:id/status", m.changeStatus)
}

type listQuery struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=10" binding:"min=1,max=100"`
}

func (m *Module) create(c *gin.Context) {
	var req models.ProjectCreate
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}
	if err := m.validator.ValidateProjectCreate(&req); err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	project, err := svc.CreateProject(c.Request.Context(), &req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (m *Module) list(c *gin.Context) {
	var q listQuery
	if err := middleware.BindQuery(c, &q); err != nil {
		middleware.Fail(c, err)
		return
	}

	filter := models.ProjectFilter{
		Search:     q.Search,
		Pagination: models.Pagination{Page: q.Page, PageSize: q.PageSize},
	}
	if q.Status != "" {
		status, err := m.validator.ParseProjectStatus(q.Status)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		filter.Status = &status
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	list, err := svc.ListProjects(c.Request.Context(), filter)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (m *Module) get(c *gin.Context) {
	id, err := middleware.PathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	project, err := svc.GetProject(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (m *Module) update(c *gin.Context) {
	id, err := middleware.PathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req models.ProjectUpdate
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}
	if err := m.validator.ValidateProjectUpdate(&req); err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	project, err := svc.UpdateProject(c.Request.Context(), id, &req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (m *Module) delete(c *gin.Context) {
	id, err := middleware.PathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if err := svc.DeleteProject(c.Request.Context(), id); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// changeStatus accepts the status as ?status= or as {"status": "..."}.
func (m *Module) changeStatus(c *gin.Context) {
	id, err := middleware.PathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	raw, err := middleware.StatusParam(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	status, err := m.validator.ParseProjectStatus(raw)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	project, err := svc.ChangeStatus(c.Request.Context(), id, status)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (m *Module) service(c *gin.Context) (*service.ProjectService, error) {
	conn, ok := middleware.Conn(c)
	if !ok {
		return nil, errors.New("no database connection on request")
	}
	return service.NewProjectService(conn, m.now), nil
}
