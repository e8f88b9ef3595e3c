// Package tasks is the module that owns the tasks table and its JSON API.
package tasks

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

const Name = "tasks"

type Module struct {
	*module.Base
	validator *middleware.Validator
	now       service.Clock
}

func New(app *module.App) module.Module {
	m := &Module{validator: middleware.NewValidator(nil)}
	m.Base = module.NewBase(app, Name, m.registerRoutes)
	return m
}

func (m *Module) Prefix() string { return "/tasks" }

func (m *Module) Tags() []string { return []string{"tasks"} }

// Init creates the task_status type, the tasks table and its indexes.
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
	ProjectID *int64  `form:"project_id" binding:"omitempty,min=0"`
	Status    string  `form:"status"`
	Assignee  *string `form:"assignee"`
	Priority  *int    `form:"priority" binding:"omitempty,min=0,max=5"`
	Page      int     `form:"page,default=1" binding:"min=1"`
	PageSize  int     `form:"page_size,default=10" binding:"min=1,max=100"`
}

// filter converts the bound query. Empty and zero values mean "no filter".
func (q listQuery) filter(v *middleware.Validator) (models.TaskFilter, error) {
	filter := models.TaskFilter{
		Pagination: models.Pagination{Page: q.Page, PageSize: q.PageSize},
	}
	if q.ProjectID != nil && *q.ProjectID != 0 {
		filter.ProjectID = q.ProjectID
	}
	if q.Assignee != nil && *q.Assignee != "" {
		filter.Assignee = q.Assignee
	}
	if q.Status != "" {
		status, err := v.ParseTaskStatus(q.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if q.Priority != nil && *q.Priority != 0 {
		p := models.TaskPriority(*q.Priority)
		filter.Priority = &p
	}
	return filter, nil
}

func (m *Module) create(c *gin.Context) {
	var req models.TaskCreate
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}
	if err := m.validator.ValidateTaskCreate(&req); err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	task, err := svc.CreateTask(c.Request.Context(), &req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (m *Module) list(c *gin.Context) {
	var q listQuery
	if err := middleware.BindQuery(c, &q); err != nil {
		middleware.Fail(c, err)
		return
	}
	filter, err := q.filter(m.validator)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	list, err := svc.ListTasks(c.Request.Context(), filter)
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

	task, err := svc.GetTask(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (m *Module) update(c *gin.Context) {
	id, err := middleware.PathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req models.TaskUpdate
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}
	if err := m.validator.ValidateTaskUpdate(&req); err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	task, err := svc.UpdateTask(c.Request.Context(), id, &req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
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

	if err := svc.DeleteTask(c.Request.Context(), id); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
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
	status, err := m.validator.ParseTaskStatus(raw)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	svc, err := m.service(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	task, err := svc.ChangeStatus(c.Request.Context(), id, status)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (m *Module) service(c *gin.Context) (*service.TaskService, error) {
	conn, ok := middleware.Conn(c)
	if !ok {
		return nil, errors.New("no database connection on request")
	}
	return service.NewTaskService(conn, m.now), nil
}
