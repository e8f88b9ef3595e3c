// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gurkanbulca/projecthub/internal/apperrors"
	"github.com/gurkanbulca/projecthub/internal/database"
	"github.com/gurkanbulca/projecthub/internal/models"
	"github.com/gurkanbulca/projecthub/internal/repository"
)

type TaskService struct {
	repo     *repository.TaskRepository
	projects *repository.ProjectRepository
	now      Clock
}

// NewTaskService builds a service over one connection. A nil clock means
// time.Now.
func NewTaskService(db database.DBTX, now Clock) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		repo:     repository.NewTaskRepository(db),
		projects: repository.NewProjectRepository(db),
		now:      now,
	}
}

// CreateTask creates a new task. The project must exist and the dates must
// be ordered; the task always starts pending.
func (s *TaskService) CreateTask(ctx context.Context, req *models.TaskCreate) (*models.Task, error) {
	exists, err := s.projects.Exists(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, projectNotFound(req.ProjectID)
	}

	if req.EndDate.Before(req.StartDate) {
		return nil, apperrors.BadRequest("End date cannot be earlier than start date")
	}

	req.Normalize()

	task, err := s.repo.Create(ctx, req)
	if err != nil {
		// The project was deleted after the existence check.
		if database.IsForeignKeyViolation(err) {
			return nil, projectNotFound(req.ProjectID)
		}
		if database.IsCheckViolation(err) {
			return nil, errPriorityRange
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	task.CalculateMetadata(s.now())
	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, taskError(err, id)
	}
	task.CalculateMetadata(s.now())
	return task, nil
}

// ListTasks retrieves a list of tasks
func (s *TaskService) ListTasks(ctx context.Context, filter models.TaskFilter) (*models.TaskList, error) {
	filter.Normalize()

	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	now := s.now()
	for _, t := range tasks {
		t.CalculateMetadata(now)
	}

	return &models.TaskList{
		Tasks: tasks,
		PageInfo: models.PageInfo{
			Total:      total,
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalPages: database.TotalPages(total, filter.PageSize),
		},
	}, nil
}

// UpdateTask applies a sparse patch. The current task is read first so a
// missing id fails before any statement runs.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, req *models.TaskUpdate) (*models.Task, error) {
	if _, err := s.GetTask(ctx, id); err != nil {
		return nil, err
	}

	patch := taskPatch(req)
	if patch.Len() == 0 {
		return nil, apperrors.BadRequest("No fields to update")
	}

	task, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, taskError(err, id)
	}

	task.CalculateMetadata(s.now())
	return task, nil
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return taskError(err, id)
	}
	return nil
}

func (s *TaskService) ChangeStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error) {
	task, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, taskError(err, id)
	}
	task.CalculateMetadata(s.now())
	return task, nil
}

// Helper functions

func taskError(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Task %d not found", id)
	}
	if database.IsCheckViolation(err) {
		return errPriorityRange
	}
	return fmt.Errorf("task %d: %w", id, err)
}

// tasks.priority carries the only CHECK constraint.
var errPriorityRange = apperrors.Validation("priority: must be between 1 and 5")

func projectNotFound(id int64) error {
	return apperrors.NotFound("Project %d not found", id)
}

func taskPatch(req *models.TaskUpdate) *database.Patch {
	var patch database.Patch

	if v, ok := req.Title.Value(); ok {
		patch.Set("title", v)
	}
	setNullable(&patch, "description", req.Description)
	if v, ok := req.Assignee.Value(); ok {
		patch.Set("assignee", v)
	}
	if v, ok := req.StartDate.Value(); ok {
		patch.Set("start_date", v)
	}
	if v, ok := req.EndDate.Value(); ok {
		patch.Set("end_date", v)
	}
	if v, ok := req.Priority.Value(); ok {
		patch.Set("priority", v)
	}
	if v, ok := req.Status.Value(); ok {
		patch.Set("status", v)
	}

	return &patch
}
