// internal/repository/task_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/projecthub/internal/database"
	"github.com/gurkanbulca/projecthub/internal/models"
)

var taskColumns = []string{
	"id", "project_id", "title", "description", "assignee", "start_date", "end_date",
	"priority", "status", "created_at", "updated_at",
}

type TaskRepository struct {
	db database.DBTX
}

func NewTaskRepository(db database.DBTX) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

func (r *TaskRepository) Create(ctx context.Context, t *models.TaskCreate) (*models.Task, error) {
	query, args := database.Builder().
		Insert(tasksTable).
		Columns("project_id", "title", "description", "assignee", "start_date", "end_date", "priority", "status").
		Values(t.ProjectID, t.Title, t.Description, t.Assignee, t.StartDate, t.EndDate, t.Priority, t.Status).
		Returning(taskColumns...).
		Query()

	var task models.Task
	if err := sqlx.GetContext(ctx, r.db, &task, query, args...); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query, args := database.Builder().
		Select(taskColumns...).
		From(entsql.Table(tasksTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var task models.Task
	if err := sqlx.GetContext(ctx, r.db, &task, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &task, nil
}

// List returns one page of tasks matching filter, newest first, and the total
// number of matches before pagination. Assignee and priority match exactly.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, int, error) {
	var where database.Filter
	if filter.ProjectID != nil {
		where.EQ("project_id", *filter.ProjectID)
	}
	if filter.Status != nil {
		where.EQ("status", *filter.Status)
	}
	if filter.Assignee != nil {
		where.EQ("assignee", *filter.Assignee)
	}
	if filter.Priority != nil {
		where.EQ("priority", *filter.Priority)
	}

	// Get total count before pagination
	countQuery, countArgs := where.Apply(
		database.Builder().Select(entsql.Count("*")).From(entsql.Table(tasksTable)),
	).Query()

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	sel := where.Apply(
		database.Builder().Select(taskColumns...).From(entsql.Table(tasksTable)),
	).OrderBy(entsql.Desc("created_at"))
	page := database.Page{Number: filter.Page, Size: filter.PageSize}
	query, args := page.Apply(sel).Query()

	tasks := []*models.Task{}
	if err := sqlx.SelectContext(ctx, r.db, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}

	return tasks, total, nil
}

// Update applies patch and stamps updated_at. It returns ErrNotFound when no
// row matched.
func (r *TaskRepository) Update(ctx context.Context, id int64, patch *database.Patch) (*models.Task, error) {
	upd := database.Builder().Update(tasksTable)
	patch.Apply(upd).
		Set("updated_at", entsql.Expr("CURRENT_TIMESTAMP")).
		Where(entsql.EQ("id", id)).
		Returning(taskColumns...)
	query, args := upd.Query()

	var task models.Task
	if err := sqlx.GetContext(ctx, r.db, &task, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	return &task, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error) {
	var patch database.Patch
	patch.Set("status", status)
	return r.Update(ctx, id, &patch)
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	query, args := database.Builder().
		Delete(tasksTable).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
