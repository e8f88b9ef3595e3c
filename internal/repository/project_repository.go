// internal/repository/project_repository.go
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

// ErrNotFound is returned when a statement addressed a row that does not exist.
var ErrNotFound = errors.New("record not found")

const (
	projectsTable = "projects"
	tasksTable    = "tasks"
)

var projectColumns = []string{
	"id", "name", "description", "start_date", "end_date", "status", "created_at", "updated_at",
}

type ProjectRepository struct {
	db database.DBTX
}

func NewProjectRepository(db database.DBTX) *ProjectRepository {
	return &ProjectRepository{
		db: db,
	}
}

func (r *ProjectRepository) Create(ctx context.Context, p *models.ProjectCreate) (*models.Project, error) {
	query, args := database.Builder().
		Insert(projectsTable).
		Columns("name", "description", "start_date", "end_date", "status").
		Values(p.Name, p.Description, p.StartDate, p.EndDate, p.Status).
		Returning(projectColumns...).
		Query()

	var project models.Project
	if err := sqlx.GetContext(ctx, r.db, &project, query, args...); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query, args := database.Builder().
		Select(projectColumns...).
		From(entsql.Table(projectsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var project models.Project
	if err := sqlx.GetContext(ctx, r.db, &project, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &project, nil
}

// Exists reports whether a project with id exists.
func (r *ProjectRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query, args := database.Builder().
		Select("id").
		From(entsql.Table(projectsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var found int64
	if err := sqlx.GetContext(ctx, r.db, &found, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check project %d: %w", id, err)
	}
	return true, nil
}

// List returns one page of projects matching filter, newest first, and the
// total number of matches before pagination.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]*models.Project, int, error) {
	var where database.Filter
	if filter.Status != nil {
		where.EQ("status", *filter.Status)
	}
	if filter.Search != "" {
		where.ContainsFold(filter.Search, "name", "description")
	}

	// Get total count before pagination
	countQuery, countArgs := where.Apply(
		database.Builder().Select(entsql.Count("*")).From(entsql.Table(projectsTable)),
	).Query()

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	sel := where.Apply(
		database.Builder().Select(projectColumns...).From(entsql.Table(projectsTable)),
	).OrderBy(entsql.Desc("created_at"))
	page := database.Page{Number: filter.Page, Size: filter.PageSize}
	query, args := page.Apply(sel).Query()

	projects := []*models.Project{}
	if err := sqlx.SelectContext(ctx, r.db, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("query projects: %w", err)
	}

	return projects, total, nil
}

// Update applies patch and stamps updated_at. It returns ErrNotFound when no
// row matched.
func (r *ProjectRepository) Update(ctx context.Context, id int64, patch *database.Patch) (*models.Project, error) {
	upd := database.Builder().Update(projectsTable)
	patch.Apply(upd).
		Set("updated_at", entsql.Expr("CURRENT_TIMESTAMP")).
		Where(entsql.EQ("id", id)).
		Returning(projectColumns...)
	query, args := upd.Query()

	var project models.Project
	if err := sqlx.GetContext(ctx, r.db, &project, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}
	return &project, nil
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id int64, status models.ProjectStatus) (*models.Project, error) {
	var patch database.Patch
	patch.Set("status", status)
	return r.Update(ctx, id, &patch)
}

// Delete removes the project; its tasks go with it through ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	query, args := database.Builder().
		Delete(projectsTable).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// statisticsColumns are the aggregate expressions behind ProjectStatistics.
func statisticsColumns(today models.Date) []entsql.Querier {
	return []entsql.Querier{
		database.CountAs("total_tasks", nil),
		database.CountAs("completed_tasks", entsql.EQ("status", models.TaskStatusCompleted)),
		database.CountAs("pending_tasks", entsql.EQ("status", models.TaskStatusPending)),
		database.CountAs("overdue_tasks", entsql.And(
			entsql.LT("end_date", today),
			entsql.NEQ("status", models.TaskStatusCompleted),
		)),
	}
}

// Statistics aggregates the tasks of one project. Overdue is judged against
// today. The HAVING clause drops the aggregate row when the project itself
// is gone, so a missing project reads as ErrNotFound instead of zeroes.
func (r *ProjectRepository) Statistics(ctx context.Context, projectID int64, today models.Date) (*models.ProjectStatistics, error) {
	project := entsql.Select("id").
		From(entsql.Table(projectsTable)).
		Where(entsql.EQ("id", projectID))

	query, args := database.Builder().
		Select().
		From(entsql.Table(tasksTable)).
		SelectExpr(statisticsColumns(today)...).
		Where(entsql.EQ("project_id", projectID)).
		Having(entsql.Exists(project)).
		Query()

	var stats models.ProjectStatistics
	if err := sqlx.GetContext(ctx, r.db, &stats, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("project %d statistics: %w", projectID, err)
	}
	stats.ComputeRate()
	return &stats, nil
}

type projectStatisticsRow struct {
	ProjectID int64 `db:"project_id"`
	models.ProjectStatistics
}

// StatisticsFor aggregates the tasks of several projects in one grouped
// query. Projects without tasks get zeroed statistics.
func (r *ProjectRepository) StatisticsFor(ctx context.Context, projectIDs []int64, today models.Date) (map[int64]*models.ProjectStatistics, error) {
	out := make(map[int64]*models.ProjectStatistics, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	ids := make([]any, len(projectIDs))
	for i, id := range projectIDs {
		ids[i] = id
		out[id] = &models.ProjectStatistics{}
	}

	query, args := database.Builder().
		Select("project_id").
		AppendSelectExpr(statisticsColumns(today)...).
		From(entsql.Table(tasksTable)).
		Where(entsql.In("project_id", ids...)).
		GroupBy("project_id").
		Query()

	var rows []projectStatisticsRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("project statistics: %w", err)
	}

	for i := range rows {
		stats := rows[i].ProjectStatistics
		stats.ComputeRate()
		out[rows[i].ProjectID] = &stats
	}
	return out, nil
}
