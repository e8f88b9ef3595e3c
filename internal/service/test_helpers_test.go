// internal/service/test_helpers_test.go
package service

import (
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/projecthub/internal/models"
)

// fixedNow is the clock used by every service test: 2024-06-15 12:00 UTC.
var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var (
	projectCols = []string{"id", "name", "description", "start_date", "end_date", "status", "created_at", "updated_at"}
	taskCols    = []string{"id", "project_id", "title", "description", "assignee", "start_date", "end_date", "priority", "status", "created_at", "updated_at"}
	statsCols   = []string{"total_tasks", "completed_tasks", "pending_tasks", "overdue_tasks"}
)

// TestHelpers wraps a sqlmock connection with expectations for the
// statements the services issue.
type TestHelpers struct {
	t    *testing.T
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

// NewTestHelpers creates a new test helper instance
func NewTestHelpers(t *testing.T) *TestHelpers {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &TestHelpers{
		t:    t,
		db:   sqlx.NewDb(db, "postgres"),
		mock: mock,
	}
}

func (h *TestHelpers) ProjectService() *ProjectService {
	return NewProjectService(h.db, fixedClock)
}

func (h *TestHelpers) TaskService() *TaskService {
	return NewTaskService(h.db, fixedClock)
}

// ProjectRow builds a projects row.
func (h *TestHelpers) ProjectRow(id int64, name string, status models.ProjectStatus) []driver.Value {
	return []driver.Value{id, name, nil, nil, nil, string(status), fixedNow.Add(-time.Hour), nil}
}

// TaskRow builds a tasks row.
func (h *TestHelpers) TaskRow(id, projectID int64, title string, start, end models.Date, priority models.TaskPriority, status models.TaskStatus) []driver.Value {
	return []driver.Value{
		id, projectID, title, nil, "ana", start.Time(), end.Time(),
		int64(priority), string(status), fixedNow.Add(-time.Hour), nil,
	}
}

// ExpectGetProject expects the project lookup and returns the given row, or
// no row when row is nil.
func (h *TestHelpers) ExpectGetProject(id int64, row []driver.Value) {
	rows := sqlmock.NewRows(projectCols)
	if row != nil {
		rows.AddRow(row...)
	}
	h.mock.ExpectQuery(regexp.QuoteMeta(`FROM "projects" WHERE "id" = $1`)).
		WithArgs(id).
		WillReturnRows(rows)
}

// ExpectStatistics expects the per-project aggregate.
func (h *TestHelpers) ExpectStatistics(projectID int64, total, completed, pending, overdue int) {
	h.mock.ExpectQuery(regexp.QuoteMeta(`FILTER (WHERE "end_date" < $3 AND "status" <> $4) AS "overdue_tasks" FROM "tasks" WHERE "project_id" = $5`)).
		WithArgs("completed", "pending", models.DateOf(fixedNow).Time(), "completed", projectID, projectID).
		WillReturnRows(sqlmock.NewRows(statsCols).AddRow(total, completed, pending, overdue))
}

// ExpectStatisticsGone expects the per-project aggregate for a project that
// no longer exists: the HAVING guard yields no row.
func (h *TestHelpers) ExpectStatisticsGone(projectID int64) {
	h.mock.ExpectQuery(regexp.QuoteMeta(`HAVING EXISTS (SELECT "id" FROM "projects" WHERE "id" = $6)`)).
		WithArgs("completed", "pending", models.DateOf(fixedNow).Time(), "completed", projectID, projectID).
		WillReturnRows(sqlmock.NewRows(statsCols))
}

// ExpectProjectExists expects the existence probe used before task creation.
func (h *TestHelpers) ExpectProjectExists(id int64, exists bool) {
	rows := sqlmock.NewRows([]string{"id"})
	if exists {
		rows.AddRow(id)
	}
	h.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "projects" WHERE "id" = $1`)).
		WithArgs(id).
		WillReturnRows(rows)
}

// ExpectGetTask expects the task lookup and returns the given row, or no row
// when row is nil.
func (h *TestHelpers) ExpectGetTask(id int64, row []driver.Value) {
	rows := sqlmock.NewRows(taskCols)
	if row != nil {
		rows.AddRow(row...)
	}
	h.mock.ExpectQuery(regexp.QuoteMeta(`FROM "tasks" WHERE "id" = $1`)).
		WithArgs(id).
		WillReturnRows(rows)
}

// AssertExpectations verifies every expected statement ran and nothing else.
func (h *TestHelpers) AssertExpectations() {
	require.NoError(h.t, h.mock.ExpectationsWereMet())
}
