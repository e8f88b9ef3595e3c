package tasks

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/projecthub/internal/config"
	"github.com/gurkanbulca/projecthub/internal/logger"
	"github.com/gurkanbulca/projecthub/internal/middleware"
	"github.com/gurkanbulca/projecthub/internal/module"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	taskCols = []string{"id", "project_id", "title", "description", "assignee", "start_date", "end_date", "priority", "status", "created_at", "updated_at"}
	now      = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	day      = 24 * time.Hour
	today    = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
)

func taskRow(id int64, title string, end time.Time, status string) []driver.Value {
	return []driver.Value{id, int64(3), title, nil, "ana", today.Add(-7 * day), end, int64(2), status, now, nil}
}

type testEnv struct {
	engine *gin.Engine
	mock   sqlmock.Sqlmock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app := &module.App{
		Pool:   sqlx.NewDb(db, "postgres"),
		Config: &config.Config{App: config.AppConfig{APIPrefix: "/api/v1"}},
		Logger: logger.Discard(),
	}
	registry := module.NewRegistry(app)
	require.NoError(t, registry.Register(func(app *module.App) module.Module {
		m := New(app).(*Module)
		m.now = func() time.Time { return now }
		return m
	}))

	engine := gin.New()
	engine.Use(middleware.ErrorHandler(logger.Discard()))
	registry.MountAll(engine)

	return &testEnv{engine: engine, mock: mock}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type taskResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Priority      int    `json:"priority"`
	Status        string `json:"status"`
	IsOverdue     bool   `json:"is_overdue"`
	DaysRemaining int    `json:"days_remaining"`
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) taskResponse {
	t.Helper()
	var got taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

func TestModule_Metadata(t *testing.T) {
	m := New(&module.App{})

	assert.Equal(t, "tasks", m.Name())
	assert.Equal(t, "/tasks", m.Prefix())
	assert.Equal(t, []string{"tasks"}, m.Tags())
	assert.Equal(t, 6, m.Routes().Len())
}

func TestSchema_TasksFollowTheirProject(t *testing.T) {
	var table string
	for _, stmt := range schema {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS tasks") {
			table = stmt
		}
	}
	require.NotEmpty(t, table)
	assert.Contains(t, table, "project_id INTEGER REFERENCES projects(id) ON DELETE CASCADE")
}

func TestModule_InitStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TYPE task_status AS ENUM`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS tasks`)).
		WillReturnError(errors.New(`relation "projects" does not exist`))

	m := New(&module.App{Pool: sqlx.NewDb(db, "postgres"), Logger: logger.Discard()})
	err = m.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema statement 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlers_Create(t *testing.T) {
	valid := `{"project_id": 3, "title": "Draft", "assignee": "ana", "start_date": "2024-06-15", "end_date": "2024-06-16", "status": "completed"}`

	tests := []struct {
		name       string
		body       string
		setupFunc  func(e *testEnv)
		wantStatus int
		wantDetail string
	}{
		{
			name: "created pending with default priority",
			body: valid,
			setupFunc: func(e *testEnv) {
				e.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "projects" WHERE "id" = $1`)).
					WithArgs(3).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
				e.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tasks"`)).
					WithArgs(3, "Draft", nil, "ana", today, today.Add(day), 2, "pending").
					WillReturnRows(sqlmock.NewRows(taskCols).AddRow(taskRow(1, "Draft", today.Add(day), "pending")...))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown project",
			body: valid,
			setupFunc: func(e *testEnv) {
				e.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "projects"`)).
					WithArgs(3).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantStatus: http.StatusNotFound,
			wantDetail: "Project 3 not found",
		},
		{
			name: "end before start",
			body: `{"project_id": 3, "title": "Draft", "assignee": "ana", "start_date": "2024-06-15", "end_date": "2024-06-14"}`,
			setupFunc: func(e *testEnv) {
				e.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "projects"`)).
					WithArgs(3).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
			},
			wantStatus: http.StatusBadRequest,
			wantDetail: "End date cannot be earlier than start date",
		},
		{
			name:       "priority out of range",
			body:       `{"project_id": 3, "title": "Draft", "assignee": "ana", "start_date": "2024-06-15", "end_date": "2024-06-16", "priority": 9}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "priority: 9 is out of range (1-5)",
		},
		{
			name:       "bad date",
			body:       `{"project_id": 3, "title": "Draft", "assignee": "ana", "start_date": "15/06/2024", "end_date": "2024-06-16"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			if tt.setupFunc != nil {
				tt.setupFunc(e)
			}

			w := e.do(http.MethodPost, "/api/v1/tasks/", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantDetail != "" {
				assert.JSONEq(t, `{"detail":"`+tt.wantDetail+`"}`, w.Body.String())
			}
			if w.Code == http.StatusOK {
				got := decodeTask(t, w)
				assert.Equal(t, "pending", got.Status)
				assert.Equal(t, 2, got.Priority)
				assert.Equal(t, "2024-06-16", got.EndDate)
				assert.False(t, got.IsOverdue)
				assert.Equal(t, 1, got.DaysRemaining)
			}
			assert.NoError(t, e.mock.ExpectationsWereMet())
		})
	}
}

func TestHandlers_Get(t *testing.T) {
	tests := []struct {
		name          string
		end           time.Time
		status        string
		wantOverdue   bool
		wantRemaining int
	}{
		{name: "overdue", end: today.Add(-day), status: "pending", wantOverdue: true},
		{name: "due tomorrow", end: today.Add(day), status: "in_progress", wantRemaining: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.mock.ExpectQuery(regexp.QuoteMeta(`FROM "tasks" WHERE "id" = $1`)).
				WithArgs(1).
				WillReturnRows(sqlmock.NewRows(taskCols).AddRow(taskRow(1, "Draft", tt.end, tt.status)...))

			w := e.do(http.MethodGet, "/api/v1/tasks/1", "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			got := decodeTask(t, w)
			assert.Equal(t, tt.wantOverdue, got.IsOverdue)
			assert.Equal(t, tt.wantRemaining, got.DaysRemaining)
			assert.NoError(t, e.mock.ExpectationsWereMet())
		})
	}
}

func TestHandlers_List(t *testing.T) {
	t.Run("exact filters", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "tasks" WHERE "project_id" = $1 AND "status" = $2 AND "assignee" = $3 AND "priority" = $4`)).
			WithArgs(3, "pending", "ana", 4).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		e.mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY "created_at" DESC LIMIT 10 OFFSET 0`)).
			WithArgs(3, "pending", "ana", 4).
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow(taskRow(1, "Draft", today.Add(-day), "pending")...))

		w := e.do(http.MethodGet, "/api/v1/tasks/?project_id=3&status=pending&assignee=ana&priority=4", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got struct {
			Tasks      []taskResponse `json:"tasks"`
			Total      int            `json:"total"`
			TotalPages int            `json:"total_pages"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got.Tasks, 1)
		assert.True(t, got.Tasks[0].IsOverdue)
		assert.Equal(t, 25, got.Total)
		assert.Equal(t, 3, got.TotalPages)
		assert.NoError(t, e.mock.ExpectationsWereMet())
	})

	t.Run("empty and zero filters are ignored", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(`^` + regexp.QuoteMeta(`SELECT COUNT(*) FROM "tasks"`) + `$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		e.mock.ExpectQuery(regexp.QuoteMeta(`FROM "tasks" ORDER BY "created_at" DESC LIMIT 10 OFFSET 0`)).
			WillReturnRows(sqlmock.NewRows(taskCols))

		w := e.do(http.MethodGet, "/api/v1/tasks/?assignee=&priority=0&project_id=0", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"tasks":[],"total":0,"page":1,"page_size":10,"total_pages":0}`, w.Body.String())
		assert.NoError(t, e.mock.ExpectationsWereMet())
	})

	rejected := []struct {
		name       string
		query      string
		wantDetail string
	}{
		{name: "priority too high", query: "?priority=6", wantDetail: "priority: must be less than or equal to 5"},
		{name: "negative project", query: "?project_id=-1", wantDetail: "project_id: must be greater than or equal to 0"},
		{name: "negative priority", query: "?priority=-2", wantDetail: "priority: must be greater than or equal to 0"},
		{name: "unknown status", query: "?status=done"},
		{name: "page size", query: "?page_size=101", wantDetail: "page_size: must be less than or equal to 100"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			w := e.do(http.MethodGet, "/api/v1/tasks/"+tt.query, "")
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			if tt.wantDetail != "" {
				assert.JSONEq(t, `{"detail":"`+tt.wantDetail+`"}`, w.Body.String())
			}
		})
	}
}

func TestHandlers_Update(t *testing.T) {
	t.Run("title only", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(regexp.QuoteMeta(`FROM "tasks" WHERE "id" = $1`)).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow(taskRow(1, "Draft", today.Add(day), "in_progress")...))
		e.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "tasks" SET "title" = $1, "updated_at" = CURRENT_TIMESTAMP WHERE "id" = $2 RETURNING`)).
			WithArgs("Final", 1).
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow(taskRow(1, "Final", today.Add(day), "in_progress")...))

		w := e.do(http.MethodPut, "/api/v1/tasks/1", `{"title": "Final"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := decodeTask(t, w)
		assert.Equal(t, "Final", got.Title)
		assert.Equal(t, "in_progress", got.Status)
		assert.Equal(t, 2, got.Priority)
		assert.NoError(t, e.mock.ExpectationsWereMet())
	})

	t.Run("missing task", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(regexp.QuoteMeta(`FROM "tasks" WHERE "id" = $1`)).
			WithArgs(8).
			WillReturnRows(sqlmock.NewRows(taskCols))

		w := e.do(http.MethodPut, "/api/v1/tasks/8", `{"title": "Final"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail":"Task 8 not found"}`, w.Body.String())
		assert.NoError(t, e.mock.ExpectationsWereMet())
	})

	t.Run("null title", func(t *testing.T) {
		e := newTestEnv(t)
		w := e.do(http.MethodPut, "/api/v1/tasks/1", `{"title": null}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{"detail":"title: may not be null"}`, w.Body.String())
	})
}

func TestHandlers_ChangeStatus(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "tasks" SET "status" = $1, "updated_at" = CURRENT_TIMESTAMP WHERE "id" = $2`)).
		WithArgs("completed", 1).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(taskRow(1, "Draft", today.Add(-day), "completed")...))

	w := e.do(http.MethodPatch, "/api/v1/tasks/1/status?status=completed", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decodeTask(t, w)
	assert.Equal(t, "completed", got.Status)
	assert.False(t, got.IsOverdue)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestHandlers_Delete(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "tasks" WHERE "id" = $1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := e.do(http.MethodDelete, "/api/v1/tasks/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Task deleted successfully"}`, w.Body.String())
	assert.NoError(t, e.mock.ExpectationsWereMet())
}
