package database

import (
	"testing"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/assert"
)

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name      string
		build     func(f *Filter)
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "no predicates",
			build:     func(*Filter) {},
			wantQuery: `SELECT * FROM "projects"`,
		},
		{
			name:      "single equality",
			build:     func(f *Filter) { f.EQ("status", "active") },
			wantQuery: `SELECT * FROM "projects" WHERE "status" = $1`,
			wantArgs:  []any{"active"},
		},
		{
			name: "equality and search",
			build: func(f *Filter) {
				f.EQ("status", "active").ContainsFold("Alpha", "name", "description")
			},
			wantQuery: `SELECT * FROM "projects" WHERE "status" = $1 AND ("name" ILIKE $2 OR "description" ILIKE $3)`,
			wantArgs:  []any{"active", "%alpha%", "%alpha%"},
		},
		{
			name:      "search without columns is ignored",
			build:     func(f *Filter) { f.ContainsFold("x") },
			wantQuery: `SELECT * FROM "projects"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Filter
			tt.build(&f)

			sel := Builder().Select().From(entsql.Table("projects"))
			query, args := f.Apply(sel).Query()

			assert.Equal(t, tt.wantQuery, query)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestFilter_ReusedForCountAndPage(t *testing.T) {
	var f Filter
	f.EQ("project_id", 7).EQ("status", "pending")

	count, countArgs := f.Apply(Builder().Select(entsql.Count("*")).From(entsql.Table("tasks"))).Query()
	page := Page{Number: 3, Size: 10}
	rows, rowArgs := page.Apply(f.Apply(Builder().Select().From(entsql.Table("tasks")))).Query()

	assert.Equal(t, `SELECT COUNT(*) FROM "tasks" WHERE "project_id" = $1 AND "status" = $2`, count)
	assert.Equal(t, `SELECT * FROM "tasks" WHERE "project_id" = $1 AND "status" = $2 LIMIT 10 OFFSET 20`, rows)
	assert.Equal(t, countArgs, rowArgs)
}

func TestPatch_Apply(t *testing.T) {
	var p Patch
	p.Set("name", "Renamed").SetNull("description").Set("status", "active")

	assert.Equal(t, 3, p.Len())

	upd := Builder().Update("projects")
	p.Apply(upd)
	query, args := upd.Where(entsql.EQ("id", 4)).Query()

	assert.Equal(t, `UPDATE "projects" SET "description" = NULL, "name" = $1, "status" = $2 WHERE "id" = $3`, query)
	assert.Equal(t, []any{"Renamed", "active", 4}, args)
}

func TestPatch_Empty(t *testing.T) {
	var p Patch
	assert.Zero(t, p.Len())
}

func TestPage(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Size: 10}.Offset())
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Offset())
	assert.Equal(t, 0, Page{Number: 0, Size: 10}.Offset())
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{25, 10, 3},
		{100, 100, 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.size), "total=%d size=%d", tt.total, tt.size)
	}
}

func TestCountAs(t *testing.T) {
	sel := Builder().Select().From(entsql.Table("tasks"))
	sel.SelectExpr(
		CountAs("total_tasks", nil),
		CountAs("completed_tasks", entsql.EQ("status", "completed")),
	)
	sel.Where(entsql.EQ("project_id", 3))

	query, args := sel.Query()
	assert.Equal(t, `SELECT COUNT(*) AS "total_tasks", COUNT(*) FILTER (WHERE "status" = $1) AS "completed_tasks" FROM "tasks" WHERE "project_id" = $2`, query)
	assert.Equal(t, []any{"completed", 3}, args)
}
