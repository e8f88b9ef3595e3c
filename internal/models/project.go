package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

var projectStatuses = []ProjectStatus{
	ProjectStatusPlanning,
	ProjectStatusActive,
	ProjectStatusOnHold,
	ProjectStatusCompleted,
	ProjectStatusCancelled,
}

func ProjectStatuses() []ProjectStatus {
	out := make([]ProjectStatus, len(projectStatuses))
	copy(out, projectStatuses)
	return out
}

func (s ProjectStatus) Valid() bool {
	for _, v := range projectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Project struct {
	ID          int64              `db:"id" json:"id"`
	Name        string             `db:"name" json:"name"`
	Description *string            `db:"description" json:"description"`
	StartDate   *time.Time         `db:"start_date" json:"start_date"`
	EndDate     *time.Time         `db:"end_date" json:"end_date"`
	Status      ProjectStatus      `db:"status" json:"status"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time         `db:"updated_at" json:"updated_at"`
	Statistics  *ProjectStatistics `db:"-" json:"statistics"`
}

// ProjectStatistics summarises the tasks owned by a project.
type ProjectStatistics struct {
	TotalTasks     int     `db:"total_tasks" json:"total_tasks"`
	CompletedTasks int     `db:"completed_tasks" json:"completed_tasks"`
	PendingTasks   int     `db:"pending_tasks" json:"pending_tasks"`
	OverdueTasks   int     `db:"overdue_tasks" json:"overdue_tasks"`
	CompletionRate float64 `db:"-" json:"completion_rate"`
}

// ComputeRate fills CompletionRate from the counters.
func (s *ProjectStatistics) ComputeRate() {
	if s.TotalTasks == 0 {
		s.CompletionRate = 0
		return
	}
	s.CompletionRate = float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
}

type ProjectCreate struct {
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	StartDate   Timestamp     `json:"start_date"`
	EndDate     Timestamp     `json:"end_date"`
	Status      ProjectStatus `json:"status"`
}

// Normalize applies defaults for omitted fields.
func (c *ProjectCreate) Normalize() {
	if c.Status == "" {
		c.Status = ProjectStatusPlanning
	}
}

// ProjectUpdate is a sparse patch. Only fields present in the payload are
// written; description and the dates may be cleared with an explicit null.
type ProjectUpdate struct {
	Name        Optional[string]        `json:"name"`
	Description Optional[string]        `json:"description"`
	StartDate   Optional[Timestamp]     `json:"start_date"`
	EndDate     Optional[Timestamp]     `json:"end_date"`
	Status      Optional[ProjectStatus] `json:"status"`
}

type ProjectFilter struct {
	Status *ProjectStatus
	Search string
	Pagination
}

type ProjectList struct {
	Items []*Project `json:"items"`
	PageInfo
}
