package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

var taskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

func TaskStatuses() []TaskStatus {
	out := make([]TaskStatus, len(taskStatuses))
	copy(out, taskStatuses)
	return out
}

func (s TaskStatus) Valid() bool {
	for _, v := range taskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type TaskPriority int

// Priority levels
const (
	PriorityLow      TaskPriority = 1
	PriorityMedium   TaskPriority = 2
	PriorityHigh     TaskPriority = 3
	PriorityUrgent   TaskPriority = 4
	PriorityCritical TaskPriority = 5
)

func (p TaskPriority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

func (p TaskPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type Task struct {
	ID          int64        `db:"id" json:"id"`
	ProjectID   int64        `db:"project_id" json:"project_id"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description"`
	Assignee    string       `db:"assignee" json:"assignee"`
	StartDate   Date         `db:"start_date" json:"start_date"`
	EndDate     Date         `db:"end_date" json:"end_date"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	Status      TaskStatus   `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time   `db:"updated_at" json:"updated_at"`

	IsOverdue     bool `db:"-" json:"is_overdue"`
	DaysRemaining *int `db:"-" json:"days_remaining"`
}

// CalculateMetadata derives IsOverdue and DaysRemaining relative to now.
// Both are recomputed on every read and never stored.
func (t *Task) CalculateMetadata(now time.Time) {
	today := DateOf(now)
	t.IsOverdue = t.EndDate.Before(today) && t.Status != TaskStatusCompleted

	days := 0
	if !t.EndDate.Before(today) {
		days = today.DaysUntil(t.EndDate)
	}
	t.DaysRemaining = &days
}

type TaskCreate struct {
	ProjectID   int64        `json:"project_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Assignee    string       `json:"assignee"`
	StartDate   Date         `json:"start_date"`
	EndDate     Date         `json:"end_date"`
	Priority    TaskPriority `json:"priority"`
	// Status is accepted for compatibility and ignored: new tasks start pending.
	Status TaskStatus `json:"status,omitempty"`
}

// Normalize applies defaults for omitted fields.
func (c *TaskCreate) Normalize() {
	if c.Priority == 0 {
		c.Priority = PriorityMedium
	}
	c.Status = TaskStatusPending
}

// TaskUpdate is a sparse patch; only description may be cleared with null.
type TaskUpdate struct {
	Title       Optional[string]       `json:"title"`
	Description Optional[string]       `json:"description"`
	Assignee    Optional[string]       `json:"assignee"`
	StartDate   Optional[Date]         `json:"start_date"`
	EndDate     Optional[Date]         `json:"end_date"`
	Priority    Optional[TaskPriority] `json:"priority"`
	Status      Optional[TaskStatus]   `json:"status"`
}

type TaskFilter struct {
	ProjectID *int64
	Status    *TaskStatus
	Assignee  *string
	Priority  *TaskPriority
	Pagination
}

type TaskList struct {
	Tasks []*Task `json:"tasks"`
	PageInfo
}

// StatusChange is the body form of a status change request.
type StatusChange struct {
	Status string `json:"status" form:"status"`
}
