package model

import (
	"math"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Subtasks    []Subtask  `json:"subtasks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Subtask.ID is nil until the parent task write has been accepted.
type Subtask struct {
	ID          *int64 `json:"id,omitempty"`
	TaskID      int64  `json:"task_id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

// IsOverdue reports whether an unfinished task is past due. A task due earlier
// on the same calendar day as now is not overdue.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	due := t.DueDate.In(now.Location())
	return due.Before(now) && !SameDay(due, now)
}

// ToggledStatus is the status a checkbox click moves the task to.
func (t Task) ToggledStatus() Status {
	if t.Status == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TaskFilter describes one task-list partition.
type TaskFilter struct {
	Search     string
	Status     string // all, pending, in_progress, completed
	CategoryID int64
}

const StatusAll = "all"

// Normalize maps equivalent filters onto the same value.
func (f TaskFilter) Normalize() TaskFilter {
	f.Search = strings.TrimSpace(f.Search)
	if f.Status == "" {
		f.Status = StatusAll
	}
	if f.CategoryID < 0 {
		f.CategoryID = 0
	}
	return f
}

type SubtaskInput struct {
	ID          *int64 `json:"id,omitempty"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

type CreateTaskInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    Priority       `json:"priority"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	CategoryID  *int64         `json:"category_id,omitempty"`
	Subtasks    []SubtaskInput `json:"subtasks,omitempty"`
}

// UpdateTaskInput is a sparse patch: nil fields are left untouched.
// Subtasks, when set, replaces the whole ordered list.
type UpdateTaskInput struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *Status         `json:"status,omitempty"`
	Priority    *Priority       `json:"priority,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Subtasks    *[]SubtaskInput `json:"subtasks,omitempty"`
}

func (in UpdateTaskInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.Status == nil &&
		in.Priority == nil && in.DueDate == nil && in.CategoryID == nil && in.Subtasks == nil
}

type ChartPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TaskStats struct {
	Total     int          `json:"total"`
	Completed int          `json:"completed"`
	Pending   int          `json:"pending"`
	High      int          `json:"high"`
	Overdue   int          `json:"overdue"`
	DueToday  int          `json:"dueToday"`
	ChartData []ChartPoint `json:"chartData"`
}

// CompletionPercent is round(100*completed/total), 0 for an empty list.
func CompletionPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
