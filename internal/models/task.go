package models

import (
	"strings"
	"time"

	"companion-backend/internal/common"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`

	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Status      TaskStatus   `db:"status" json:"status"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	Category    string       `db:"category" json:"category"`
	DueAt       *time.Time   `db:"due_at" json:"due_at"`
	CompletedAt *time.Time   `db:"completed_at" json:"completed_at"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SetStatus keeps CompletedAt in step with the status.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	if status == TaskStatusDone && t.Status != TaskStatusDone {
		t.CompletedAt = &now
	}
	if status != TaskStatusDone {
		t.CompletedAt = nil
	}
	t.Status = status
}

func (t *Task) Validate() error {
	v := &common.ValidationError{}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		v.Add("title", "is required")
	} else if len(t.Title) > 200 {
		v.Add("title", "must be at most 200 characters")
	}
	if len(t.Description) > 5000 {
		v.Add("description", "must be at most 5000 characters")
	}
	if !t.Status.Valid() {
		v.Add("status", "must be one of todo, in_progress, done")
	}
	if !t.Priority.Valid() {
		v.Add("priority", "must be one of low, medium, high")
	}
	if len(t.Category) > 50 {
		v.Add("category", "must be at most 50 characters")
	}
	return v.Err()
}
