package dto

import (
	"net/url"
	"time"

	"companion-backend/internal/common"
	"companion-backend/internal/models"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	Category    string              `json:"category"`
	DueAt       *time.Time          `json:"due_at"`
}

// ToModel builds a task owned by ownerID. Missing status and priority get
// their defaults.
func (r *CreateTaskRequest) ToModel(ownerID uuid.UUID, now time.Time) *models.Task {
	task := &models.Task{
		UserID:      ownerID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Category:    r.Category,
		DueAt:       r.DueAt,
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	status := r.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	task.SetStatus(status, now)
	return task
}

type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	Category    *string              `json:"category"`
	DueAt       *time.Time           `json:"due_at"`
}

func (r *UpdateTaskRequest) Apply(task *models.Task, now time.Time) {
	if r.Title != nil {
		task.Title = *r.Title
	}
	if r.Description != nil {
		task.Description = *r.Description
	}
	if r.Status != nil {
		task.SetStatus(*r.Status, now)
	}
	if r.Priority != nil {
		task.Priority = *r.Priority
	}
	if r.Category != nil {
		task.Category = *r.Category
	}
	if r.DueAt != nil {
		task.DueAt = r.DueAt
	}
}

type TaskListQuery struct {
	ListOwner
	Page
	Status   models.TaskStatus
	Priority models.TaskPriority
}

func ParseTaskListQuery(values url.Values) (TaskListQuery, error) {
	v := &common.ValidationError{}
	q := TaskListQuery{
		ListOwner: parseOwner(v, values),
		Page:      parsePage(v, values),
		Status:    models.TaskStatus(values.Get("status")),
		Priority:  models.TaskPriority(values.Get("priority")),
	}
	if q.Status != "" && !q.Status.Valid() {
		v.Add("status", "must be one of todo, in_progress, done")
	}
	if q.Priority != "" && !q.Priority.Valid() {
		v.Add("priority", "must be one of low, medium, high")
	}
	return q, v.Err()
}
