package services

import (
	"context"
	"fmt"
	"time"

	"companion-backend/internal/database"
	"companion-backend/internal/dto"
	"companion-backend/internal/models"

	"github.com/google/uuid"
)

const taskColumns = `id, user_id, title, description, status, priority, category, due_at, completed_at, created_at, updated_at`

type TaskService struct {
	db  *database.DB
	now func() time.Time
}

func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{db: db, now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, scope Scope, req *dto.CreateTaskRequest) (*models.Task, error) {
	task := req.ToModel(scope.SubjectID, s.now().UTC())
	if err := task.Validate(); err != nil {
		return nil, err
	}

	query := `
		insert into tasks (user_id, title, description, status, priority, category, due_at, completed_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning ` + taskColumns

	var created models.Task
	err := s.db.GetContext(ctx, &created, query,
		task.UserID, task.Title, task.Description, task.Status, task.Priority, task.Category, task.DueAt, task.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &created, nil
}

func (s *TaskService) List(ctx context.Context, scope Scope, q dto.TaskListQuery) ([]models.Task, error) {
	f := &filter{}
	f.add("user_id = $%d", scope.listOwner(q.ListOwner))
	if q.Status != "" {
		f.add("status = $%d", q.Status)
	}
	if q.Priority != "" {
		f.add("priority = $%d", q.Priority)
	}

	query := fmt.Sprintf("select %s from tasks where %s order by created_at desc %s",
		taskColumns, f.where(), f.page(q.Page))

	tasks := []models.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, f.args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, scope Scope, id uuid.UUID) (*models.Task, error) {
	query := fmt.Sprintf("select %s from tasks where id = $1 and %s", taskColumns, ownedBy(2))

	var task models.Task
	if err := s.db.GetContext(ctx, &task, query, append([]any{id}, scope.args()...)...); err != nil {
		return nil, wrapNotFound("failed to get task", err)
	}
	return &task, nil
}

func (s *TaskService) Update(ctx context.Context, scope Scope, id uuid.UUID, req *dto.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	req.Apply(task, s.now().UTC())
	if err := task.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		update tasks
		set title = $1, description = $2, status = $3, priority = $4, category = $5,
			due_at = $6, completed_at = $7, updated_at = now()
		where id = $8 and %s
		returning %s`, ownedBy(9), taskColumns)

	var updated models.Task
	args := append([]any{task.Title, task.Description, task.Status, task.Priority, task.Category,
		task.DueAt, task.CompletedAt, id}, scope.args()...)
	if err := s.db.GetContext(ctx, &updated, query, args...); err != nil {
		return nil, wrapNotFound("failed to update task", err)
	}
	return &updated, nil
}

func (s *TaskService) Delete(ctx context.Context, scope Scope, id uuid.UUID) error {
	return deleteOwned(ctx, s.db, "tasks", scope, id)
}
