package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"companion-backend/internal/dto"
	"companion-backend/internal/middleware"
	"companion-backend/internal/models"
	"companion-backend/internal/services"
	"companion-backend/utils/response"

	"github.com/google/uuid"
)

// ResourceService is the owner-scoped CRUD surface shared by tasks, events,
// health metrics and mood logs. T is the entity, C and U its create and
// update payloads, Q its list filter.
type ResourceService[T, C, U, Q any] interface {
	Create(ctx context.Context, scope services.Scope, req *C) (*T, error)
	List(ctx context.Context, scope services.Scope, q Q) ([]T, error)
	Get(ctx context.Context, scope services.Scope, id uuid.UUID) (*T, error)
	Update(ctx context.Context, scope services.Scope, id uuid.UUID, req *U) (*T, error)
	Delete(ctx context.Context, scope services.Scope, id uuid.UUID) error
}

type ResourceHandler[T, C, U, Q any] struct {
	service ResourceService[T, C, U, Q]
	parse   func(url.Values) (Q, error)
	name    string
	errs    *ErrorWriter
}

type (
	TaskHandler  = ResourceHandler[models.Task, dto.CreateTaskRequest, dto.UpdateTaskRequest, dto.TaskListQuery]
	EventHandler = ResourceHandler[models.CalendarEvent, dto.CreateEventRequest, dto.UpdateEventRequest, dto.EventListQuery]
	MoodHandler  = ResourceHandler[models.MoodLog, dto.CreateMoodLogRequest, dto.UpdateMoodLogRequest, dto.MoodListQuery]
)

func NewTaskHandler(service ResourceService[models.Task, dto.CreateTaskRequest, dto.UpdateTaskRequest, dto.TaskListQuery], errs *ErrorWriter) *TaskHandler {
	return &TaskHandler{service: service, parse: dto.ParseTaskListQuery, name: "Task", errs: errs}
}

func NewEventHandler(service ResourceService[models.CalendarEvent, dto.CreateEventRequest, dto.UpdateEventRequest, dto.EventListQuery], errs *ErrorWriter) *EventHandler {
	return &EventHandler{service: service, parse: dto.ParseEventListQuery, name: "Event", errs: errs}
}

func NewMoodHandler(service ResourceService[models.MoodLog, dto.CreateMoodLogRequest, dto.UpdateMoodLogRequest, dto.MoodListQuery], errs *ErrorWriter) *MoodHandler {
	return &MoodHandler{service: service, parse: dto.ParseMoodListQuery, name: "Mood log", errs: errs}
}

// scopeFrom builds the service scope from what the gate and the policy put
// in the request context.
func scopeFrom(r *http.Request) services.Scope {
	if user := middleware.SubjectFromContext(r.Context()); user != nil {
		return services.Scope{SubjectID: user.ID, Admin: user.IsAdmin()}
	}
	id, _ := middleware.SubjectIDFromContext(r.Context())
	return services.Scope{SubjectID: id}
}

func (h *ResourceHandler[T, C, U, Q]) Create(w http.ResponseWriter, r *http.Request) {
	var req C
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.Create(r.Context(), scopeFrom(r), &req)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Created(w, item, fmt.Sprintf("%s created successfully", h.name))
}

func (h *ResourceHandler[T, C, U, Q]) List(w http.ResponseWriter, r *http.Request) {
	q, err := h.parse(r.URL.Query())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	items, err := h.service.List(r.Context(), scopeFrom(r), q)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}

	response.Success(w, items, "")
}

func (h *ResourceHandler[T, C, U, Q]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), scopeFrom(r), id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, item, "")
}

func (h *ResourceHandler[T, C, U, Q]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req U
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.Update(r.Context(), scopeFrom(r), id, &req)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, item, fmt.Sprintf("%s updated successfully", h.name))
}

func (h *ResourceHandler[T, C, U, Q]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), scopeFrom(r), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, map[string]uuid.UUID{"id": id}, fmt.Sprintf("%s deleted successfully", h.name))
}
