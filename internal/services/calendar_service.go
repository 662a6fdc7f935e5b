package services

import (
	"context"
	"fmt"

	"companion-backend/internal/database"
	"companion-backend/internal/dto"
	"companion-backend/internal/models"

	"github.com/google/uuid"
)

const eventColumns = `id, user_id, title, description, location, start_at, end_at, all_day, color, reminder_minutes, created_at, updated_at`

type CalendarService struct {
	db *database.DB
}

func NewCalendarService(db *database.DB) *CalendarService {
	return &CalendarService{db: db}
}

func (s *CalendarService) Create(ctx context.Context, scope Scope, req *dto.CreateEventRequest) (*models.CalendarEvent, error) {
	event := req.ToModel(scope.SubjectID)
	if err := event.Validate(); err != nil {
		return nil, err
	}

	query := `
		insert into calendar_events (user_id, title, description, location, start_at, end_at, all_day, color, reminder_minutes)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		returning ` + eventColumns

	var created models.CalendarEvent
	err := s.db.GetContext(ctx, &created, query,
		event.UserID, event.Title, event.Description, event.Location, event.StartAt, event.EndAt,
		event.AllDay, event.Color, event.ReminderMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &created, nil
}

// List returns events overlapping the requested window, earliest first.
func (s *CalendarService) List(ctx context.Context, scope Scope, q dto.EventListQuery) ([]models.CalendarEvent, error) {
	f := &filter{}
	f.add("user_id = $%d", scope.listOwner(q.ListOwner))
	if q.From != nil {
		f.add("end_at >= $%d", *q.From)
	}
	if q.To != nil {
		f.add("start_at <= $%d", *q.To)
	}

	query := fmt.Sprintf("select %s from calendar_events where %s order by start_at asc %s",
		eventColumns, f.where(), f.page(q.Page))

	events := []models.CalendarEvent{}
	if err := s.db.SelectContext(ctx, &events, query, f.args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *CalendarService) Get(ctx context.Context, scope Scope, id uuid.UUID) (*models.CalendarEvent, error) {
	query := fmt.Sprintf("select %s from calendar_events where id = $1 and %s", eventColumns, ownedBy(2))

	var event models.CalendarEvent
	if err := s.db.GetContext(ctx, &event, query, append([]any{id}, scope.args()...)...); err != nil {
		return nil, wrapNotFound("failed to get event", err)
	}
	return &event, nil
}

func (s *CalendarService) Update(ctx context.Context, scope Scope, id uuid.UUID, req *dto.UpdateEventRequest) (*models.CalendarEvent, error) {
	event, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	req.Apply(event)
	if err := event.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		update calendar_events
		set title = $1, description = $2, location = $3, start_at = $4, end_at = $5,
			all_day = $6, color = $7, reminder_minutes = $8, updated_at = now()
		where id = $9 and %s
		returning %s`, ownedBy(10), eventColumns)

	var updated models.CalendarEvent
	args := append([]any{event.Title, event.Description, event.Location, event.StartAt, event.EndAt,
		event.AllDay, event.Color, event.ReminderMinutes, id}, scope.args()...)
	if err := s.db.GetContext(ctx, &updated, query, args...); err != nil {
		return nil, wrapNotFound("failed to update event", err)
	}
	return &updated, nil
}

func (s *CalendarService) Delete(ctx context.Context, scope Scope, id uuid.UUID) error {
	return deleteOwned(ctx, s.db, "calendar_events", scope, id)
}
