package dto

import (
	"net/url"
	"time"

	"companion-backend/internal/common"
	"companion-backend/internal/models"

	"github.com/google/uuid"
)

type CreateEventRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	AllDay          bool      `json:"all_day"`
	Color           string    `json:"color"`
	ReminderMinutes *int      `json:"reminder_minutes"`
}

// ToModel builds an event owned by ownerID. An event without an end is a
// point in time.
func (r *CreateEventRequest) ToModel(ownerID uuid.UUID) *models.CalendarEvent {
	event := &models.CalendarEvent{
		UserID:          ownerID,
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		StartAt:         r.StartAt,
		EndAt:           r.EndAt,
		AllDay:          r.AllDay,
		Color:           r.Color,
		ReminderMinutes: r.ReminderMinutes,
	}
	if event.EndAt.IsZero() {
		event.EndAt = event.StartAt
	}
	return event
}

type UpdateEventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Location        *string    `json:"location"`
	StartAt         *time.Time `json:"start_at"`
	EndAt           *time.Time `json:"end_at"`
	AllDay          *bool      `json:"all_day"`
	Color           *string    `json:"color"`
	ReminderMinutes *int       `json:"reminder_minutes"`
}

func (r *UpdateEventRequest) Apply(event *models.CalendarEvent) {
	if r.Title != nil {
		event.Title = *r.Title
	}
	if r.Description != nil {
		event.Description = *r.Description
	}
	if r.Location != nil {
		event.Location = *r.Location
	}
	if r.StartAt != nil {
		event.StartAt = *r.StartAt
	}
	if r.EndAt != nil {
		event.EndAt = *r.EndAt
	}
	if r.AllDay != nil {
		event.AllDay = *r.AllDay
	}
	if r.Color != nil {
		event.Color = *r.Color
	}
	if r.ReminderMinutes != nil {
		event.ReminderMinutes = r.ReminderMinutes
	}
}

type EventListQuery struct {
	ListOwner
	Page
	TimeRange
}

func ParseEventListQuery(values url.Values) (EventListQuery, error) {
	v := &common.ValidationError{}
	q := EventListQuery{
		ListOwner: parseOwner(v, values),
		Page:      parsePage(v, values),
		TimeRange: parseTimeRange(v, values),
	}
	return q, v.Err()
}
