package models

import (
	"regexp"
	"strings"
	"time"

	"companion-backend/internal/common"

	"github.com/google/uuid"
)

type CalendarEvent struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`

	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Location    string    `db:"location" json:"location"`
	StartAt     time.Time `db:"start_at" json:"start_at"`
	EndAt       time.Time `db:"end_at" json:"end_at"`
	AllDay      bool      `db:"all_day" json:"all_day"`
	Color       string    `db:"color" json:"color"`
	// minutes before StartAt, nil for no reminder
	ReminderMinutes *int `db:"reminder_minutes" json:"reminder_minutes"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (e *CalendarEvent) Validate() error {
	v := &common.ValidationError{}
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		v.Add("title", "is required")
	} else if len(e.Title) > 200 {
		v.Add("title", "must be at most 200 characters")
	}
	if e.StartAt.IsZero() {
		v.Add("start_at", "is required")
	}
	if e.EndAt.IsZero() {
		v.Add("end_at", "is required")
	}
	if !e.StartAt.IsZero() && !e.EndAt.IsZero() && e.EndAt.Before(e.StartAt) {
		v.Add("end_at", "must not be before start_at")
	}
	if e.Color != "" && !colorPattern.MatchString(e.Color) {
		v.Add("color", "must be a #rrggbb hex color")
	}
	if e.ReminderMinutes != nil && (*e.ReminderMinutes < 0 || *e.ReminderMinutes > 7*24*60) {
		v.Add("reminder_minutes", "must be between 0 and 10080")
	}
	return v.Err()
}
