package models

import (
	"time"

	"companion-backend/internal/common"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type MoodLog struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`

	Mood     int            `db:"mood" json:"mood"`
	Label    string         `db:"label" json:"label"`
	Energy   *int           `db:"energy" json:"energy"`
	Note     string         `db:"note" json:"note"`
	Tags     pq.StringArray `db:"tags" json:"tags"`
	LoggedAt time.Time      `db:"logged_at" json:"logged_at"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	MinMood = 1
	MaxMood = 10
)

func (m *MoodLog) Validate() error {
	v := &common.ValidationError{}
	if m.Mood < MinMood || m.Mood > MaxMood {
		v.Add("mood", "must be between %d and %d", MinMood, MaxMood)
	}
	if m.Energy != nil && (*m.Energy < MinMood || *m.Energy > MaxMood) {
		v.Add("energy", "must be between %d and %d", MinMood, MaxMood)
	}
	if len(m.Label) > 50 {
		v.Add("label", "must be at most 50 characters")
	}
	if len(m.Note) > 2000 {
		v.Add("note", "must be at most 2000 characters")
	}
	if len(m.Tags) > 20 {
		v.Add("tags", "at most 20 tags")
	}
	if m.LoggedAt.IsZero() {
		v.Add("logged_at", "is required")
	}
	if m.Tags == nil {
		m.Tags = pq.StringArray{}
	}
	return v.Err()
}
