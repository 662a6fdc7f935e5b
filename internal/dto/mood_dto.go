package dto

import (
	"net/url"
	"time"

	"companion-backend/internal/common"
	"companion-backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CreateMoodLogRequest struct {
	Mood     int        `json:"mood"`
	Label    string     `json:"label"`
	Energy   *int       `json:"energy"`
	Note     string     `json:"note"`
	Tags     []string   `json:"tags"`
	LoggedAt *time.Time `json:"logged_at"`
}

func (r *CreateMoodLogRequest) ToModel(ownerID uuid.UUID, now time.Time) *models.MoodLog {
	log := &models.MoodLog{
		UserID:   ownerID,
		Mood:     r.Mood,
		Label:    r.Label,
		Energy:   r.Energy,
		Note:     r.Note,
		Tags:     pq.StringArray(r.Tags),
		LoggedAt: now,
	}
	if r.LoggedAt != nil {
		log.LoggedAt = *r.LoggedAt
	}
	return log
}

type UpdateMoodLogRequest struct {
	Mood     *int       `json:"mood"`
	Label    *string    `json:"label"`
	Energy   *int       `json:"energy"`
	Note     *string    `json:"note"`
	Tags     *[]string  `json:"tags"`
	LoggedAt *time.Time `json:"logged_at"`
}

func (r *UpdateMoodLogRequest) Apply(log *models.MoodLog) {
	if r.Mood != nil {
		log.Mood = *r.Mood
	}
	if r.Label != nil {
		log.Label = *r.Label
	}
	if r.Energy != nil {
		log.Energy = r.Energy
	}
	if r.Note != nil {
		log.Note = *r.Note
	}
	if r.Tags != nil {
		log.Tags = pq.StringArray(*r.Tags)
	}
	if r.LoggedAt != nil {
		log.LoggedAt = *r.LoggedAt
	}
}

type MoodListQuery struct {
	ListOwner
	Page
	TimeRange
}

func ParseMoodListQuery(values url.Values) (MoodListQuery, error) {
	v := &common.ValidationError{}
	q := MoodListQuery{
		ListOwner: parseOwner(v, values),
		Page:      parsePage(v, values),
		TimeRange: parseTimeRange(v, values),
	}
	return q, v.Err()
}
