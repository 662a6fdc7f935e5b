package dto

import (
	"net/url"
	"time"

	"companion-backend/internal/common"
	"companion-backend/internal/models"

	"github.com/google/uuid"
)

type CreateHealthMetricRequest struct {
	Type           models.MetricType `json:"type"`
	Value          float64           `json:"value"`
	SecondaryValue *float64          `json:"secondary_value"`
	Unit           string            `json:"unit"`
	RecordedAt     *time.Time        `json:"recorded_at"`
	Notes          string            `json:"notes"`
}

// ToModel builds a metric owned by ownerID, recorded now unless the request
// says otherwise.
func (r *CreateHealthMetricRequest) ToModel(ownerID uuid.UUID, now time.Time) *models.HealthMetric {
	metric := &models.HealthMetric{
		UserID:         ownerID,
		Type:           r.Type,
		Value:          r.Value,
		SecondaryValue: r.SecondaryValue,
		Unit:           r.Unit,
		RecordedAt:     now,
		Notes:          r.Notes,
	}
	if r.RecordedAt != nil {
		metric.RecordedAt = *r.RecordedAt
	}
	return metric
}

type UpdateHealthMetricRequest struct {
	Type           *models.MetricType `json:"type"`
	Value          *float64           `json:"value"`
	SecondaryValue *float64           `json:"secondary_value"`
	Unit           *string            `json:"unit"`
	RecordedAt     *time.Time         `json:"recorded_at"`
	Notes          *string            `json:"notes"`
}

func (r *UpdateHealthMetricRequest) Apply(metric *models.HealthMetric) {
	if r.Type != nil && *r.Type != metric.Type {
		metric.Type = *r.Type
		// the old unit belonged to the old type
		metric.Unit = ""
		if metric.Type != models.MetricBloodPressure {
			metric.SecondaryValue = nil
		}
	}
	if r.Value != nil {
		metric.Value = *r.Value
	}
	if r.SecondaryValue != nil {
		metric.SecondaryValue = r.SecondaryValue
	}
	if r.Unit != nil {
		metric.Unit = *r.Unit
	}
	if r.RecordedAt != nil {
		metric.RecordedAt = *r.RecordedAt
	}
	if r.Notes != nil {
		metric.Notes = *r.Notes
	}
}

type HealthListQuery struct {
	ListOwner
	Page
	TimeRange
	Type models.MetricType
}

func ParseHealthListQuery(values url.Values) (HealthListQuery, error) {
	v := &common.ValidationError{}
	q := HealthListQuery{
		ListOwner: parseOwner(v, values),
		Page:      parsePage(v, values),
		TimeRange: parseTimeRange(v, values),
		Type:      models.MetricType(values.Get("type")),
	}
	if q.Type != "" && !q.Type.Valid() {
		v.Add("type", "is not a known metric type")
	}
	return q, v.Err()
}

// ParseSummaryQuery reads only the owner override; a summary is never paged.
func ParseSummaryQuery(values url.Values) (ListOwner, error) {
	v := &common.ValidationError{}
	owner := parseOwner(v, values)
	return owner, v.Err()
}
