package models

import (
	"time"

	"companion-backend/internal/common"

	"github.com/google/uuid"
)

type MetricType string

const (
	MetricWeight        MetricType = "weight"
	MetricHeartRate     MetricType = "heart_rate"
	MetricBloodPressure MetricType = "blood_pressure"
	MetricSleep         MetricType = "sleep"
	MetricSteps         MetricType = "steps"
	MetricWater         MetricType = "water"
	MetricCalories      MetricType = "calories"
	MetricBloodGlucose  MetricType = "blood_glucose"
)

// defaultUnits is also the set of known metric types.
var defaultUnits = map[MetricType]string{
	MetricWeight:        "kg",
	MetricHeartRate:     "bpm",
	MetricBloodPressure: "mmHg",
	MetricSleep:         "hours",
	MetricSteps:         "steps",
	MetricWater:         "ml",
	MetricCalories:      "kcal",
	MetricBloodGlucose:  "mg/dL",
}

func (t MetricType) Valid() bool {
	_, ok := defaultUnits[t]
	return ok
}

func (t MetricType) DefaultUnit() string {
	return defaultUnits[t]
}

type HealthMetric struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`

	Type  MetricType `db:"type" json:"type"`
	Value float64    `db:"value" json:"value"`
	// diastolic reading for blood_pressure
	SecondaryValue *float64  `db:"secondary_value" json:"secondary_value,omitempty"`
	Unit           string    `db:"unit" json:"unit"`
	RecordedAt     time.Time `db:"recorded_at" json:"recorded_at"`
	Notes          string    `db:"notes" json:"notes"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (m *HealthMetric) Validate() error {
	v := &common.ValidationError{}
	if !m.Type.Valid() {
		v.Add("type", "is not a known metric type")
	} else if m.Unit == "" {
		m.Unit = m.Type.DefaultUnit()
	}
	if m.Value <= 0 {
		v.Add("value", "must be positive")
	}
	if m.Type == MetricBloodPressure {
		if m.SecondaryValue == nil || *m.SecondaryValue <= 0 {
			v.Add("secondary_value", "diastolic reading is required for blood_pressure")
		}
	} else if m.SecondaryValue != nil {
		v.Add("secondary_value", "is only allowed for blood_pressure")
	}
	if m.RecordedAt.IsZero() {
		v.Add("recorded_at", "is required")
	}
	if len(m.Notes) > 1000 {
		v.Add("notes", "must be at most 1000 characters")
	}
	return v.Err()
}
