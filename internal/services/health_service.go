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

const metricColumns = `id, user_id, type, value, secondary_value, unit, recorded_at, notes, created_at, updated_at`

type HealthService struct {
	db  *database.DB
	now func() time.Time
}

func NewHealthService(db *database.DB) *HealthService {
	return &HealthService{db: db, now: time.Now}
}

func (s *HealthService) Create(ctx context.Context, scope Scope, req *dto.CreateHealthMetricRequest) (*models.HealthMetric, error) {
	metric := req.ToModel(scope.SubjectID, s.now().UTC())
	if err := metric.Validate(); err != nil {
		return nil, err
	}

	query := `
		insert into health_metrics (user_id, type, value, secondary_value, unit, recorded_at, notes)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning ` + metricColumns

	var created models.HealthMetric
	err := s.db.GetContext(ctx, &created, query,
		metric.UserID, metric.Type, metric.Value, metric.SecondaryValue, metric.Unit, metric.RecordedAt, metric.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create health metric: %w", err)
	}
	return &created, nil
}

func (s *HealthService) List(ctx context.Context, scope Scope, q dto.HealthListQuery) ([]models.HealthMetric, error) {
	f := &filter{}
	f.add("user_id = $%d", scope.listOwner(q.ListOwner))
	if q.Type != "" {
		f.add("type = $%d", q.Type)
	}
	f.addRange("recorded_at", q.TimeRange)

	query := fmt.Sprintf("select %s from health_metrics where %s order by recorded_at desc %s",
		metricColumns, f.where(), f.page(q.Page))

	metrics := []models.HealthMetric{}
	if err := s.db.SelectContext(ctx, &metrics, query, f.args...); err != nil {
		return nil, fmt.Errorf("failed to list health metrics: %w", err)
	}
	return metrics, nil
}

// Summary returns the most recent reading of each metric type.
func (s *HealthService) Summary(ctx context.Context, scope Scope, owner dto.ListOwner) ([]models.HealthMetric, error) {
	query := fmt.Sprintf(`
		select distinct on (type) %s
		from health_metrics
		where user_id = $1
		order by type, recorded_at desc`, metricColumns)

	metrics := []models.HealthMetric{}
	if err := s.db.SelectContext(ctx, &metrics, query, scope.listOwner(owner)); err != nil {
		return nil, fmt.Errorf("failed to summarize health metrics: %w", err)
	}
	return metrics, nil
}

func (s *HealthService) Get(ctx context.Context, scope Scope, id uuid.UUID) (*models.HealthMetric, error) {
	query := fmt.Sprintf("select %s from health_metrics where id = $1 and %s", metricColumns, ownedBy(2))

	var metric models.HealthMetric
	if err := s.db.GetContext(ctx, &metric, query, append([]any{id}, scope.args()...)...); err != nil {
		return nil, wrapNotFound("failed to get health metric", err)
	}
	return &metric, nil
}

func (s *HealthService) Update(ctx context.Context, scope Scope, id uuid.UUID, req *dto.UpdateHealthMetricRequest) (*models.HealthMetric, error) {
	metric, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	req.Apply(metric)
	if err := metric.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		update health_metrics
		set type = $1, value = $2, secondary_value = $3, unit = $4, recorded_at = $5, notes = $6,
			updated_at = now()
		where id = $7 and %s
		returning %s`, ownedBy(8), metricColumns)

	var updated models.HealthMetric
	args := append([]any{metric.Type, metric.Value, metric.SecondaryValue, metric.Unit, metric.RecordedAt,
		metric.Notes, id}, scope.args()...)
	if err := s.db.GetContext(ctx, &updated, query, args...); err != nil {
		return nil, wrapNotFound("failed to update health metric", err)
	}
	return &updated, nil
}

func (s *HealthService) Delete(ctx context.Context, scope Scope, id uuid.UUID) error {
	return deleteOwned(ctx, s.db, "health_metrics", scope, id)
}
