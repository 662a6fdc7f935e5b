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

const moodColumns = `id, user_id, mood, label, energy, note, tags, logged_at, created_at, updated_at`

type MoodService struct {
	db  *database.DB
	now func() time.Time
}

func NewMoodService(db *database.DB) *MoodService {
	return &MoodService{db: db, now: time.Now}
}

func (s *MoodService) Create(ctx context.Context, scope Scope, req *dto.CreateMoodLogRequest) (*models.MoodLog, error) {
	log := req.ToModel(scope.SubjectID, s.now().UTC())
	if err := log.Validate(); err != nil {
		return nil, err
	}

	query := `
		insert into mood_logs (user_id, mood, label, energy, note, tags, logged_at)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning ` + moodColumns

	var created models.MoodLog
	err := s.db.GetContext(ctx, &created, query,
		log.UserID, log.Mood, log.Label, log.Energy, log.Note, log.Tags, log.LoggedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create mood log: %w", err)
	}
	return &created, nil
}

func (s *MoodService) List(ctx context.Context, scope Scope, q dto.MoodListQuery) ([]models.MoodLog, error) {
	f := &filter{}
	f.add("user_id = $%d", scope.listOwner(q.ListOwner))
	f.addRange("logged_at", q.TimeRange)

	query := fmt.Sprintf("select %s from mood_logs where %s order by logged_at desc %s",
		moodColumns, f.where(), f.page(q.Page))

	logs := []models.MoodLog{}
	if err := s.db.SelectContext(ctx, &logs, query, f.args...); err != nil {
		return nil, fmt.Errorf("failed to list mood logs: %w", err)
	}
	return logs, nil
}

func (s *MoodService) Get(ctx context.Context, scope Scope, id uuid.UUID) (*models.MoodLog, error) {
	query := fmt.Sprintf("select %s from mood_logs where id = $1 and %s", moodColumns, ownedBy(2))

	var log models.MoodLog
	if err := s.db.GetContext(ctx, &log, query, append([]any{id}, scope.args()...)...); err != nil {
		return nil, wrapNotFound("failed to get mood log", err)
	}
	return &log, nil
}

func (s *MoodService) Update(ctx context.Context, scope Scope, id uuid.UUID, req *dto.UpdateMoodLogRequest) (*models.MoodLog, error) {
	log, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	req.Apply(log)
	if err := log.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		update mood_logs
		set mood = $1, label = $2, energy = $3, note = $4, tags = $5, logged_at = $6, updated_at = now()
		where id = $7 and %s
		returning %s`, ownedBy(8), moodColumns)

	var updated models.MoodLog
	args := append([]any{log.Mood, log.Label, log.Energy, log.Note, log.Tags, log.LoggedAt, id}, scope.args()...)
	if err := s.db.GetContext(ctx, &updated, query, args...); err != nil {
		return nil, wrapNotFound("failed to update mood log", err)
	}
	return &updated, nil
}

func (s *MoodService) Delete(ctx context.Context, scope Scope, id uuid.UUID) error {
	return deleteOwned(ctx, s.db, "mood_logs", scope, id)
}
