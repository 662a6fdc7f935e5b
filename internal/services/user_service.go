package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"companion-backend/internal/auth"
	"companion-backend/internal/common"
	"companion-backend/internal/database"
	"companion-backend/internal/dto"
	"companion-backend/internal/logging"
	"companion-backend/internal/models"
	"companion-backend/internal/storage"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, role, status, first_name, last_name, bio, avatar_key,
	notify_email, notify_push, notify_reminders, notify_weekly_summary,
	profile_visibility, share_health_data, share_mood_data,
	last_login_at, created_at, updated_at`

// findUser loads one user by an indexed column. column is never user input.
func findUser(ctx context.Context, db *database.DB, column string, value any) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf("select %s from users where %s = $1", userColumns, column)
	if err := db.GetContext(ctx, &user, query, value); err != nil {
		return nil, wrapNotFound("failed to get user", err)
	}
	return &user, nil
}

type UserService struct {
	db     *database.DB
	hasher *auth.PasswordHasher
	store  storage.ObjectStore
	log    logging.Logger
}

func NewUserService(db *database.DB, hasher *auth.PasswordHasher, store storage.ObjectStore, log logging.Logger) *UserService {
	return &UserService{db: db, hasher: hasher, store: store, log: log}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return findUser(ctx, s.db, "id", id)
}

func (s *UserService) List(ctx context.Context, q dto.UserListQuery) ([]models.User, error) {
	f := &filter{}
	if q.Role != "" {
		f.add("role = $%d", q.Role)
	}
	if q.Status != "" {
		f.add("status = $%d", q.Status)
	}
	where := ""
	if len(f.clauses) > 0 {
		where = "where " + f.where()
	}

	query := fmt.Sprintf("select %s from users %s order by created_at asc %s", userColumns, where, f.page(q.Page))

	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, query, f.args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(user)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if req.Password != nil {
		v := &common.ValidationError{}
		if models.ValidatePassword(v, *req.Password); v.Len() > 0 {
			return nil, v
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	query := `
		update users
		set username = $1, email = $2, first_name = $3, last_name = $4, bio = $5, password_hash = $6,
			updated_at = now()
		where id = $7
		returning ` + userColumns
	return s.update(ctx, "failed to update profile", query,
		user.Username, user.Email, user.FirstName, user.LastName, user.Bio, user.PasswordHash, id)
}

func (s *UserService) UpdateNotifications(ctx context.Context, id uuid.UUID, req *dto.UpdateNotificationsRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(&user.NotificationSettings)

	query := `
		update users
		set notify_email = $1, notify_push = $2, notify_reminders = $3, notify_weekly_summary = $4,
			updated_at = now()
		where id = $5
		returning ` + userColumns
	n := user.NotificationSettings
	return s.update(ctx, "failed to update notification settings", query, n.Email, n.Push, n.Reminders, n.Weekly, id)
}

func (s *UserService) UpdatePrivacy(ctx context.Context, id uuid.UUID, req *dto.UpdatePrivacyRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(&user.PrivacySettings)
	if !user.ProfileVisibility.Valid() {
		return nil, common.Invalid("profile_visibility", "must be 'public', 'friends' or 'private'")
	}

	query := `
		update users
		set profile_visibility = $1, share_health_data = $2, share_mood_data = $3, updated_at = now()
		where id = $4
		returning ` + userColumns
	p := user.PrivacySettings
	return s.update(ctx, "failed to update privacy settings", query, p.ProfileVisibility, p.ShareHealthData, p.ShareMoodData, id)
}

func (s *UserService) UpdateRoleStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateRoleRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}

	query := `
		update users
		set role = $1, status = $2, updated_at = now()
		where id = $3
		returning ` + userColumns
	return s.update(ctx, "failed to update role", query, user.Role, user.Status, id)
}

// Delete removes the user; owned records go with it through the foreign
// keys. The avatar object is removed afterwards.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	var avatarKey *string
	if err := s.db.GetContext(ctx, &avatarKey, "delete from users where id = $1 returning avatar_key", id); err != nil {
		return wrapNotFound("failed to delete user", err)
	}
	if avatarKey != nil && *avatarKey != "" {
		s.discard(ctx, *avatarKey)
	}
	return nil
}

// SetAvatar stores a new avatar object, points the user at it and only then
// drops the previous one.
func (s *UserService) SetAvatar(ctx context.Context, id uuid.UUID, contentType string, data io.Reader) (*models.User, error) {
	var previous *string
	if err := s.db.GetContext(ctx, &previous, "select avatar_key from users where id = $1", id); err != nil {
		return nil, wrapNotFound("failed to get user", err)
	}

	key := fmt.Sprintf("avatars/%s/%s", id, uuid.New())
	if _, err := s.store.Put(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	query := "update users set avatar_key = $1, updated_at = now() where id = $2 returning " + userColumns
	user, err := s.update(ctx, "failed to save avatar", query, key, id)
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	if previous != nil && *previous != "" {
		s.discard(ctx, *previous)
	}
	return user, nil
}

func (s *UserService) Avatar(ctx context.Context, id uuid.UUID) (io.ReadCloser, *storage.Object, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !user.HasAvatar() {
		return nil, nil, common.ErrNotFound
	}

	body, obj, err := s.store.Get(ctx, *user.AvatarKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, common.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	return body, obj, nil
}

func (s *UserService) update(ctx context.Context, msg, query string, args ...any) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, query, args...)
	if _, dup := database.IsUniqueViolation(err); dup {
		return nil, common.ErrDuplicateIdentity
	}
	if err != nil {
		return nil, wrapNotFound(msg, err)
	}
	return &user, nil
}

// discard deletes an object nobody references any more. Failure leaves an
// orphan behind, which is logged but not fatal.
func (s *UserService) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "failed to delete avatar object", "key", key, "error", err)
	}
}
