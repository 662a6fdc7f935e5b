package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"companion-backend/internal/auth"
	"companion-backend/internal/common"
	"companion-backend/internal/database"
	"companion-backend/internal/dto"
	"companion-backend/internal/models"

	"github.com/google/uuid"
)

type AuthService struct {
	db     *database.DB
	codec  *auth.Codec
	hasher *auth.PasswordHasher
	now    func() time.Time
}

func NewAuthService(db *database.DB, codec *auth.Codec, hasher *auth.PasswordHasher) *AuthService {
	return &AuthService{db: db, codec: codec, hasher: hasher, now: time.Now}
}

func (s *AuthService) RegisterUser(ctx context.Context, req *dto.RegisterUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := models.NormalizeEmail(req.Email)

	v := &common.ValidationError{}
	models.ValidateUsername(v, username)
	models.ValidateEmail(v, email)
	models.ValidatePassword(v, req.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var taken bool
	query := "select exists(select 1 from users where username = $1 or email = $2)"
	if err := s.db.GetContext(ctx, &taken, query, username, email); err != nil {
		return nil, fmt.Errorf("failed to check identity: %w", err)
	}
	if taken {
		return nil, common.ErrDuplicateIdentity
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	query = `
		insert into users (username, email, password_hash, role, status)
		values ($1, $2, $3, $4, $5)
		returning ` + userColumns

	var user models.User
	err = s.db.GetContext(ctx, &user, query, username, email, passwordHash, models.UserRoleUser, models.UserStatusActive)
	// a concurrent signup can still win the race past the exists check
	if _, dup := database.IsUniqueViolation(err); dup {
		return nil, common.ErrDuplicateIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return &user, nil
}

// LoginUser looks the subject up by email when the identifier contains '@'
// and by username otherwise. Unknown identifiers and wrong passwords both
// yield ErrInvalidCredentials.
func (s *AuthService) LoginUser(ctx context.Context, req *dto.LoginUserRequest) (*models.User, *auth.TokenPair, error) {
	identifier := req.LoginIdentifier()
	if identifier == "" || req.Password == "" {
		return nil, nil, common.Invalid("credentials", "email or username and password are required")
	}

	column, value := "username", identifier
	if strings.Contains(identifier, "@") {
		column, value = "email", models.NormalizeEmail(identifier)
	}

	user, err := findUser(ctx, s.db, column, value)
	if errors.Is(err, common.ErrNotFound) {
		s.hasher.CompareDummy(req.Password)
		return nil, nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		return nil, nil, common.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, nil, fmt.Errorf("%w: account is %s", common.ErrForbidden, user.Status)
	}

	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx, "update users set last_login_at = $1 where id = $2", now, user.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now

	pair, err := s.codec.IssuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RefreshToken trades a refresh token for a new pair. The subject must still
// exist and be active.
func (s *AuthService) RefreshToken(ctx context.Context, token string) (*auth.TokenPair, error) {
	if token == "" {
		return nil, common.ErrNoToken
	}
	subjectID, err := s.codec.Verify(token, auth.KindRefresh)
	if err != nil {
		return nil, err
	}

	user, err := findUser(ctx, s.db, "id", subjectID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: subject no longer exists", common.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("%w: account is %s", common.ErrForbidden, user.Status)
	}

	return s.codec.IssuePair(user.ID)
}

// VerifyToken answers for an explicit check, so a missing token is just an
// invalid one here; the 403 for a missing token belongs to the request gate.
func (s *AuthService) VerifyToken(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, common.ErrNoToken)
	}
	return s.codec.Verify(token, auth.KindAccess)
}
