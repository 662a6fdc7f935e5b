package models

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"companion-backend/internal/common"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

type ProfileVisibility string

const (
	VisibilityPublic  ProfileVisibility = "public"
	VisibilityFriends ProfileVisibility = "friends"
	VisibilityPrivate ProfileVisibility = "private"
)

func (v ProfileVisibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

type NotificationSettings struct {
	Email     bool `db:"notify_email" json:"email"`
	Push      bool `db:"notify_push" json:"push"`
	Reminders bool `db:"notify_reminders" json:"reminders"`
	Weekly    bool `db:"notify_weekly_summary" json:"weekly_summary"`
}

type PrivacySettings struct {
	ProfileVisibility ProfileVisibility `db:"profile_visibility" json:"profile_visibility"`
	ShareHealthData   bool              `db:"share_health_data" json:"share_health_data"`
	ShareMoodData     bool              `db:"share_mood_data" json:"share_mood_data"`
}

type User struct {
	ID uuid.UUID `db:"id" json:"id"`

	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`

	FirstName string  `db:"first_name" json:"first_name"`
	LastName  string  `db:"last_name" json:"last_name"`
	Bio       string  `db:"bio" json:"bio"`
	AvatarKey *string `db:"avatar_key" json:"-"`

	NotificationSettings
	PrivacySettings

	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

func (u *User) HasAvatar() bool {
	return u.AvatarKey != nil && *u.AvatarKey != ""
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

const MinPasswordLength = 8

// NormalizeEmail lowercases and trims so the unique index sees one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateUsername(v *common.ValidationError, username string) {
	if !usernamePattern.MatchString(username) {
		v.Add("username", "must be 3-32 characters of letters, digits, '.', '_' or '-'")
	}
}

func ValidateEmail(v *common.ValidationError, email string) {
	if email == "" {
		v.Add("email", "is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		v.Add("email", "is not a valid address")
	}
}

func ValidatePassword(v *common.ValidationError, password string) {
	if len(password) < MinPasswordLength {
		v.Add("password", "must be at least %d characters", MinPasswordLength)
	}
	if len(password) > 72 {
		v.Add("password", "must be at most 72 bytes")
	}
}

// Validate checks the mutable profile fields.
func (u *User) Validate() error {
	v := &common.ValidationError{}
	ValidateUsername(v, u.Username)
	ValidateEmail(v, u.Email)
	if !u.Role.Valid() {
		v.Add("role", "must be 'user' or 'admin'")
	}
	if !u.Status.Valid() {
		v.Add("status", "must be 'active', 'inactive' or 'suspended'")
	}
	if len(u.FirstName) > 100 {
		v.Add("first_name", "must be at most 100 characters")
	}
	if len(u.LastName) > 100 {
		v.Add("last_name", "must be at most 100 characters")
	}
	if len(u.Bio) > 1000 {
		v.Add("bio", "must be at most 1000 characters")
	}
	if !u.ProfileVisibility.Valid() {
		v.Add("profile_visibility", "must be 'public', 'friends' or 'private'")
	}
	return v.Err()
}
