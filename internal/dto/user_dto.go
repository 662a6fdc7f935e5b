package dto

import (
	"net/url"
	"strings"

	"companion-backend/internal/common"
	"companion-backend/internal/models"
)

type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	// Password, when set, replaces the current password.
	Password *string `json:"password"`
}

func (r *UpdateProfileRequest) Apply(user *models.User) {
	if r.Username != nil {
		user.Username = strings.TrimSpace(*r.Username)
	}
	if r.Email != nil {
		user.Email = models.NormalizeEmail(*r.Email)
	}
	if r.FirstName != nil {
		user.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		user.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Bio != nil {
		user.Bio = *r.Bio
	}
}

type UpdateNotificationsRequest struct {
	Email         *bool `json:"email"`
	Push          *bool `json:"push"`
	Reminders     *bool `json:"reminders"`
	WeeklySummary *bool `json:"weekly_summary"`
}

func (r *UpdateNotificationsRequest) Apply(s *models.NotificationSettings) {
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.Push != nil {
		s.Push = *r.Push
	}
	if r.Reminders != nil {
		s.Reminders = *r.Reminders
	}
	if r.WeeklySummary != nil {
		s.Weekly = *r.WeeklySummary
	}
}

type UpdatePrivacyRequest struct {
	ProfileVisibility *models.ProfileVisibility `json:"profile_visibility"`
	ShareHealthData   *bool                     `json:"share_health_data"`
	ShareMoodData     *bool                     `json:"share_mood_data"`
}

func (r *UpdatePrivacyRequest) Apply(s *models.PrivacySettings) {
	if r.ProfileVisibility != nil {
		s.ProfileVisibility = *r.ProfileVisibility
	}
	if r.ShareHealthData != nil {
		s.ShareHealthData = *r.ShareHealthData
	}
	if r.ShareMoodData != nil {
		s.ShareMoodData = *r.ShareMoodData
	}
}

type UpdateRoleRequest struct {
	Role   *models.UserRole   `json:"role"`
	Status *models.UserStatus `json:"status"`
}

func (r *UpdateRoleRequest) Validate() error {
	v := &common.ValidationError{}
	if r.Role == nil && r.Status == nil {
		v.Add("role", "role or status is required")
	}
	if r.Role != nil && !r.Role.Valid() {
		v.Add("role", "must be 'user' or 'admin'")
	}
	if r.Status != nil && !r.Status.Valid() {
		v.Add("status", "must be 'active', 'inactive' or 'suspended'")
	}
	return v.Err()
}

type UserListQuery struct {
	Page
	Role   models.UserRole
	Status models.UserStatus
}

func ParseUserListQuery(values url.Values) (UserListQuery, error) {
	v := &common.ValidationError{}
	q := UserListQuery{
		Page:   parsePage(v, values),
		Role:   models.UserRole(values.Get("role")),
		Status: models.UserStatus(values.Get("status")),
	}
	if q.Role != "" && !q.Role.Valid() {
		v.Add("role", "must be 'user' or 'admin'")
	}
	if q.Status != "" && !q.Status.Valid() {
		v.Add("status", "must be 'active', 'inactive' or 'suspended'")
	}
	return q, v.Err()
}
