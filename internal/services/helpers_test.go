package services

import (
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"companion-backend/internal/database"
	"companion-backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mockDB.Close()
	})
	return database.Wrap(sqlx.NewDb(mockDB, "postgres")), mock
}

// columns splits a column list constant into names.
func columns(list string) []string {
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func userRow(u models.User) *sqlmock.Rows {
	var avatar any
	if u.AvatarKey != nil {
		avatar = *u.AvatarKey
	}
	if u.Role == "" {
		u.Role = models.UserRoleUser
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	return sqlmock.NewRows(columns(userColumns)).AddRow(
		u.ID.String(), u.Username, u.Email, u.PasswordHash, string(u.Role), string(u.Status),
		u.FirstName, u.LastName, u.Bio, avatar,
		true, true, true, false,
		"private", false, false,
		nil, fixedNow, fixedNow,
	)
}

func taskRow(t models.Task) *sqlmock.Rows {
	var completed any
	if t.CompletedAt != nil {
		completed = *t.CompletedAt
	}
	return sqlmock.NewRows(columns(taskColumns)).AddRow(
		t.ID.String(), t.UserID.String(), t.Title, t.Description, string(t.Status), string(t.Priority),
		t.Category, nil, completed, fixedNow, fixedNow,
	)
}

// bcryptOf matches a hashed argument against its plaintext.
type bcryptOf string

func (p bcryptOf) Match(v driver.Value) bool {
	hash, ok := v.(string)
	return ok && bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
}

// capture records a string argument and matches anything.
type capture struct {
	value *string
}

func (c capture) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*c.value = s
	}
	return ok
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func ptr[T any](v T) *T {
	return &v
}

var (
	aliceID = uuid.MustParse("6f1c0c1e-0000-4000-8000-00000000000a")
	bobID   = uuid.MustParse("6f1c0c1e-0000-4000-8000-00000000000b")
)
