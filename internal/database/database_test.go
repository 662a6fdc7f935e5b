package database

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"})

	constraint, ok := IsUniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", constraint)

	_, ok = IsUniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)

	_, ok = IsUniqueViolation(errors.New("boom"))
	assert.False(t, ok)
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrationsCreateOwnedTables(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/000002_create_resources.up.sql")
	require.NoError(t, err)

	for _, table := range []string{"tasks", "calendar_events", "health_metrics", "mood_logs"} {
		assert.Contains(t, string(body), "create table if not exists "+table)
	}
	assert.Equal(t, 4, strings.Count(string(body), "user_id uuid not null references users(id) on delete cascade"))
}

func TestMigrationsEnableUUIDDefaults(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/000001_create_users.up.sql")
	require.NoError(t, err)

	sql := string(body)
	ext := strings.Index(sql, "create extension if not exists pgcrypto;")
	require.NotEqual(t, -1, ext, "pgcrypto must be enabled for gen_random_uuid on PostgreSQL < 13")
	assert.Less(t, ext, strings.Index(sql, "gen_random_uuid()"))
}
