package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"companion-backend/internal/common"
	"companion-backend/internal/database"
	"companion-backend/internal/dto"

	"github.com/google/uuid"
)

// Scope is who a resource operation runs as. Every statement against an
// owned table filters on it.
type Scope struct {
	SubjectID uuid.UUID
	Admin     bool
}

// listOwner picks whose rows a listing returns. Only admins may name
// another user.
func (s Scope) listOwner(requested dto.ListOwner) uuid.UUID {
	if s.Admin && requested.UserID != uuid.Nil {
		return requested.UserID
	}
	return s.SubjectID
}

// ownedBy renders the row-level ownership predicate starting at placeholder
// n. Admins match every row; everyone else only their own.
func ownedBy(n int) string {
	return fmt.Sprintf("(user_id = $%d or $%d::boolean)", n, n+1)
}

func (s Scope) args() []any {
	return []any{s.SubjectID, s.Admin}
}

// filter accumulates "and"-joined predicates with positional placeholders.
type filter struct {
	clauses []string
	args    []any
}

// add appends a predicate; clause takes the placeholder number via %d.
func (f *filter) add(clause string, arg any) {
	f.args = append(f.args, arg)
	f.clauses = append(f.clauses, fmt.Sprintf(clause, len(f.args)))
}

func (f *filter) addRange(column string, tr dto.TimeRange) {
	if tr.From != nil {
		f.add(column+" >= $%d", *tr.From)
	}
	if tr.To != nil {
		f.add(column+" <= $%d", *tr.To)
	}
}

func (f *filter) where() string {
	return strings.Join(f.clauses, " and ")
}

// page appends limit/offset placeholders and returns the clause.
func (f *filter) page(p dto.Page) string {
	f.args = append(f.args, p.Limit, p.Offset)
	return fmt.Sprintf("limit $%d offset $%d", len(f.args)-1, len(f.args))
}

// wrapNotFound maps a missing row to ErrNotFound and wraps anything else
// with msg.
func wrapNotFound(msg string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// deleteOwned removes one row of table visible to scope.
func deleteOwned(ctx context.Context, db *database.DB, table string, scope Scope, id uuid.UUID) error {
	query := fmt.Sprintf("delete from %s where id = $1 and %s", table, ownedBy(2))
	res, err := db.ExecContext(ctx, query, append([]any{id}, scope.args()...)...)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
