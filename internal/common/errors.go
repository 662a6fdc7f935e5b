// Package common holds the sentinel errors shared by services, middleware and
// handlers. Callers match them with errors.Is.
package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrDuplicateIdentity = errors.New("username or email already registered")

	ErrInvalidCredentials = errors.New("invalid credentials")

	// gate errors
	ErrNoToken      = errors.New("no token provided")
	ErrUnauthorized = errors.New("unauthorized")

	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenMalformed = fmt.Errorf("%w: token malformed", ErrUnauthorized)
	ErrTokenSignature = fmt.Errorf("%w: bad token signature", ErrUnauthorized)
)

// ValidationError collects every field problem found while validating one
// input. It matches ErrValidation.
type ValidationError struct {
	errs *multierror.Error
}

// Add records a problem with field. The zero value is ready to use.
func (v *ValidationError) Add(field, format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf("%s: %s", field, fmt.Sprintf(format, args...)))
}

func (v *ValidationError) Len() int {
	if v == nil || v.errs == nil {
		return 0
	}
	return v.errs.Len()
}

// Fields returns the individual problems in the order they were added.
func (v *ValidationError) Fields() []string {
	if v.Len() == 0 {
		return nil
	}
	out := make([]string, 0, v.errs.Len())
	for _, err := range v.errs.Errors {
		out = append(out, err.Error())
	}
	return out
}

func (v *ValidationError) Error() string {
	if v.Len() == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(v.Fields(), "; "))
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// Err returns nil when nothing was recorded, so callers can write
// `return v.Err()` at the end of a Validate method.
func (v *ValidationError) Err() error {
	if v.Len() == 0 {
		return nil
	}
	return v
}

// Invalid builds a single-field validation error.
func Invalid(field, format string, args ...any) error {
	v := &ValidationError{}
	v.Add(field, format, args...)
	return v
}
