package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_EmptyIsNil(t *testing.T) {
	v := &ValidationError{}
	assert.NoError(t, v.Err())
	assert.Equal(t, 0, v.Len())
	assert.Nil(t, v.Fields())
}

func TestValidationError_CollectsFields(t *testing.T) {
	v := &ValidationError{}
	v.Add("title", "is required")
	v.Add("priority", "must be one of %v", []string{"low", "high"})

	err := v.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, []string{"title: is required", "priority: must be one of [low high]"}, v.Fields())
	assert.Contains(t, err.Error(), "title: is required")
}

func TestInvalid(t *testing.T) {
	err := Invalid("email", "is malformed")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"email: is malformed"}, verr.Fields())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTokenErrorsAreUnauthorized(t *testing.T) {
	for _, err := range []error{ErrTokenExpired, ErrTokenMalformed, ErrTokenSignature} {
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
	assert.NotErrorIs(t, ErrNoToken, ErrUnauthorized)
}
