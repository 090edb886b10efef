package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(ErrCodeAlreadyPairedToday, "You have already paired today")
		assert.Equal(t, "ALREADY_PAIRED_TODAY: You have already paired today", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrCodeUnreachable, "Could not reach server", cause)
		assert.Contains(t, err.Error(), "UNREACHABLE")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Unreachable(cause)

	assert.True(t, errors.Is(err, cause))
}

func TestAsAppError(t *testing.T) {
	t.Run("direct AppError", func(t *testing.T) {
		appErr, ok := AsAppError(InvalidCredentials())
		assert.True(t, ok)
		assert.Equal(t, ErrCodeInvalidCredentials, appErr.Code)
	})

	t.Run("wrapped AppError", func(t *testing.T) {
		wrapped := fmt.Errorf("submit: %w", AlreadyPairedToday())
		appErr, ok := AsAppError(wrapped)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeAlreadyPairedToday, appErr.Code)
	})

	t.Run("plain error", func(t *testing.T) {
		_, ok := AsAppError(errors.New("boom"))
		assert.False(t, ok)
	})
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeUnauthorized, GetCode(Unauthorized("token rejected")))
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("boom")))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("createPairing: %w", PartnerAlreadyPaired())

	assert.True(t, HasCode(err, ErrCodePartnerAlreadyPaired))
	assert.False(t, HasCode(err, ErrCodeAlreadyPairedToday))
	assert.False(t, HasCode(errors.New("boom"), ErrCodeInternal))
}

func TestConstructorMessages(t *testing.T) {
	assert.Equal(t, "user not found", NotFound("user").Error()[len("NOT_FOUND: "):])
	assert.Equal(t, ErrCodeConsistencyViolation, ConsistencyViolation("duplicate records for today").Code)
	assert.Equal(t, ErrCodeInvalidPartner, InvalidPartner("Cannot pair with yourself").Code)
}
