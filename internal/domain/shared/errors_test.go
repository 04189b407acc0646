package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError(t *testing.T) {
	t.Run("error message", func(t *testing.T) {
		err := NewDomainError("SOME_CODE", "something went wrong")
		assert.Equal(t, "something went wrong", err.Error())
	})

	t.Run("message includes the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := ErrComputationFailed.WithCause(cause)
		assert.Equal(t, "Cached computation failed: connection refused", err.Error())
	})

	t.Run("errors.Is matches by code", func(t *testing.T) {
		wrapped := ErrInsufficientStock.WithCause(errors.New("row locked"))
		assert.ErrorIs(t, wrapped, ErrInsufficientStock)
		assert.NotErrorIs(t, wrapped, ErrNotFound)
	})

	t.Run("errors.Is reaches the cause through Unwrap", func(t *testing.T) {
		cause := errors.New("disk full")
		wrapped := ErrConcurrencyConflict.WithCause(cause)
		assert.ErrorIs(t, wrapped, cause)
	})

	t.Run("errors.Is works through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("saving order: %w", ErrConcurrencyConflict)
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
	})

	t.Run("errors.As extracts the domain error", func(t *testing.T) {
		err := fmt.Errorf("handling request: %w", ErrReservationExpired)

		var domainErr *DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "RESERVATION_EXPIRED", domainErr.Code)
	})

	t.Run("WithCause leaves the sentinel untouched", func(t *testing.T) {
		wrapped := ErrNotFound.WithCause(errors.New("missing row"))
		assert.Nil(t, ErrNotFound.Cause)
		assert.NotNil(t, wrapped.Cause)
		assert.Equal(t, ErrNotFound.Code, wrapped.Code)
	})
}
