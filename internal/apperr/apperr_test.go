package apperr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesKindAndReason(t *testing.T) {
	err := fmt.Errorf("start attempt: %w", Forbidden(ReasonMaxAttemptsReached, "2 of 2 attempts used"))

	assert.True(t, errors.Is(err, Forbidden(ReasonMaxAttemptsReached, "")))
	assert.True(t, errors.Is(err, &Error{Kind: KindForbidden}), "kind-only target matches any reason")
	assert.False(t, errors.Is(err, Forbidden(ReasonExpired, "")))
	assert.False(t, errors.Is(err, NotFound("")))
	assert.Equal(t, ReasonMaxAttemptsReached, ReasonOf(err))
	assert.Equal(t, ReasonNone, ReasonOf(errors.New("plain")))
}

func TestNotYetStartedCarriesSchedule(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e := NotYetStarted(at)

	require.NotNil(t, e.ScheduledAt)
	assert.Equal(t, at, *e.ScheduledAt)
	assert.Equal(t, KindInvalid, e.Kind)
	assert.Contains(t, e.Error(), "INVALID.NOT_YET_STARTED")
	assert.Contains(t, e.Error(), "2026-03-01T09:00:00Z")
}
