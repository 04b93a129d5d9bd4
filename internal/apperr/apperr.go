// Package apperr holds the expected, caller-visible outcomes of the exam
// engine. They are returned as values, never retried, and mapped to HTTP
// statuses by the controllers.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindNotFound  Kind = "NOT_FOUND"
	KindForbidden Kind = "FORBIDDEN"
	KindInvalid   Kind = "INVALID"
	KindConflict  Kind = "CONFLICT"
)

type Reason string

const (
	ReasonNone Reason = ""

	ReasonNotEnrolled        Reason = "NOT_ENROLLED"
	ReasonNotAvailable       Reason = "NOT_AVAILABLE"
	ReasonExpired            Reason = "EXPIRED"
	ReasonResultsPending     Reason = "RESULTS_PENDING"
	ReasonAlreadyCompleted   Reason = "ALREADY_COMPLETED"
	ReasonMaxAttemptsReached Reason = "MAX_ATTEMPTS_REACHED"
	ReasonNotOwner           Reason = "NOT_OWNER"

	ReasonNotYetStarted      Reason = "NOT_YET_STARTED"
	ReasonEnded              Reason = "ENDED"
	ReasonDeadlineExceeded   Reason = "DEADLINE_EXCEEDED"
	ReasonRequiredUnanswered Reason = "REQUIRED_UNANSWERED"
	ReasonInvalidAnswer      Reason = "INVALID_ANSWER"
	ReasonPublished          Reason = "PUBLISHED"

	ReasonAttemptClosed Reason = "ATTEMPT_CLOSED"
)

type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	// ScheduledAt is set for NotYetStarted so callers can show when the test opens.
	ScheduledAt *time.Time
}

func (e *Error) Error() string {
	if e.Reason == ReasonNone {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Reason, e.Message)
}

// Is matches on Kind and Reason so sentinel-style comparisons work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Reason == ReasonNone || e.Reason == t.Reason)
}

func New(kind Kind, reason Reason, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, ReasonNone, format, args...)
}

func Forbidden(reason Reason, format string, args ...interface{}) *Error {
	return New(KindForbidden, reason, format, args...)
}

func Invalid(reason Reason, format string, args ...interface{}) *Error {
	return New(KindInvalid, reason, format, args...)
}

func Conflict(reason Reason, format string, args ...interface{}) *Error {
	return New(KindConflict, reason, format, args...)
}

func NotYetStarted(at time.Time) *Error {
	e := Invalid(ReasonNotYetStarted, "test opens at %s", at.Format(time.RFC3339))
	e.ScheduledAt = &at
	return e
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ReasonOf returns the reason carried by err, or ReasonNone.
func ReasonOf(err error) Reason {
	if e, ok := As(err); ok {
		return e.Reason
	}
	return ReasonNone
}
