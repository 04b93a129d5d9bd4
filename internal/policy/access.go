// Package policy decides who may list, view, attempt or see results for a
// test, and how much correctness information a viewer receives.
//
// Every function takes the test as the lifecycle resolver left it; callers
// resolve first.
package policy

import (
	"time"

	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/model"
)

type Viewer struct {
	UserID uint
	Role   model.Role
}

func (v Viewer) IsAdmin() bool { return v.Role == model.RoleAdmin }

// AttemptFacts is what the attempt store knows about a (test, user) pair.
type AttemptFacts struct {
	Used         int  // all attempts, open or submitted
	HasOpen      bool // an attempt with no submitted_at exists
	HasSubmitted bool
}

// CanList reports whether t belongs in v's test list. Student listing is not
// gated by class enrollment.
func CanList(v Viewer, t *model.Test, now time.Time) bool {
	if v.IsAdmin() {
		return t.CreatedBy == v.UserID
	}
	return t.IsActive && (t.EndTime == nil || t.EndTime.After(now))
}

func CheckOwner(v Viewer, t *model.Test) error {
	if !v.IsAdmin() || t.CreatedBy != v.UserID {
		return apperr.Forbidden(apperr.ReasonNotOwner, "test %d is managed by another administrator", t.ID)
	}
	return nil
}

// CheckView gates the test-detail view. classAccess is true when the student
// holds an APPROVED enrollment in a class the test is assigned to.
func CheckView(v Viewer, t *model.Test, classAccess bool) error {
	if v.IsAdmin() {
		return CheckOwner(v, t)
	}
	if t.Status == model.TestStatusExpired && !t.IsPublished {
		return apperr.Forbidden(apperr.ReasonExpired, "test %d has expired", t.ID)
	}
	if !t.IsActive && !t.IsPublished {
		return apperr.Forbidden(apperr.ReasonNotAvailable, "test %d is not available", t.ID)
	}
	if !classAccess {
		return apperr.Forbidden(apperr.ReasonNotEnrolled, "no approved enrollment in a class assigned to test %d", t.ID)
	}
	return nil
}

// CheckStart gates Start. A nil result with facts.HasOpen means "resume".
func CheckStart(v Viewer, t *model.Test, now time.Time, classAccess bool, facts AttemptFacts) error {
	if v.IsAdmin() {
		return apperr.Forbidden(apperr.ReasonNotAvailable, "administrators cannot attempt tests")
	}
	// Enrollment comes first so outsiders never learn the schedule.
	if !classAccess {
		return apperr.Forbidden(apperr.ReasonNotEnrolled, "no approved enrollment in a class assigned to test %d", t.ID)
	}
	if t.StartTime != nil && now.Before(*t.StartTime) {
		return apperr.NotYetStarted(*t.StartTime)
	}
	if t.EndTime != nil && now.After(*t.EndTime) && !t.IsPublished {
		return apperr.Invalid(apperr.ReasonEnded, "test %d ended at %s", t.ID, t.EndTime.Format(time.RFC3339))
	}
	if err := CheckView(v, t, classAccess); err != nil {
		return err
	}
	if facts.HasOpen {
		return nil
	}
	if facts.HasSubmitted && t.IsPublished {
		return apperr.Forbidden(apperr.ReasonAlreadyCompleted, "test %d already completed and results are published", t.ID)
	}
	if !t.MaxAttempts.Allows(facts.Used) {
		return apperr.Forbidden(apperr.ReasonMaxAttemptsReached, "%d of %s attempts used", facts.Used, t.MaxAttempts)
	}
	return nil
}

// CheckResults gates the results view.
func CheckResults(v Viewer, t *model.Test, hasSubmitted bool) error {
	if v.IsAdmin() {
		return CheckOwner(v, t)
	}
	if !hasSubmitted {
		return apperr.NotFound("no submitted attempt for test %d", t.ID)
	}
	if !t.IsPublished {
		return apperr.Forbidden(apperr.ReasonResultsPending, "results for test %d have not been released", t.ID)
	}
	return nil
}
