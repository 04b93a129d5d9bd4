// Package lifecycle computes a test's effective activation and expiry state.
// Resolve is pure: the same (test, now) always yields the same result, and
// the returned Transition describes the write-back a caller may persist with
// a compare-and-swap.
package lifecycle

import (
	"time"

	"github.com/lshigami/examhall/internal/model"
)

// State is the materialized part of a test that the resolver may change.
type State struct {
	IsActive bool
	Status   model.TestStatus
}

func StateOf(t *model.Test) State {
	return State{IsActive: t.IsActive, Status: t.Status}
}

// Transition is a pending write-back: apply To only where the row still
// holds From and its schedule is still at Revision.
type Transition struct {
	From     State
	To       State
	Revision int
}

// Resolve returns a copy of t with its effective state at now. The
// transition is nil when nothing changed.
func Resolve(t model.Test, now time.Time) (model.Test, *Transition) {
	from := StateOf(&t)
	if t.IsPublished {
		return t, nil
	}

	// An expired test never comes back, even if its start time has passed.
	if t.StartTime != nil && !t.StartTime.After(now) && !t.IsActive && t.Status != model.TestStatusExpired {
		t.IsActive = true
	}

	if t.Status != model.TestStatusComplete && t.EndTime != nil && !t.EndTime.After(now) {
		expire(&t)
	}

	if t.Status != model.TestStatusComplete && t.ExpiryDuration != nil {
		if now.After(ExpiresAt(&t)) {
			expire(&t)
		}
	}

	to := StateOf(&t)
	if to == from {
		return t, nil
	}
	return t, &Transition{From: from, To: to, Revision: t.Revision}
}

// ExpiresAt is createdAt shifted by the expiry duration. Callers must check
// ExpiryDuration is set.
func ExpiresAt(t *model.Test) time.Time {
	return t.ExpiryUnit.After(t.CreatedAt, *t.ExpiryDuration)
}

// InitialActive decides is_active for a freshly created or rescheduled test:
// tests without a start time, or whose start time has passed, open at once.
func InitialActive(t *model.Test, now time.Time) bool {
	return t.StartTime == nil || !t.StartTime.After(now)
}

func expire(t *model.Test) {
	t.Status = model.TestStatusExpired
	t.IsActive = false
}
