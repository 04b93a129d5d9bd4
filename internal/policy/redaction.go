package policy

import "github.com/lshigami/examhall/internal/model"

// RevealPolicy is the single redaction rule shared by the test-detail view
// and the results view.
type RevealPolicy struct {
	// RequireEndForResults additionally withholds correctness from students
	// until the test's end time has passed. Callers pass ended=true for tests
	// without an end time.
	RequireEndForResults bool
}

type Visibility struct {
	Correctness bool // option is_correct flags and per-question verdicts
	Answers     bool // the student's own selections and free-form answers
}

func (p RevealPolicy) For(published, ended bool, role model.Role) Visibility {
	if role == model.RoleAdmin {
		return Visibility{Correctness: true, Answers: true}
	}
	if !published {
		return Visibility{}
	}
	return Visibility{
		Correctness: !p.RequireEndForResults || ended,
		Answers:     true,
	}
}
