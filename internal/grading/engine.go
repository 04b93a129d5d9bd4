// Package grading scores a submitted answer set against a test's questions.
//
// MCQ and CHECKBOX questions are auto-graded with all-or-nothing credit.
// TEXT and CODING questions are never auto-graded: they count toward the
// total but never toward the correct count.
package grading

import "github.com/lshigami/examhall/internal/model"

type Summary struct {
	CorrectCount   int           `json:"correct_count"`
	TotalQuestions int           `json:"total_questions"`
	Percentage     float64       `json:"percentage"`
	Correct        map[uint]bool `json:"-"` // per question id
}

// Score grades answers against questions. Answers for questions outside the
// list are ignored; callers validate ownership before persisting.
func Score(questions []model.Question, answers []model.Answer) Summary {
	byQuestion := make(map[uint][]model.Answer, len(questions))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	s := Summary{TotalQuestions: len(questions), Correct: make(map[uint]bool, len(questions))}
	for i := range questions {
		q := &questions[i]
		ok := IsCorrect(q, byQuestion[q.ID])
		s.Correct[q.ID] = ok
		if ok {
			s.CorrectCount++
		}
	}
	s.Percentage = Percentage(s.CorrectCount, s.TotalQuestions)
	return s
}

// IsCorrect grades a single question given every answer row submitted for it.
func IsCorrect(q *model.Question, answers []model.Answer) bool {
	switch q.Type {
	case model.QuestionMCQ:
		return mcqCorrect(q, answers)
	case model.QuestionCheckbox:
		return checkboxCorrect(q, answers)
	default:
		return false
	}
}

func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

func mcqCorrect(q *model.Question, answers []model.Answer) bool {
	if len(answers) != 1 || answers[0].OptionID == nil {
		return false
	}
	// The key is the first option flagged correct; without one the
	// question can never be matched.
	for _, o := range q.Options {
		if o.IsCorrect {
			return *answers[0].OptionID == o.ID
		}
	}
	return false
}

func checkboxCorrect(q *model.Question, answers []model.Answer) bool {
	selected := make(map[uint]struct{}, len(answers))
	for _, a := range answers {
		if a.OptionID != nil {
			selected[*a.OptionID] = struct{}{}
		}
	}
	if len(selected) == 0 {
		return false
	}

	correct := make(map[uint]struct{})
	for _, o := range q.Options {
		if o.IsCorrect {
			correct[o.ID] = struct{}{}
		}
	}
	if len(correct) != len(selected) {
		return false
	}
	for id := range selected {
		if _, ok := correct[id]; !ok {
			return false
		}
	}
	return true
}
