package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lshigami/examhall/internal/model"
)

func uintPtr(n uint) *uint { return &n }

func strPtr(s string) *string { return &s }

func mcq(id uint, correct ...uint) model.Question {
	q := model.Question{ID: id, Type: model.QuestionMCQ}
	for _, o := range []uint{id*10 + 1, id*10 + 2, id*10 + 3} {
		q.Options = append(q.Options, model.Option{ID: o, QuestionID: id, IsCorrect: contains(correct, o)})
	}
	return q
}

func checkbox(id uint, correct ...uint) model.Question {
	q := model.Question{ID: id, Type: model.QuestionCheckbox}
	for _, o := range []uint{id*10 + 1, id*10 + 2, id*10 + 3, id*10 + 4} {
		q.Options = append(q.Options, model.Option{ID: o, QuestionID: id, IsCorrect: contains(correct, o)})
	}
	return q
}

func contains(ids []uint, id uint) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func picks(questionID uint, optionIDs ...uint) []model.Answer {
	out := make([]model.Answer, 0, len(optionIDs))
	for _, id := range optionIDs {
		out = append(out, model.Answer{QuestionID: questionID, OptionID: uintPtr(id)})
	}
	return out
}

func TestIsCorrect_MCQ(t *testing.T) {
	q := mcq(1, 11) // O1 correct among {11,12,13}

	tests := []struct {
		name    string
		answers []model.Answer
		want    bool
	}{
		{name: "correct option", answers: picks(1, 11), want: true},
		{name: "wrong option", answers: picks(1, 12), want: false},
		{name: "other wrong option", answers: picks(1, 13), want: false},
		{name: "no selection", answers: nil, want: false},
		{name: "row without option", answers: []model.Answer{{QuestionID: 1}}, want: false},
		{name: "two rows", answers: picks(1, 11, 12), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCorrect(&q, tc.answers))
		})
	}
}

func TestIsCorrect_MCQWithoutKeyIsUnscoreable(t *testing.T) {
	q := mcq(2)
	for _, o := range q.Options {
		assert.False(t, IsCorrect(&q, picks(2, o.ID)))
	}
}

func TestIsCorrect_Checkbox(t *testing.T) {
	q := checkbox(3, 31, 33) // {O1,O3} among {O1..O4}

	tests := []struct {
		name    string
		answers []model.Answer
		want    bool
	}{
		{name: "exact set", answers: picks(3, 31, 33), want: true},
		{name: "exact set reversed", answers: picks(3, 33, 31), want: true},
		{name: "missing one", answers: picks(3, 31), want: false},
		{name: "extra one", answers: picks(3, 31, 32, 33), want: false},
		{name: "empty", answers: nil, want: false},
		{name: "disjoint", answers: picks(3, 32, 34), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCorrect(&q, tc.answers))
		})
	}
}

func TestIsCorrect_CheckboxEmptyKeyNeverScores(t *testing.T) {
	q := checkbox(4)
	assert.False(t, IsCorrect(&q, nil))
	assert.False(t, IsCorrect(&q, picks(4, 41)))
}

func TestIsCorrect_FreeFormNeverScores(t *testing.T) {
	text := model.Question{ID: 5, Type: model.QuestionText}
	code := model.Question{ID: 6, Type: model.QuestionCoding}

	assert.False(t, IsCorrect(&text, []model.Answer{{QuestionID: 5, TextAnswer: strPtr("42")}}))
	assert.False(t, IsCorrect(&code, []model.Answer{{QuestionID: 6, CodeAnswer: strPtr("fmt.Println(42)")}}))
}

func TestScore_Aggregate(t *testing.T) {
	questions := []model.Question{
		mcq(1, 11),
		mcq(2, 22),
		mcq(3, 31),
		{ID: 4, Type: model.QuestionText},
	}
	var answers []model.Answer
	answers = append(answers, picks(1, 11)...)
	answers = append(answers, picks(2, 22)...)
	answers = append(answers, picks(3, 32)...)
	answers = append(answers, model.Answer{QuestionID: 4, TextAnswer: strPtr("essay")})

	s := Score(questions, answers)

	assert.Equal(t, 2, s.CorrectCount)
	assert.Equal(t, 4, s.TotalQuestions)
	assert.InDelta(t, 50.0, s.Percentage, 1e-9)
	assert.Equal(t, map[uint]bool{1: true, 2: true, 3: false, 4: false}, s.Correct)
}

func TestScore_IgnoresForeignAnswersAndEmptyTests(t *testing.T) {
	s := Score(nil, picks(99, 991))
	assert.Equal(t, 0, s.TotalQuestions)
	assert.Equal(t, 0.0, s.Percentage)

	s = Score([]model.Question{checkbox(3, 31)}, picks(99, 31))
	assert.Equal(t, 0, s.CorrectCount)
	assert.Equal(t, 1, s.TotalQuestions)
}
