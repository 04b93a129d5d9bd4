package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
)

func TestSubmitScoresAndStoresAnswersAtomically(t *testing.T) {
	f := newFixture(t, Settings{})
	test := f.createTest(t, f.sampleRequest())

	started, err := f.attempts.Start(f.ctx, alice, test.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	res, err := f.submissions.Submit(f.ctx, alice, test.ID, answers(t, test))
	require.NoError(t, err)
	assert.Equal(t, started.Attempt.ID, res.Attempt.ID)
	require.NotNil(t, res.Attempt.SubmittedAt)
	assert.True(t, t0.Add(10*time.Minute).Equal(*res.Attempt.SubmittedAt))
	assert.Nil(t, res.Attempt.Score, "score is withheld until results are published")
	assert.Nil(t, res.Summary)

	var stored model.TestAttempt
	require.NoError(t, f.db.Preload("Answers").First(&stored, res.Attempt.ID).Error)
	require.NotNil(t, stored.Score)
	assert.InDelta(t, 33.33, *stored.Score, 0.01)
	assert.Len(t, stored.Answers, 3, "MCQ, one checkbox pick and the text answer")

	_, err = f.submissions.Submit(f.ctx, alice, test.ID, answers(t, test))
	assert.Equal(t, apperr.ReasonAttemptClosed, apperr.ReasonOf(err), "a submitted attempt cannot be submitted again")
}

func TestSubmitAfterPublishReturnsSummary(t *testing.T) {
	f := newFixture(t, Settings{})
	test := f.createTest(t, f.sampleRequest())

	_, err := f.attempts.Start(f.ctx, alice, test.ID)
	require.NoError(t, err)
	_, err = f.admin.PublishTest(f.ctx, owner, test.ID)
	require.NoError(t, err)

	res, err := f.submissions.Submit(f.ctx, alice, test.ID, answers(t, test))
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 1, res.Summary.CorrectCount)
	assert.Equal(t, 3, res.Summary.TotalQuestions)
	require.NotNil(t, res.Attempt.Score)
	assert.InDelta(t, 33.33, *res.Attempt.Score, 0.01)
}

func TestSubmitRejectsInvalidAnswerSets(t *testing.T) {
	f := newFixture(t, Settings{})
	test := f.createTest(t, f.sampleRequest())
	other := f.createTest(t, f.sampleRequest())
	mcq, box := test.Questions[0], test.Questions[1]
	foreign := optionID(t, other.Questions[0], "4")
	four := optionID(t, mcq, "4")

	_, err := f.attempts.Start(f.ctx, alice, test.ID)
	require.NoError(t, err)

	cases := map[string]dto.TestSubmitDTO{
		"option from another test": {Answers: []dto.AnswerSubmitDTO{{QuestionID: mcq.ID, OptionID: &foreign}}},
		"question from another test": {Answers: []dto.AnswerSubmitDTO{
			{QuestionID: mcq.ID, OptionID: &four},
			{QuestionID: other.Questions[2].ID, TextAnswer: strPtr("x")},
		}},
		"question answered twice": {Answers: []dto.AnswerSubmitDTO{
			{QuestionID: mcq.ID, OptionID: &four},
			{QuestionID: mcq.ID, OptionID: &four},
		}},
		"several options for an MCQ": {Answers: []dto.AnswerSubmitDTO{{QuestionID: mcq.ID, OptionIDs: []uint{four}}}},
		"checkbox option of another question": {Answers: []dto.AnswerSubmitDTO{
			{QuestionID: mcq.ID, OptionID: &four},
			{QuestionID: box.ID, OptionIDs: []uint{four}},
		}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.submissions.Submit(f.ctx, alice, test.ID, req)
			assert.Equal(t, apperr.ReasonInvalidAnswer, apperr.ReasonOf(err))
		})
	}

	open, err := f.attemptRepo.FindOpen(f.ctx, test.ID, alice.UserID)
	require.NoError(t, err)
	assert.NotNil(t, open, "a rejected submission leaves the attempt open")

	var rows int64
	require.NoError(t, f.db.Model(&model.Answer{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestSubmitRequiresRequiredQuestions(t *testing.T) {
	f := newFixture(t, Settings{})
	test := f.createTest(t, f.sampleRequest())
	_, err := f.attempts.Start(f.ctx, alice, test.ID)
	require.NoError(t, err)

	_, err = f.submissions.Submit(f.ctx, alice, test.ID, dto.TestSubmitDTO{Answers: []dto.AnswerSubmitDTO{
		{QuestionID: test.Questions[0].ID},
		{QuestionID: test.Questions[2].ID, TextAnswer: strPtr("only text")},
	}})
	assert.Equal(t, apperr.ReasonRequiredUnanswered, apperr.ReasonOf(err))
}

func TestSubmitBlankAnswersScoreZero(t *testing.T) {
	f := newFixture(t, Settings{})
	req := f.sampleRequest()
	req.Questions[0].Required = false
	test := f.createTest(t, req)
	_, err := f.admin.PublishTest(f.ctx, owner, test.ID)
	require.NoError(t, err)

	_, err = f.attempts.Start(f.ctx, alice, test.ID)
	require.NoError(t, err)
	res, err := f.submissions.Submit(f.ctx, alice, test.ID, dto.TestSubmitDTO{})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 0, res.Summary.CorrectCount)
	assert.Zero(t, res.Summary.Percentage)
}

func TestSubmitWithoutOpenAttempt(t *testing.T) {
	f := newFixture(t, Settings{})
	test := f.createTest(t, f.sampleRequest())

	_, err := f.submissions.Submit(f.ctx, alice, test.ID, answers(t, test))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, e.Kind)
	assert.Equal(t, apperr.ReasonAttemptClosed, e.Reason)

	_, err = f.submissions.Submit(f.ctx, owner, test.ID, answers(t, test))
	assert.Error(t, err)
}

func TestResultsPendingUntilPublished(t *testing.T) {
	f := newFixture(t, Settings{})
	test := f.createTest(t, f.sampleRequest())

	_, err := f.submissions.GetResults(f.ctx, alice, test.ID)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, e.Kind, "nothing submitted yet")

	f.startAndSubmit(t, alice, test)
	_, err = f.submissions.GetResults(f.ctx, alice, test.ID)
	assert.Equal(t, apperr.ReasonResultsPending, apperr.ReasonOf(err))

	_, err = f.admin.PublishTest(f.ctx, owner, test.ID)
	require.NoError(t, err)
	res, err := f.submissions.GetResults(f.ctx, alice, test.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 1, res.Summary.CorrectCount)
	require.NotNil(t, res.Attempt.Score)
	require.Len(t, res.Test.Questions, 3)

	mcq := res.Test.Questions[0]
	require.NotNil(t, mcq.IsCorrect)
	assert.True(t, *mcq.IsCorrect)
	box := res.Test.Questions[1]
	require.NotNil(t, box.IsCorrect)
	assert.False(t, *box.IsCorrect)
	text := res.Test.Questions[2]
	require.NotNil(t, text.StudentAnswer)
	assert.Equal(t, "because", *text.StudentAnswer)
}

func TestResultsRequireEndTime(t *testing.T) {
	settings := Settings{}
	settings.Reveal.RequireEndForResults = true
	f := newFixture(t, settings)
	req := f.sampleRequest()
	closes := t0.Add(2 * time.Hour)
	req.EndTime = &closes
	test := f.createTest(t, req)

	f.startAndSubmit(t, alice, test)
	_, err := f.admin.PublishTest(f.ctx, owner, test.ID)
	require.NoError(t, err)

	res, err := f.submissions.GetResults(f.ctx, alice, test.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Summary, "correctness waits for the end time")
	require.NotNil(t, res.Attempt.Score, "attempt metadata is reported once published")
	assert.InDelta(t, 33.33, *res.Attempt.Score, 0.01)
	for _, q := range res.Test.Questions {
		assert.Nil(t, q.IsCorrect)
		for _, o := range q.Options {
			assert.Nil(t, o.IsCorrect)
		}
	}
	require.NotNil(t, res.Test.Questions[2].StudentAnswer, "own answers are already visible")

	f.clock.Set(closes)
	res, err = f.submissions.GetResults(f.ctx, alice, test.ID)
	require.NoError(t, err)
	assert.NotNil(t, res.Summary)
	assert.NotNil(t, res.Test.Questions[0].IsCorrect)
}

func TestResultsRequireEndTimeWithoutEndTime(t *testing.T) {
	settings := Settings{}
	settings.Reveal.RequireEndForResults = true
	f := newFixture(t, settings)
	test := f.createTest(t, f.sampleRequest())

	f.startAndSubmit(t, alice, test)
	_, err := f.admin.PublishTest(f.ctx, owner, test.ID)
	require.NoError(t, err)

	res, err := f.submissions.GetResults(f.ctx, alice, test.ID)
	require.NoError(t, err)
	assert.NotNil(t, res.Summary, "a test without an end time has nothing to wait for")
	assert.NotNil(t, res.Test.Questions[0].IsCorrect)
}

func TestSubmitRollsBackWhenAnswersFail(t *testing.T) {
	f := newFixture(t, Settings{})
	test := f.createTest(t, f.sampleRequest())
	started, err := f.attempts.Start(f.ctx, alice, test.ID)
	require.NoError(t, err)

	restore := f.failWrites(t, "answers")
	_, err = f.submissions.Submit(f.ctx, alice, test.ID, answers(t, test))
	require.Error(t, err)
	_, isExpected := apperr.As(err)
	assert.False(t, isExpected, "a storage failure is not a caller error")

	open, err := f.attemptRepo.FindOpen(f.ctx, test.ID, alice.UserID)
	require.NoError(t, err)
	require.NotNil(t, open, "the attempt stays in progress")
	assert.Equal(t, started.Attempt.ID, open.ID)
	assert.Nil(t, open.SubmittedAt)
	assert.Nil(t, open.Score)
	var rows int64
	require.NoError(t, f.db.Model(&model.Answer{}).Count(&rows).Error)
	assert.Zero(t, rows)

	restore()
	res, err := f.submissions.Submit(f.ctx, alice, test.ID, answers(t, test))
	require.NoError(t, err)
	assert.Equal(t, started.Attempt.ID, res.Attempt.ID)
	require.NoError(t, f.db.Model(&model.Answer{}).Count(&rows).Error)
	assert.EqualValues(t, 3, rows)
}

func TestAttemptHistory(t *testing.T) {
	f := newFixture(t, Settings{})
	test := f.createTest(t, f.sampleRequest())

	f.startAndSubmit(t, alice, test)
	f.clock.Advance(time.Hour)
	_, err := f.attempts.Start(f.ctx, alice, test.ID)
	require.NoError(t, err)

	history, err := f.submissions.GetUserAttemptsForTest(f.ctx, alice, test.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	inProgress := 0
	for _, h := range history {
		assert.Nil(t, h.Score, "scores are hidden before publication")
		if h.InProgress {
			inProgress++
		}
	}
	assert.Equal(t, 1, inProgress)

	other, err := f.submissions.GetUserAttemptsForTest(f.ctx, bob, test.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}
