package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/grading"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/policy"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TestSubmissionService closes attempts and serves their results.
type TestSubmissionService interface {
	Submit(ctx context.Context, viewer policy.Viewer, testID uint, req dto.TestSubmitDTO) (*dto.SubmitResultDTO, error)
	GetResults(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.TestResultDTO, error)
	GetUserAttemptsForTest(ctx context.Context, viewer policy.Viewer, testID uint) ([]dto.AttemptHistoryDTO, error)
}

type testSubmissionService struct {
	tests       TestService
	attemptRepo repository.TestAttemptRepository
	answerRepo  repository.AnswerRepository
	settings    Settings
	db          *gorm.DB
}

func NewTestSubmissionService(
	tests TestService,
	attemptRepo repository.TestAttemptRepository,
	answerRepo repository.AnswerRepository,
	settings Settings,
	db *gorm.DB,
) TestSubmissionService {
	return &testSubmissionService{
		tests:       tests,
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		settings:    settings,
		db:          db,
	}
}

func (s *testSubmissionService) Submit(ctx context.Context, viewer policy.Viewer, testID uint, req dto.TestSubmitDTO) (*dto.SubmitResultDTO, error) {
	if viewer.IsAdmin() {
		return nil, apperr.Forbidden(apperr.ReasonNotAvailable, "administrators cannot attempt tests")
	}
	test, err := s.tests.Load(ctx, testID, true)
	if err != nil {
		return nil, err
	}
	now := s.tests.Now()

	open, err := s.attemptRepo.FindOpen(ctx, testID, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find open attempt: %w", err)
	}
	if open == nil {
		return nil, apperr.Conflict(apperr.ReasonAttemptClosed, "no attempt in progress for test %d", testID)
	}

	if s.settings.deadlinePassed(open.StartedAt, test.Duration, now) {
		if _, err := s.attemptRepo.MarkSubmitted(ctx, open.ID, now, 0); err != nil {
			log.Error().Err(err).Uint("attemptID", open.ID).Msg("Failed to close attempt past its deadline")
			return nil, fmt.Errorf("failed to close attempt %d: %w", open.ID, err)
		}
		log.Info().Uint("attemptID", open.ID).Uint("userID", viewer.UserID).Msg("Rejected submission past deadline")
		return nil, apperr.Invalid(apperr.ReasonDeadlineExceeded, "attempt %d was due %d minutes after it started", open.ID, test.Duration)
	}

	answers, err := buildAnswers(test.Questions, req.Answers)
	if err != nil {
		return nil, err
	}
	summary := grading.Score(test.Questions, answers)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.attemptRepo.WithTx(tx).MarkSubmitted(ctx, open.ID, now, summary.Percentage)
		if err != nil {
			return fmt.Errorf("failed to mark attempt %d submitted: %w", open.ID, err)
		}
		if !ok {
			return apperr.Conflict(apperr.ReasonAttemptClosed, "attempt %d was already submitted", open.ID)
		}
		for i := range answers {
			answers[i].TestAttemptID = open.ID
		}
		if err := s.answerRepo.WithTx(tx).CreateBatch(ctx, answers); err != nil {
			return fmt.Errorf("failed to save answers for attempt %d: %w", open.ID, err)
		}
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); !ok {
			log.Error().Err(err).Uint("attemptID", open.ID).Msg("Submission transaction failed")
		}
		return nil, err
	}

	open.SubmittedAt = &now
	open.Score = &summary.Percentage
	vis := s.settings.Reveal.For(test.IsPublished, test.ResultsDue(now), viewer.Role)

	resp := &dto.SubmitResultDTO{Attempt: attemptDTO(open, vis.Answers)}
	if vis.Correctness {
		resp.Summary = summaryDTO(summary)
	}
	log.Info().Uint("attemptID", open.ID).Uint("testID", testID).Uint("userID", viewer.UserID).
		Int("correct", summary.CorrectCount).Int("total", summary.TotalQuestions).
		Msg("Attempt submitted")
	return resp, nil
}

func (s *testSubmissionService) GetResults(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.TestResultDTO, error) {
	test, err := s.tests.Load(ctx, testID, true)
	if err != nil {
		return nil, err
	}
	latest, err := s.attemptRepo.FindLatestSubmitted(ctx, testID, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find submitted attempt: %w", err)
	}
	if err := policy.CheckResults(viewer, test, latest != nil); err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, apperr.NotFound("no submitted attempt for test %d", testID)
	}

	vis := s.settings.Reveal.For(test.IsPublished, test.ResultsDue(s.tests.Now()), viewer.Role)
	resp := &dto.TestResultDTO{
		Attempt: attemptDTO(latest, vis.Answers),
		Test:    buildTestView(test, vis, nonNil(latest.Answers)),
	}
	if vis.Correctness {
		resp.Summary = summaryDTO(grading.Score(test.Questions, latest.Answers))
	}
	return resp, nil
}

func (s *testSubmissionService) GetUserAttemptsForTest(ctx context.Context, viewer policy.Viewer, testID uint) ([]dto.AttemptHistoryDTO, error) {
	test, err := s.tests.Load(ctx, testID, false)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.FindAllByTestAndUser(ctx, testID, viewer.UserID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Uint("userID", viewer.UserID).Msg("Failed to get attempts")
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	vis := s.settings.Reveal.For(test.IsPublished, test.ResultsDue(s.tests.Now()), viewer.Role)
	history := make([]dto.AttemptHistoryDTO, 0, len(attempts))
	for i := range attempts {
		var row dto.AttemptHistoryDTO
		copier.Copy(&row, &attempts[i])
		row.InProgress = attempts[i].InProgress()
		if !vis.Answers {
			row.Score = nil
		}
		history = append(history, row)
	}
	return history, nil
}

// buildAnswers validates a submission against the test's questions and
// expands it into answer rows: one per MCQ choice, one per CHECKBOX
// selection, one per free-form answer.
func buildAnswers(questions []model.Question, submitted []dto.AnswerSubmitDTO) ([]model.Answer, error) {
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	seen := make(map[uint]bool, len(submitted))
	var rows []model.Answer
	for _, a := range submitted {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, apperr.Invalid(apperr.ReasonInvalidAnswer, "question %d is not part of this test", a.QuestionID)
		}
		if seen[q.ID] {
			return nil, apperr.Invalid(apperr.ReasonInvalidAnswer, "question %d answered more than once", q.ID)
		}
		seen[q.ID] = true

		switch q.Type {
		case model.QuestionMCQ:
			if len(a.OptionIDs) > 0 {
				return nil, apperr.Invalid(apperr.ReasonInvalidAnswer, "question %d accepts a single option", q.ID)
			}
			if a.OptionID == nil {
				continue
			}
			if !hasOption(q, *a.OptionID) {
				return nil, apperr.Invalid(apperr.ReasonInvalidAnswer, "option %d does not belong to question %d", *a.OptionID, q.ID)
			}
			rows = append(rows, model.Answer{QuestionID: q.ID, OptionID: uintPtr(*a.OptionID)})
		case model.QuestionCheckbox:
			ids := a.OptionIDs
			if a.OptionID != nil {
				ids = append([]uint{*a.OptionID}, ids...)
			}
			picked := make(map[uint]bool, len(ids))
			for _, id := range ids {
				if !hasOption(q, id) {
					return nil, apperr.Invalid(apperr.ReasonInvalidAnswer, "option %d does not belong to question %d", id, q.ID)
				}
				if picked[id] {
					continue
				}
				picked[id] = true
				rows = append(rows, model.Answer{QuestionID: q.ID, OptionID: uintPtr(id)})
			}
		case model.QuestionText:
			if a.TextAnswer == nil || strings.TrimSpace(*a.TextAnswer) == "" {
				continue
			}
			rows = append(rows, model.Answer{QuestionID: q.ID, TextAnswer: a.TextAnswer})
		case model.QuestionCoding:
			code := a.CodeAnswer
			if code == nil {
				code = a.TextAnswer
			}
			if code == nil || strings.TrimSpace(*code) == "" {
				continue
			}
			rows = append(rows, model.Answer{QuestionID: q.ID, CodeAnswer: code})
		}
	}

	answered := make(map[uint]bool, len(rows))
	for _, r := range rows {
		answered[r.QuestionID] = true
	}
	for i := range questions {
		q := &questions[i]
		if q.Required && !answered[q.ID] {
			return nil, apperr.Invalid(apperr.ReasonRequiredUnanswered, "question %d is required", q.ID)
		}
	}
	return rows, nil
}

func hasOption(q *model.Question, optionID uint) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

func uintPtr(v uint) *uint { return &v }

// nonNil distinguishes "submitted nothing" from "no submission" for the view builder.
func nonNil(a []model.Answer) []model.Answer {
	if a == nil {
		return []model.Answer{}
	}
	return a
}
