package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/policy"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// QuestionService edits the questions of a test that has not been published.
type QuestionService interface {
	AddQuestion(ctx context.Context, viewer policy.Viewer, testID uint, req dto.QuestionCreateDTO) (*dto.AdminQuestionDTO, error)
	DeleteQuestion(ctx context.Context, viewer policy.Viewer, questionID uint) error
}

type questionService struct {
	repo  repository.QuestionRepository
	tests TestService
}

func NewQuestionService(repo repository.QuestionRepository, tests TestService) QuestionService {
	return &questionService{repo: repo, tests: tests}
}

func (s *questionService) AddQuestion(ctx context.Context, viewer policy.Viewer, testID uint, req dto.QuestionCreateDTO) (*dto.AdminQuestionDTO, error) {
	test, err := s.editableTest(ctx, viewer, testID)
	if err != nil {
		return nil, err
	}

	order := req.Order
	if order == 0 {
		if order, err = s.repo.NextOrder(ctx, testID); err != nil {
			return nil, fmt.Errorf("failed to compute question order: %w", err)
		}
	}
	question, err := questionModel(req, order)
	if err != nil {
		return nil, err
	}
	question.TestID = test.ID

	if err := s.repo.Create(ctx, &question); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(apperr.ReasonNone, "test %d already has a question at order %d", testID, order)
		}
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to create question")
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	var resp dto.AdminQuestionDTO
	copier.Copy(&resp, &question)
	return &resp, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, viewer policy.Viewer, questionID uint) error {
	question, err := s.repo.FindByID(ctx, questionID)
	if err != nil {
		return notFoundOr(err, "question", questionID)
	}
	if _, err := s.editableTest(ctx, viewer, question.TestID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("question %d not found", questionID)
		}
		log.Error().Err(err).Uint("questionID", questionID).Msg("Failed to delete question")
		return fmt.Errorf("failed to delete question %d: %w", questionID, err)
	}
	return nil
}

// editableTest loads a test the viewer owns and may still change.
func (s *questionService) editableTest(ctx context.Context, viewer policy.Viewer, testID uint) (*model.Test, error) {
	test, err := s.tests.Load(ctx, testID, false)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckOwner(viewer, test); err != nil {
		return nil, err
	}
	if test.IsPublished {
		return nil, apperr.Conflict(apperr.ReasonPublished, "test %d is published and can no longer be edited", testID)
	}
	return test, nil
}

// questionModel validates a question definition and converts it to a model.
func questionModel(req dto.QuestionCreateDTO, order int) (model.Question, error) {
	qt := model.QuestionType(req.Type)
	switch qt {
	case model.QuestionMCQ, model.QuestionCheckbox, model.QuestionText, model.QuestionCoding:
	default:
		return model.Question{}, apperr.Invalid(apperr.ReasonNone, "unknown question type %q", req.Type)
	}
	if qt.HasOptions() && len(req.Options) == 0 {
		return model.Question{}, apperr.Invalid(apperr.ReasonNone, "%s question at order %d needs options", qt, order)
	}
	if !qt.HasOptions() && len(req.Options) > 0 {
		return model.Question{}, apperr.Invalid(apperr.ReasonNone, "%s question at order %d cannot have options", qt, order)
	}

	question := model.Question{
		Text:     req.Text,
		Type:     qt,
		Order:    order,
		Required: req.Required,
	}
	for _, o := range req.Options {
		question.Options = append(question.Options, model.Option{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	return question, nil
}
