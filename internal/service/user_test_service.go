package service

import (
	"context"
	"fmt"

	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/policy"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
)

// UserTestService serves the student-facing test list and detail view.
type UserTestService interface {
	GetAllTests(ctx context.Context, viewer policy.Viewer) ([]dto.TestSummaryDTO, error)
	GetTestDetails(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.TestViewDTO, error)
}

type userTestService struct {
	tests       TestService
	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	settings    Settings
}

func NewUserTestService(
	tests TestService,
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	settings Settings,
) UserTestService {
	return &userTestService{tests: tests, testRepo: testRepo, attemptRepo: attemptRepo, settings: settings}
}

func (s *userTestService) GetAllTests(ctx context.Context, viewer policy.Viewer) ([]dto.TestSummaryDTO, error) {
	rows, err := s.testRepo.ListActiveCandidates(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get tests with question count from repository")
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}

	now := s.tests.Now()
	dtos := make([]dto.TestSummaryDTO, 0, len(rows))
	for i := range rows {
		t := &rows[i].Test
		s.tests.Refresh(ctx, t)
		if !policy.CanList(viewer, t, now) {
			continue
		}
		dtos = append(dtos, dto.TestSummaryDTO{
			ID:            t.ID,
			Title:         t.Title,
			Description:   t.Description,
			Duration:      t.Duration,
			MaxAttempts:   t.MaxAttempts,
			StartTime:     t.StartTime,
			EndTime:       t.EndTime,
			IsPublished:   t.IsPublished,
			QuestionCount: rows[i].QuestionCount,
			CreatedAt:     t.CreatedAt,
		})
	}
	return dtos, nil
}

func (s *userTestService) GetTestDetails(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.TestViewDTO, error) {
	test, err := s.tests.Load(ctx, testID, true)
	if err != nil {
		return nil, err
	}

	classAccess := viewer.IsAdmin()
	if !viewer.IsAdmin() {
		if classAccess, err = s.tests.HasClassAccess(ctx, testID, viewer.UserID); err != nil {
			return nil, err
		}
	}
	if err := policy.CheckView(viewer, test, classAccess); err != nil {
		return nil, err
	}

	now := s.tests.Now()
	vis := s.settings.Reveal.For(test.IsPublished, test.ResultsDue(now), viewer.Role)

	view := buildTestView(test, vis, nil)
	if vis.Answers && !viewer.IsAdmin() {
		latest, err := s.attemptRepo.FindLatestSubmitted(ctx, testID, viewer.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to find submitted attempt: %w", err)
		}
		if latest != nil {
			view = buildTestView(test, vis, nonNil(latest.Answers))
		}
	}
	return &view, nil
}
