package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/lifecycle"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/policy"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService creates or resumes a student's attempt.
type AttemptService interface {
	Start(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.StartAttemptDTO, error)
}

type attemptService struct {
	tests       TestService
	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	settings    Settings
	db          *gorm.DB
}

func NewAttemptService(
	tests TestService,
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	settings Settings,
	db *gorm.DB,
) AttemptService {
	return &attemptService{
		tests:       tests,
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
		settings:    settings,
		db:          db,
	}
}

// errLostCreateRace marks a create that failed because a concurrent Start
// already opened an attempt for the same pair.
type errLostCreateRace struct{ err error }

func (e *errLostCreateRace) Error() string { return e.err.Error() }
func (e *errLostCreateRace) Unwrap() error { return e.err }

func (s *attemptService) Start(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.StartAttemptDTO, error) {
	if viewer.IsAdmin() {
		return nil, apperr.Forbidden(apperr.ReasonNotAvailable, "administrators cannot attempt tests")
	}

	// Class membership is not touched by Start, so it is read before the
	// transaction takes the test row lock.
	classAccess, err := s.tests.HasClassAccess(ctx, testID, viewer.UserID)
	if err != nil {
		return nil, err
	}

	now := s.tests.Now()
	var (
		result  dto.StartAttemptDTO
		pending *lifecycle.Transition
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		testRepo := s.testRepo.WithTx(tx)
		attemptRepo := s.attemptRepo.WithTx(tx)

		test, err := testRepo.FindByIDForUpdate(ctx, testID)
		if err != nil {
			return notFoundOr(err, "test", testID)
		}
		var effective model.Test
		effective, pending = lifecycle.Resolve(*test, now)
		*test = effective

		open, err := attemptRepo.FindOpen(ctx, testID, viewer.UserID)
		if err != nil {
			return fmt.Errorf("failed to find open attempt: %w", err)
		}
		if open != nil && s.settings.deadlinePassed(open.StartedAt, test.Duration, now) {
			if _, err := attemptRepo.MarkSubmitted(ctx, open.ID, now, 0); err != nil {
				return fmt.Errorf("failed to close stale attempt %d: %w", open.ID, err)
			}
			log.Info().Uint("attemptID", open.ID).Uint("userID", viewer.UserID).Msg("Closed attempt past its deadline")
			open = nil
		}

		used, err := attemptRepo.Count(ctx, testID, viewer.UserID)
		if err != nil {
			return fmt.Errorf("failed to count attempts: %w", err)
		}
		latest, err := attemptRepo.FindLatestSubmitted(ctx, testID, viewer.UserID)
		if err != nil {
			return fmt.Errorf("failed to find submitted attempt: %w", err)
		}

		facts := policy.AttemptFacts{Used: int(used), HasOpen: open != nil, HasSubmitted: latest != nil}
		if err := policy.CheckStart(viewer, test, now, classAccess, facts); err != nil {
			return err
		}

		if open != nil {
			result = dto.StartAttemptDTO{Attempt: attemptDTO(open, false), Resumed: true}
			return nil
		}

		attempt := &model.TestAttempt{TestID: testID, UserID: viewer.UserID, StartedAt: now}
		if err := attemptRepo.Create(ctx, attempt); err != nil {
			return &errLostCreateRace{err: err}
		}
		result = dto.StartAttemptDTO{Attempt: attemptDTO(attempt, false)}
		return nil
	})

	// The write-back runs after commit; the transaction already used the
	// resolved state.
	persistTransition(ctx, s.testRepo, testID, pending)

	var race *errLostCreateRace
	if errors.As(err, &race) {
		// The transaction is gone; a racing Start holding the open-attempt
		// slot means this caller resumes it.
		open, findErr := s.attemptRepo.FindOpen(ctx, testID, viewer.UserID)
		if findErr != nil || open == nil {
			log.Error().Err(race.err).Uint("testID", testID).Uint("userID", viewer.UserID).Msg("Failed to create test attempt")
			return nil, fmt.Errorf("failed to create attempt: %w", race.err)
		}
		return &dto.StartAttemptDTO{Attempt: attemptDTO(open, false), Resumed: true}, nil
	}
	if err != nil {
		if _, ok := apperr.As(err); !ok {
			log.Error().Err(err).Uint("testID", testID).Uint("userID", viewer.UserID).Msg("Start attempt failed")
		}
		return nil, err
	}

	log.Info().Uint("testID", testID).Uint("userID", viewer.UserID).
		Uint("attemptID", result.Attempt.ID).Bool("resumed", result.Resumed).
		Msg("Attempt started")
	return &result, nil
}
