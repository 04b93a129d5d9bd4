package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/clock"
	"github.com/lshigami/examhall/internal/lifecycle"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TestService loads tests with their lifecycle state resolved at the current
// instant and answers class-access questions for the other services.
type TestService interface {
	Load(ctx context.Context, id uint, withQuestions bool) (*model.Test, error)
	// Refresh resolves t in place and persists any transition on a best-effort basis.
	Refresh(ctx context.Context, t *model.Test)
	HasClassAccess(ctx context.Context, testID, userID uint) (bool, error)
	// SweepLifecycle materializes pending transitions for every unpublished
	// test and returns how many rows changed.
	SweepLifecycle(ctx context.Context) (int, error)
	Now() time.Time
}

type testService struct {
	testRepo       repository.TestRepository
	enrollmentRepo repository.EnrollmentRepository
	clock          clock.Clock
}

func NewTestService(
	testRepo repository.TestRepository,
	enrollmentRepo repository.EnrollmentRepository,
	clk clock.Clock,
) TestService {
	return &testService{testRepo: testRepo, enrollmentRepo: enrollmentRepo, clock: clk}
}

func (s *testService) Now() time.Time { return s.clock.Now() }

func (s *testService) Load(ctx context.Context, id uint, withQuestions bool) (*model.Test, error) {
	var (
		test *model.Test
		err  error
	)
	if withQuestions {
		test, err = s.testRepo.FindByIDWithQuestions(ctx, id)
	} else {
		test, err = s.testRepo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, notFoundOr(err, "test", id)
	}
	s.Refresh(ctx, test)
	return test, nil
}

func (s *testService) Refresh(ctx context.Context, t *model.Test) {
	resolveAndPersist(ctx, s.testRepo, t, s.clock.Now())
}

func (s *testService) HasClassAccess(ctx context.Context, testID, userID uint) (bool, error) {
	classIDs, err := s.testRepo.FindClassIDs(ctx, testID)
	if err != nil {
		return false, fmt.Errorf("failed to load class assignments for test %d: %w", testID, err)
	}
	ok, err := s.enrollmentRepo.HasApprovedEnrollment(ctx, userID, classIDs)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment of user %d: %w", userID, err)
	}
	return ok, nil
}

func (s *testService) SweepLifecycle(ctx context.Context) (int, error) {
	tests, err := s.testRepo.ListUnpublished(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpublished tests: %w", err)
	}
	now := s.clock.Now()
	changed := 0
	for i := range tests {
		_, tr := lifecycle.Resolve(tests[i], now)
		if tr == nil {
			continue
		}
		ok, err := s.testRepo.ApplyLifecycle(ctx, tests[i].ID, *tr)
		if err != nil {
			return changed, fmt.Errorf("failed to apply lifecycle to test %d: %w", tests[i].ID, err)
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// resolveAndPersist replaces *t with its effective state at now. A failed or
// lost write-back only costs a recomputation on the next read.
func resolveAndPersist(ctx context.Context, repo repository.TestRepository, t *model.Test, now time.Time) {
	effective, tr := lifecycle.Resolve(*t, now)
	*t = effective
	persistTransition(ctx, repo, t.ID, tr)
}

// persistTransition applies tr outside any caller transaction so a failed
// write cannot abort the caller's work.
func persistTransition(ctx context.Context, repo repository.TestRepository, testID uint, tr *lifecycle.Transition) {
	if tr == nil {
		return
	}
	ok, err := repo.ApplyLifecycle(ctx, testID, *tr)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("Failed to persist lifecycle transition")
		return
	}
	if ok {
		log.Info().Uint("testID", testID).
			Str("from", string(tr.From.Status)).Str("to", string(tr.To.Status)).
			Bool("isActive", tr.To.IsActive).
			Msg("Test lifecycle transition persisted")
	}
}

func notFoundOr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s %d not found", what, id)
	}
	return fmt.Errorf("failed to load %s %d: %w", what, id, err)
}
