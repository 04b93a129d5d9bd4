package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/examhall/internal/apperr"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/lifecycle"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/policy"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AdminTestService interface {
	CreateTest(ctx context.Context, viewer policy.Viewer, req dto.TestCreateDTO) (*dto.AdminTestDTO, error)
	GetAllTests(ctx context.Context, viewer policy.Viewer) ([]dto.AdminTestSummaryDTO, error)
	GetTest(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.AdminTestDTO, error)
	UpdateTest(ctx context.Context, viewer policy.Viewer, testID uint, req dto.TestUpdateDTO) (*dto.AdminTestDTO, error)
	DeleteTest(ctx context.Context, viewer policy.Viewer, testID uint) error
	PublishTest(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.AdminTestDTO, error)
	AssignClasses(ctx context.Context, viewer policy.Viewer, testID uint, classIDs []uint) (*dto.AdminTestDTO, error)
	GetScoreReport(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.ScoreReportDTO, error)
}

type adminTestService struct {
	tests       TestService
	testRepo    repository.TestRepository
	classRepo   repository.ClassRepository
	attemptRepo repository.TestAttemptRepository
	profileRepo repository.ProfileRepository
	db          *gorm.DB
}

func NewAdminTestService(
	tests TestService,
	testRepo repository.TestRepository,
	classRepo repository.ClassRepository,
	attemptRepo repository.TestAttemptRepository,
	profileRepo repository.ProfileRepository,
	db *gorm.DB,
) AdminTestService {
	return &adminTestService{
		tests:       tests,
		testRepo:    testRepo,
		classRepo:   classRepo,
		attemptRepo: attemptRepo,
		profileRepo: profileRepo,
		db:          db,
	}
}

func (s *adminTestService) CreateTest(ctx context.Context, viewer policy.Viewer, req dto.TestCreateDTO) (*dto.AdminTestDTO, error) {
	if !viewer.IsAdmin() {
		return nil, apperr.Forbidden(apperr.ReasonNotOwner, "only administrators can create tests")
	}
	if err := validateSchedule(req.TestScheduleDTO); err != nil {
		return nil, err
	}

	orders := make(map[int]bool, len(req.Questions))
	questions := make([]model.Question, 0, len(req.Questions))
	next := 1
	for _, qDto := range req.Questions {
		order := qDto.Order
		if order == 0 {
			for orders[next] {
				next++
			}
			order = next
		}
		if orders[order] {
			return nil, apperr.Invalid(apperr.ReasonNone, "duplicate question order %d", order)
		}
		orders[order] = true

		q, err := questionModel(qDto, order)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	classIDs, err := s.existingClasses(ctx, req.ClassIDs)
	if err != nil {
		return nil, err
	}

	now := s.tests.Now()
	test := model.Test{CreatedBy: viewer.UserID, Status: model.TestStatusDraft, Questions: questions, CreatedAt: now}
	applySchedule(&test, req.TestScheduleDTO)
	test.IsActive = lifecycle.InitialActive(&test, now)
	// A schedule already in the past is stored in its expired state.
	test, _ = lifecycle.Resolve(test, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		testRepo := s.testRepo.WithTx(tx)
		if err := testRepo.Create(ctx, &test); err != nil {
			return fmt.Errorf("failed to create test: %w", err)
		}
		if err := testRepo.ReplaceClassAssignments(ctx, test.ID, classIDs); err != nil {
			return fmt.Errorf("failed to assign classes: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Uint("adminID", viewer.UserID).Msg("Failed to create test with questions in transaction")
		return nil, err
	}

	log.Info().Uint("testID", test.ID).Uint("adminID", viewer.UserID).Int("questions", len(questions)).Msg("Test created")
	return s.GetTest(ctx, viewer, test.ID)
}

func (s *adminTestService) GetAllTests(ctx context.Context, viewer policy.Viewer) ([]dto.AdminTestSummaryDTO, error) {
	rows, err := s.testRepo.ListByCreator(ctx, viewer.UserID)
	if err != nil {
		log.Error().Err(err).Uint("adminID", viewer.UserID).Msg("Failed to list tests")
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}

	resp := make([]dto.AdminTestSummaryDTO, 0, len(rows))
	for i := range rows {
		t := &rows[i].Test
		s.tests.Refresh(ctx, t)
		resp = append(resp, dto.AdminTestSummaryDTO{
			ID:            t.ID,
			Title:         t.Title,
			MaxAttempts:   t.MaxAttempts,
			StartTime:     t.StartTime,
			EndTime:       t.EndTime,
			IsActive:      t.IsActive,
			Status:        string(t.Status),
			IsPublished:   t.IsPublished,
			QuestionCount: rows[i].QuestionCount,
			CreatedAt:     t.CreatedAt,
		})
	}
	return resp, nil
}

func (s *adminTestService) GetTest(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.AdminTestDTO, error) {
	test, err := s.ownedTest(ctx, viewer, testID, true)
	if err != nil {
		return nil, err
	}
	classIDs, err := s.testRepo.FindClassIDs(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load class assignments for test %d: %w", testID, err)
	}
	return adminTestDTO(test, classIDs), nil
}

func (s *adminTestService) UpdateTest(ctx context.Context, viewer policy.Viewer, testID uint, req dto.TestUpdateDTO) (*dto.AdminTestDTO, error) {
	test, err := s.ownedTest(ctx, viewer, testID, false)
	if err != nil {
		return nil, err
	}
	if test.IsPublished {
		return nil, apperr.Conflict(apperr.ReasonPublished, "test %d is published and can no longer be edited", testID)
	}
	if err := validateSchedule(req.TestScheduleDTO); err != nil {
		return nil, err
	}

	// A new schedule is evaluated from scratch, so a rescheduled test can
	// leave EXPIRED; Resolve expires it again if the new window is also past.
	now := s.tests.Now()
	applySchedule(test, req.TestScheduleDTO)
	test.Status = model.TestStatusDraft
	test.IsActive = lifecycle.InitialActive(test, now)
	*test, _ = lifecycle.Resolve(*test, now)

	ok, err := s.testRepo.UpdateUnpublished(ctx, testID, map[string]interface{}{
		"title":           test.Title,
		"description":     test.Description,
		"duration":        test.Duration,
		"max_attempts":    test.MaxAttempts,
		"expiry_duration": test.ExpiryDuration,
		"expiry_unit":     string(test.ExpiryUnit),
		"start_time":      test.StartTime,
		"end_time":        test.EndTime,
		"is_active":       test.IsActive,
		"status":          string(test.Status),
		"revision":        gorm.Expr("revision + 1"),
	})
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to update test")
		return nil, fmt.Errorf("failed to update test %d: %w", testID, err)
	}
	if !ok {
		return nil, s.unpublishedGone(ctx, testID)
	}
	return s.GetTest(ctx, viewer, testID)
}

func (s *adminTestService) DeleteTest(ctx context.Context, viewer policy.Viewer, testID uint) error {
	if _, err := s.ownedTest(ctx, viewer, testID, false); err != nil {
		return err
	}
	if err := s.testRepo.Delete(ctx, testID); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to delete test")
		return notFoundOr(err, "test", testID)
	}
	log.Info().Uint("testID", testID).Uint("adminID", viewer.UserID).Msg("Test deleted")
	return nil
}

func (s *adminTestService) PublishTest(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.AdminTestDTO, error) {
	test, err := s.ownedTest(ctx, viewer, testID, false)
	if err != nil {
		return nil, err
	}
	if test.IsPublished {
		return nil, apperr.Conflict(apperr.ReasonPublished, "test %d is already published", testID)
	}
	ok, err := s.testRepo.Publish(ctx, testID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to publish test")
		return nil, fmt.Errorf("failed to publish test %d: %w", testID, err)
	}
	if !ok {
		return nil, s.unpublishedGone(ctx, testID)
	}
	log.Info().Uint("testID", testID).Uint("adminID", viewer.UserID).Msg("Test results published")
	return s.GetTest(ctx, viewer, testID)
}

func (s *adminTestService) AssignClasses(ctx context.Context, viewer policy.Viewer, testID uint, classIDs []uint) (*dto.AdminTestDTO, error) {
	if _, err := s.ownedTest(ctx, viewer, testID, false); err != nil {
		return nil, err
	}
	ids, err := s.existingClasses(ctx, classIDs)
	if err != nil {
		return nil, err
	}
	if err := s.testRepo.ReplaceClassAssignments(ctx, testID, ids); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to assign classes")
		return nil, fmt.Errorf("failed to assign classes to test %d: %w", testID, err)
	}
	return s.GetTest(ctx, viewer, testID)
}

func (s *adminTestService) GetScoreReport(ctx context.Context, viewer policy.Viewer, testID uint) (*dto.ScoreReportDTO, error) {
	test, err := s.ownedTest(ctx, viewer, testID, false)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.ListLatestSubmittedByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submitted attempts for test %d: %w", testID, err)
	}

	userIDs := make([]uint, 0, len(attempts))
	for _, a := range attempts {
		userIDs = append(userIDs, a.UserID)
	}
	profiles, err := s.profileRepo.FindByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load student profiles: %w", err)
	}

	report := &dto.ScoreReportDTO{
		TestID:      test.ID,
		Title:       test.Title,
		IsPublished: test.IsPublished,
		Entries:     make([]dto.ScoreReportEntryDTO, 0, len(attempts)),
	}
	for _, a := range attempts {
		entry := dto.ScoreReportEntryDTO{UserID: a.UserID, AttemptID: a.ID}
		if a.SubmittedAt != nil {
			entry.SubmittedAt = *a.SubmittedAt
		}
		if a.Score != nil {
			entry.Score = *a.Score
		}
		if p, ok := profiles[a.UserID]; ok {
			entry.RollNumber = p.RollNumber
			entry.FullName = p.FullName
		}
		report.Entries = append(report.Entries, entry)
	}
	sort.SliceStable(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i], report.Entries[j]
		if a.RollNumber != b.RollNumber {
			return a.RollNumber < b.RollNumber
		}
		return a.UserID < b.UserID
	})
	return report, nil
}

func (s *adminTestService) ownedTest(ctx context.Context, viewer policy.Viewer, testID uint, withQuestions bool) (*model.Test, error) {
	test, err := s.tests.Load(ctx, testID, withQuestions)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckOwner(viewer, test); err != nil {
		return nil, err
	}
	return test, nil
}

// unpublishedGone explains a conditional write that matched no row: the test
// was published or deleted after it was loaded.
func (s *adminTestService) unpublishedGone(ctx context.Context, testID uint) error {
	if _, err := s.testRepo.FindByID(ctx, testID); err != nil {
		return notFoundOr(err, "test", testID)
	}
	return apperr.Conflict(apperr.ReasonPublished, "test %d was published concurrently", testID)
}

func (s *adminTestService) existingClasses(ctx context.Context, classIDs []uint) ([]uint, error) {
	ids := dedupe(classIDs)
	found, err := s.classRepo.FindExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up classes: %w", err)
	}
	if len(found) != len(ids) {
		known := make(map[uint]bool, len(found))
		for _, id := range found {
			known[id] = true
		}
		for _, id := range ids {
			if !known[id] {
				return nil, apperr.NotFound("class %d not found", id)
			}
		}
	}
	return ids, nil
}

func validateSchedule(req dto.TestScheduleDTO) error {
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		return apperr.Invalid(apperr.ReasonNone, "end_time must be after start_time")
	}
	if req.ExpiryUnit != "" && req.ExpiryDuration == nil {
		return apperr.Invalid(apperr.ReasonNone, "expiry_unit requires expiry_duration")
	}
	return nil
}

func applySchedule(t *model.Test, req dto.TestScheduleDTO) {
	t.Title = req.Title
	t.Description = req.Description
	t.Duration = req.Duration
	t.MaxAttempts = model.AttemptLimitFromPtr(req.MaxAttempts)
	t.ExpiryDuration = req.ExpiryDuration
	t.ExpiryUnit = model.ExpiryUnit(req.ExpiryUnit)
	if t.ExpiryDuration != nil && t.ExpiryUnit == "" {
		t.ExpiryUnit = model.ExpiryDays
	}
	t.StartTime = utcPtr(req.StartTime)
	t.EndTime = utcPtr(req.EndTime)
}

func adminTestDTO(t *model.Test, classIDs []uint) *dto.AdminTestDTO {
	resp := &dto.AdminTestDTO{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Duration:       t.Duration,
		MaxAttempts:    t.MaxAttempts,
		ExpiryDuration: t.ExpiryDuration,
		ExpiryUnit:     string(t.ExpiryUnit),
		StartTime:      t.StartTime,
		EndTime:        t.EndTime,
		IsActive:       t.IsActive,
		Status:         string(t.Status),
		IsPublished:    t.IsPublished,
		CreatedBy:      t.CreatedBy,
		ClassIDs:       classIDs,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if resp.ClassIDs == nil {
		resp.ClassIDs = []uint{}
	}
	if err := copier.Copy(&resp.Questions, &t.Questions); err != nil {
		log.Warn().Err(err).Uint("testID", t.ID).Msg("Failed to copy questions to response")
	}
	return resp
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
