package repository

import (
	"context"
	"time"

	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
)

type TestAttemptRepository interface {
	WithTx(tx *gorm.DB) TestAttemptRepository
	Create(ctx context.Context, attempt *model.TestAttempt) error
	// FindOpen returns the in-progress attempt, or nil when there is none.
	FindOpen(ctx context.Context, testID, userID uint) (*model.TestAttempt, error)
	Count(ctx context.Context, testID, userID uint) (int64, error)
	// FindLatestSubmitted returns the most recent submitted attempt with its
	// answers, or nil when the user never submitted.
	FindLatestSubmitted(ctx context.Context, testID, userID uint) (*model.TestAttempt, error)
	// MarkSubmitted closes an open attempt. It reports false when the attempt
	// was already submitted.
	MarkSubmitted(ctx context.Context, id uint, submittedAt time.Time, score float64) (bool, error)
	FindAllByTestAndUser(ctx context.Context, testID, userID uint) ([]model.TestAttempt, error)
	// ListLatestSubmittedByTest returns one row per user: their latest submitted attempt.
	ListLatestSubmittedByTest(ctx context.Context, testID uint) ([]model.TestAttempt, error)
}

type testAttemptRepository struct {
	db *gorm.DB
}

func NewTestAttemptRepository(db *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: db}
}

func (r *testAttemptRepository) WithTx(tx *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: tx}
}

func (r *testAttemptRepository) Create(ctx context.Context, attempt *model.TestAttempt) error {
	return r.db.WithContext(ctx).Omit("Answers").Create(attempt).Error
}

func (r *testAttemptRepository) FindOpen(ctx context.Context, testID, userID uint) (*model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND user_id = ? AND submitted_at IS NULL", testID, userID).
		Order("id DESC").
		Limit(1).
		Find(&attempts).Error
	if err != nil || len(attempts) == 0 {
		return nil, err
	}
	return &attempts[0], nil
}

func (r *testAttemptRepository) Count(ctx context.Context, testID, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("test_id = ? AND user_id = ?", testID, userID).
		Count(&n).Error
	return n, err
}

func (r *testAttemptRepository) FindLatestSubmitted(ctx context.Context, testID, userID uint) (*model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.id ASC")
		}).
		Where("test_id = ? AND user_id = ? AND submitted_at IS NOT NULL", testID, userID).
		Order("submitted_at DESC, id DESC").
		Limit(1).
		Find(&attempts).Error
	if err != nil || len(attempts) == 0 {
		return nil, err
	}
	return &attempts[0], nil
}

func (r *testAttemptRepository) MarkSubmitted(ctx context.Context, id uint, submittedAt time.Time, score float64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("id = ? AND submitted_at IS NULL", id).
		Updates(map[string]interface{}{
			"submitted_at": submittedAt,
			"score":        score,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *testAttemptRepository) FindAllByTestAndUser(ctx context.Context, testID, userID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND user_id = ?", testID, userID).
		Order("started_at DESC, id DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) ListLatestSubmittedByTest(ctx context.Context, testID uint) ([]model.TestAttempt, error) {
	latest := r.db.Model(&model.TestAttempt{}).
		Select("MAX(id)").
		Where("test_id = ? AND submitted_at IS NOT NULL", testID).
		Group("user_id")

	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("id IN (?)", latest).
		Order("user_id ASC").
		Find(&attempts).Error
	return attempts, err
}
