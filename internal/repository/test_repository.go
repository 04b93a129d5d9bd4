package repository

import (
	"context"

	"github.com/lshigami/examhall/internal/lifecycle"
	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TestWithQuestionCount is a list row: the test plus its question count.
type TestWithQuestionCount struct {
	model.Test
	QuestionCount int
}

type TestRepository interface {
	WithTx(tx *gorm.DB) TestRepository
	Create(ctx context.Context, test *model.Test) error
	FindByID(ctx context.Context, id uint) (*model.Test, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Test, error)
	FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error)
	ListByCreator(ctx context.Context, creatorID uint) ([]TestWithQuestionCount, error)
	// ListActiveCandidates returns every test a student list could include
	// once lifecycle is resolved: active ones and scheduled ones not yet expired.
	ListActiveCandidates(ctx context.Context) ([]TestWithQuestionCount, error)
	ListUnpublished(ctx context.Context) ([]model.Test, error)
	// UpdateUnpublished writes fields only while the test is unpublished. It
	// reports false when no such row exists.
	UpdateUnpublished(ctx context.Context, id uint, fields map[string]interface{}) (bool, error)
	// ApplyLifecycle writes t.To only if the row still holds t.From at
	// t.Revision. It reports whether the row changed.
	ApplyLifecycle(ctx context.Context, id uint, t lifecycle.Transition) (bool, error)
	// Publish reports false when the test is missing or already published.
	Publish(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
	FindClassIDs(ctx context.Context, testID uint) ([]uint, error)
	ReplaceClassAssignments(ctx context.Context, testID uint, classIDs []uint) error
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) WithTx(tx *gorm.DB) TestRepository {
	return &testRepository{db: tx}
}

func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	// Questions and their options are created through the associations.
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) FindByID(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_test ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.id ASC")
		}).
		First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) listWithQuestionCount(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]TestWithQuestionCount, error) {
	var results []TestWithQuestionCount
	err := r.db.WithContext(ctx).Model(&model.Test{}).
		Select("tests.*, (SELECT COUNT(*) FROM questions WHERE questions.test_id = tests.id) AS question_count").
		Scopes(scope).
		Order("tests.created_at DESC").
		Scan(&results).Error
	return results, err
}

func (r *testRepository) ListByCreator(ctx context.Context, creatorID uint) ([]TestWithQuestionCount, error) {
	return r.listWithQuestionCount(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("tests.created_by = ?", creatorID)
	})
}

func (r *testRepository) ListActiveCandidates(ctx context.Context) ([]TestWithQuestionCount, error) {
	return r.listWithQuestionCount(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("tests.is_active = ? OR (tests.start_time IS NOT NULL AND tests.status <> ? AND tests.is_published = ?)",
			true, string(model.TestStatusExpired), false)
	})
}

func (r *testRepository) ListUnpublished(ctx context.Context) ([]model.Test, error) {
	var tests []model.Test
	err := r.db.WithContext(ctx).
		Where("is_published = ? AND status <> ?", false, string(model.TestStatusExpired)).
		Find(&tests).Error
	return tests, err
}

func (r *testRepository) UpdateUnpublished(ctx context.Context, id uint, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Test{}).
		Where("id = ? AND is_published = ?", id, false).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *testRepository) ApplyLifecycle(ctx context.Context, id uint, t lifecycle.Transition) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Test{}).
		Where("id = ? AND is_active = ? AND status = ? AND is_published = ? AND revision = ?",
			id, t.From.IsActive, string(t.From.Status), false, t.Revision).
		Updates(map[string]interface{}{
			"is_active": t.To.IsActive,
			"status":    string(t.To.Status),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *testRepository) Publish(ctx context.Context, id uint) (bool, error) {
	return r.UpdateUnpublished(ctx, id, map[string]interface{}{
		"is_published": true,
		"status":       string(model.TestStatusComplete),
	})
}

// Delete removes the test with its questions, options, attempts, answers and
// class assignments.
func (r *testRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attemptIDs := tx.Model(&model.TestAttempt{}).Select("id").Where("test_id = ?", id)
		if err := tx.Where("test_attempt_id IN (?)", attemptIDs).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", id).Delete(&model.TestAttempt{}).Error; err != nil {
			return err
		}
		questionIDs := tx.Model(&model.Question{}).Select("id").Where("test_id = ?", id)
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", id).Delete(&model.ClassTest{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Test{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *testRepository) FindClassIDs(ctx context.Context, testID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.ClassTest{}).
		Where("test_id = ?", testID).
		Order("class_id ASC").
		Pluck("class_id", &ids).Error
	return ids, err
}

func (r *testRepository) ReplaceClassAssignments(ctx context.Context, testID uint, classIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_id = ?", testID).Delete(&model.ClassTest{}).Error; err != nil {
			return err
		}
		if len(classIDs) == 0 {
			return nil
		}
		rows := make([]model.ClassTest, 0, len(classIDs))
		for _, id := range classIDs {
			rows = append(rows, model.ClassTest{ClassID: id, TestID: testID})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}
