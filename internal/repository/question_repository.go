package repository

import (
	"context"

	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *model.Question) error
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	FindByTestID(ctx context.Context, testID uint) ([]model.Question, error)
	// NextOrder is one past the highest order used in the test.
	NextOrder(ctx context.Context, testID uint) (int, error)
	Delete(ctx context.Context, id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *model.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.WithContext(ctx).Preload("Options").First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindByTestID(ctx context.Context, testID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.id ASC")
		}).
		Where("test_id = ?", testID).
		Order("order_in_test ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) NextOrder(ctx context.Context, testID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.Question{}).
		Select("COALESCE(MAX(order_in_test), 0)").
		Where("test_id = ?", testID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Delete removes the question, its options and any answers given to it.
func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Question{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
