package repository

import (
	"context"

	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	WithTx(tx *gorm.DB) AnswerRepository
	CreateBatch(ctx context.Context, answers []model.Answer) error
	FindByAttempt(ctx context.Context, attemptID uint) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) WithTx(tx *gorm.DB) AnswerRepository {
	return &answerRepository{db: tx}
}

func (r *answerRepository) CreateBatch(ctx context.Context, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&answers, 100).Error
}

func (r *answerRepository) FindByAttempt(ctx context.Context, attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.WithContext(ctx).
		Where("test_attempt_id = ?", attemptID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}
