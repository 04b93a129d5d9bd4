package repository

import (
	"context"

	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
)

// EnrollmentRepository reads class membership. Enrollments are approved by
// the membership feature; nothing here writes them.
type EnrollmentRepository interface {
	HasApprovedEnrollment(ctx context.Context, userID uint, classIDs []uint) (bool, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) HasApprovedEnrollment(ctx context.Context, userID uint, classIDs []uint) (bool, error) {
	if len(classIDs) == 0 {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND class_id IN ? AND status = ?", userID, classIDs, string(model.EnrollmentApproved)).
		Count(&n).Error
	return n > 0, err
}

type ClassRepository interface {
	// FindExistingIDs returns the subset of ids that name a class.
	FindExistingIDs(ctx context.Context, ids []uint) ([]uint, error)
}

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) FindExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	err := r.db.WithContext(ctx).Model(&model.Class{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	return found, err
}
