package repository

import (
	"context"

	"github.com/lshigami/examhall/internal/model"
	"gorm.io/gorm"
)

// ProfileRepository is a read-only view over student profiles.
type ProfileRepository interface {
	FindByUserIDs(ctx context.Context, userIDs []uint) (map[uint]model.StudentProfile, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByUserIDs(ctx context.Context, userIDs []uint) (map[uint]model.StudentProfile, error) {
	profiles := make(map[uint]model.StudentProfile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}
	var rows []model.StudentProfile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		profiles[p.UserID] = p
	}
	return profiles, nil
}
