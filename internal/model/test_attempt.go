package model

import (
	"time"
)

type TestAttempt struct {
	ID     uint `gorm:"primarykey" json:"id"`
	TestID uint `json:"test_id" gorm:"not null;index;uniqueIndex:idx_open_attempt,where:submitted_at IS NULL"`
	UserID uint `json:"user_id" gorm:"not null;index;uniqueIndex:idx_open_attempt,where:submitted_at IS NULL"`
	// StartedAt is set by the attempt manager from its clock, not by gorm.
	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	Score       *float64   `json:"score,omitempty"` // percentage, nil until submitted
	Answers     []Answer   `json:"answers,omitempty" gorm:"foreignKey:TestAttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (a *TestAttempt) InProgress() bool { return a.SubmittedAt == nil }
