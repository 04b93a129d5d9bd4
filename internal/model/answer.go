package model

import (
	"time"
)

// Answer is one submitted row. CHECKBOX selections produce one row per option.
type Answer struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	TestAttemptID uint      `json:"test_attempt_id" gorm:"not null;index"`
	QuestionID    uint      `json:"question_id" gorm:"not null;index"`
	OptionID      *uint     `json:"option_id,omitempty"`
	TextAnswer    *string   `json:"text_answer,omitempty" gorm:"type:text"`
	CodeAnswer    *string   `json:"code_answer,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
}
