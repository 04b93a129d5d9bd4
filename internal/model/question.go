package model

import (
	"time"
)

type QuestionType string

const (
	QuestionMCQ      QuestionType = "MCQ"
	QuestionCheckbox QuestionType = "CHECKBOX"
	QuestionText     QuestionType = "TEXT"
	QuestionCoding   QuestionType = "CODING"
)

// HasOptions reports whether answers to this type reference options.
func (t QuestionType) HasOptions() bool {
	return t == QuestionMCQ || t == QuestionCheckbox
}

type Question struct {
	ID        uint         `gorm:"primarykey" json:"id"`
	TestID    uint         `json:"test_id" gorm:"not null;uniqueIndex:idx_question_order"`
	Text      string       `json:"text" gorm:"type:text;not null"`
	Type      QuestionType `json:"type" gorm:"type:varchar(16);not null"`
	Order     int          `json:"order" gorm:"column:order_in_test;not null;uniqueIndex:idx_question_order"`
	Required  bool         `json:"required" gorm:"not null;default:false"`
	Options   []Option     `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Option struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
}
