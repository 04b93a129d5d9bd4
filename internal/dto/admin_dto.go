package dto

import (
	"time"

	"github.com/lshigami/examhall/internal/model"
)

// OptionCreateDTO is one choice of an MCQ or CHECKBOX question.
type OptionCreateDTO struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionCreateDTO is used within TestCreateDTO and when adding a question to an existing test.
type QuestionCreateDTO struct {
	Text     string            `json:"text" binding:"required"`
	Type     string            `json:"type" binding:"required,oneof=MCQ CHECKBOX TEXT CODING"`
	Order    int               `json:"order" binding:"omitempty,min=1"` // 0 appends after the last question
	Required bool              `json:"required"`
	Options  []OptionCreateDTO `json:"options" binding:"omitempty,dive"`
}

// TestScheduleDTO carries the fields an administrator may set on create and replace on update.
type TestScheduleDTO struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description,omitempty"`
	Duration    int    `json:"duration" binding:"min=0"`
	// MaxAttempts omitted or null means unlimited.
	MaxAttempts    *int       `json:"max_attempts" binding:"omitempty,min=1"`
	ExpiryDuration *int       `json:"expiry_duration" binding:"omitempty,min=1"`
	ExpiryUnit     string     `json:"expiry_unit" binding:"omitempty,oneof=minutes hours days"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
}

// TestCreateDTO is for an administrator to create a test with its questions
// and class assignments in one call.
type TestCreateDTO struct {
	TestScheduleDTO
	ClassIDs  []uint              `json:"class_ids"`
	Questions []QuestionCreateDTO `json:"questions" binding:"omitempty,dive"`
}

type TestUpdateDTO struct {
	TestScheduleDTO
}

type AssignClassesDTO struct {
	ClassIDs []uint `json:"class_ids" binding:"required"`
}

// AdminOptionDTO always carries the answer key.
type AdminOptionDTO struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type AdminQuestionDTO struct {
	ID       uint             `json:"id"`
	TestID   uint             `json:"test_id"`
	Text     string           `json:"text"`
	Type     string           `json:"type"`
	Order    int              `json:"order"`
	Required bool             `json:"required"`
	Options  []AdminOptionDTO `json:"options,omitempty"`
}

type AdminTestDTO struct {
	ID             uint               `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	Duration       int                `json:"duration"`
	MaxAttempts    model.AttemptLimit `json:"max_attempts" swaggertype:"integer"`
	ExpiryDuration *int               `json:"expiry_duration,omitempty"`
	ExpiryUnit     string             `json:"expiry_unit,omitempty"`
	StartTime      *time.Time         `json:"start_time,omitempty"`
	EndTime        *time.Time         `json:"end_time,omitempty"`
	IsActive       bool               `json:"is_active"`
	Status         string             `json:"status"`
	IsPublished    bool               `json:"is_published"`
	CreatedBy      uint               `json:"created_by"`
	ClassIDs       []uint             `json:"class_ids"`
	Questions      []AdminQuestionDTO `json:"questions,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// AdminTestSummaryDTO is a row of the administrator's own test list.
type AdminTestSummaryDTO struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	MaxAttempts   model.AttemptLimit `json:"max_attempts" swaggertype:"integer"`
	StartTime     *time.Time         `json:"start_time,omitempty"`
	EndTime       *time.Time         `json:"end_time,omitempty"`
	IsActive      bool               `json:"is_active"`
	Status        string             `json:"status"`
	IsPublished   bool               `json:"is_published"`
	QuestionCount int                `json:"question_count"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ScoreReportEntryDTO is one student's latest submitted attempt.
type ScoreReportEntryDTO struct {
	UserID      uint      `json:"user_id"`
	RollNumber  string    `json:"roll_number,omitempty"`
	FullName    string    `json:"full_name,omitempty"`
	AttemptID   uint      `json:"attempt_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Score       float64   `json:"score"`
}

type ScoreReportDTO struct {
	TestID      uint                  `json:"test_id"`
	Title       string                `json:"title"`
	IsPublished bool                  `json:"is_published"`
	Entries     []ScoreReportEntryDTO `json:"entries"`
}
