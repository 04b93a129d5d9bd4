package dto

import (
	"time"

	"github.com/lshigami/examhall/internal/model"
)

// OptionViewDTO is an option as a student sees it. IsCorrect is omitted while
// correctness is withheld; IsSelected only appears once the student's own
// answers are visible.
type OptionViewDTO struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	IsCorrect  *bool  `json:"is_correct,omitempty"`
	IsSelected *bool  `json:"is_selected,omitempty"`
}

type QuestionViewDTO struct {
	ID            uint            `json:"id"`
	Text          string          `json:"text"`
	Type          string          `json:"type"`
	Order         int             `json:"order"`
	Required      bool            `json:"required"`
	Options       []OptionViewDTO `json:"options,omitempty"`
	StudentAnswer *string         `json:"student_answer,omitempty"`
	IsCorrect     *bool           `json:"is_correct,omitempty"`
}

// TestViewDTO is the lifecycle-corrected, redacted test detail.
type TestViewDTO struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Duration    int                `json:"duration"`
	MaxAttempts model.AttemptLimit `json:"max_attempts" swaggertype:"integer"`
	StartTime   *time.Time         `json:"start_time,omitempty"`
	EndTime     *time.Time         `json:"end_time,omitempty"`
	IsActive    bool               `json:"is_active"`
	Status      string             `json:"status"`
	IsPublished bool               `json:"is_published"`
	Questions   []QuestionViewDTO  `json:"questions"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TestSummaryDTO is used for listing tests available to students.
type TestSummaryDTO struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	Duration      int                `json:"duration"`
	MaxAttempts   model.AttemptLimit `json:"max_attempts" swaggertype:"integer"`
	StartTime     *time.Time         `json:"start_time,omitempty"`
	EndTime       *time.Time         `json:"end_time,omitempty"`
	IsPublished   bool               `json:"is_published"`
	QuestionCount int                `json:"question_count"`
	CreatedAt     time.Time          `json:"created_at"`
}

// AnswerSubmitDTO answers one question. MCQ uses OptionID, CHECKBOX uses
// OptionIDs, TEXT and CODING use TextAnswer or CodeAnswer.
type AnswerSubmitDTO struct {
	QuestionID uint    `json:"question_id" binding:"required"`
	OptionID   *uint   `json:"option_id"`
	OptionIDs  []uint  `json:"option_ids"`
	TextAnswer *string `json:"text_answer"`
	CodeAnswer *string `json:"code_answer"`
}

// TestSubmitDTO is the request body for submitting the open attempt.
type TestSubmitDTO struct {
	Answers []AnswerSubmitDTO `json:"answers" binding:"dive"`
}

// AttemptDTO is the attempt handle returned to students.
type AttemptDTO struct {
	ID          uint       `json:"id"`
	TestID      uint       `json:"test_id"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	Score       *float64   `json:"score,omitempty"`
}

type StartAttemptDTO struct {
	Attempt AttemptDTO `json:"attempt"`
	// Resumed is true when an in-progress attempt was returned instead of a new one.
	Resumed bool `json:"resumed"`
}

type ScoreSummaryDTO struct {
	CorrectCount   int     `json:"correct_count"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
}

// SubmitResultDTO carries the closed attempt. Summary is present only when
// the viewer may already see correctness.
type SubmitResultDTO struct {
	Attempt AttemptDTO       `json:"attempt"`
	Summary *ScoreSummaryDTO `json:"summary,omitempty"`
}

// TestResultDTO is the student's latest submitted attempt with its answer trail.
type TestResultDTO struct {
	Attempt AttemptDTO       `json:"attempt"`
	Summary *ScoreSummaryDTO `json:"summary,omitempty"`
	Test    TestViewDTO      `json:"test"`
}

// AttemptHistoryDTO is one row of a student's attempt history. Score stays
// empty until results are published.
type AttemptHistoryDTO struct {
	ID          uint       `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	Score       *float64   `json:"score,omitempty"`
	InProgress  bool       `json:"in_progress"`
}
