package model

import (
	"time"
)

type TestStatus string

const (
	TestStatusDraft    TestStatus = "DRAFT"
	TestStatusExpired  TestStatus = "EXPIRED"
	TestStatusComplete TestStatus = "COMPLETE" // published
)

type Test struct {
	ID             uint         `gorm:"primarykey" json:"id"`
	Title          string       `json:"title" gorm:"not null"`
	Description    string       `json:"description,omitempty" gorm:"type:text"`
	Duration       int          `json:"duration" gorm:"not null;default:0"` // minutes, advisory unless deadlines are enforced
	MaxAttempts    AttemptLimit `json:"max_attempts"`
	ExpiryDuration *int         `json:"expiry_duration,omitempty"`
	ExpiryUnit     ExpiryUnit   `json:"expiry_unit,omitempty"`
	StartTime      *time.Time   `json:"start_time,omitempty"`
	EndTime        *time.Time   `json:"end_time,omitempty"`
	IsActive       bool         `json:"is_active" gorm:"not null;default:false;index"`
	Status         TestStatus   `json:"status" gorm:"type:varchar(16);not null;default:'DRAFT'"`
	IsPublished    bool         `json:"is_published" gorm:"not null;default:false"`
	CreatedBy      uint         `json:"created_by" gorm:"not null;index"`
	// Revision is bumped by every schedule edit. Lifecycle write-backs
	// computed from an older schedule no longer match it.
	Revision       int          `json:"-" gorm:"not null;default:0"`
	Questions      []Question   `json:"questions,omitempty" gorm:"foreignKey:TestID"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ResultsDue reports whether a test's window is over for result purposes:
// the end time has passed, or there is no end time to wait for.
func (t *Test) ResultsDue(now time.Time) bool {
	return t.EndTime == nil || t.HasEnded(now)
}

// HasEnded reports whether the scheduled end time is set and lies at or before now.
func (t *Test) HasEnded(now time.Time) bool {
	return t.EndTime != nil && !t.EndTime.After(now)
}
