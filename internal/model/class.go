package model

import "time"

// Class, ClassTest, Enrollment and StudentProfile are owned by the membership
// and profile features; this service only reads them (ClassTest is written
// when an administrator assigns a test).

type Class struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

type ClassTest struct {
	ClassID uint `gorm:"primaryKey" json:"class_id"`
	TestID  uint `gorm:"primaryKey;index" json:"test_id"`
}

type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "PENDING"
	EnrollmentApproved EnrollmentStatus = "APPROVED"
	EnrollmentRejected EnrollmentStatus = "REJECTED"
)

type Enrollment struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	UserID    uint             `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_member"`
	ClassID   uint             `json:"class_id" gorm:"not null;uniqueIndex:idx_enrollment_member"`
	Status    EnrollmentStatus `json:"status" gorm:"type:varchar(16);not null;default:'PENDING'"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type StudentProfile struct {
	UserID     uint   `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	RollNumber string `json:"roll_number"`
	FullName   string `json:"full_name"`
}
