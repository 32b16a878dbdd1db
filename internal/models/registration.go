package models

import "time"

// RegistrationStatusRegistered is the status of a live registration row.
const RegistrationStatusRegistered = "registered"

// DriveRegistration links a student to a drive. The unique (drive, student)
// index is what prevents double registration under concurrent requests; the
// drive roster and the student's registration list are both projections of
// these rows, so the bidirectional relation cannot diverge.
type DriveRegistration struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AccountID    uint      `gorm:"index;not null" json:"account_id"`
	DriveID      uint      `gorm:"not null;uniqueIndex:idx_registrations_drive_student" json:"drive_id"`
	StudentID    uint      `gorm:"not null;index;uniqueIndex:idx_registrations_drive_student" json:"student_id"`
	Status       string    `gorm:"size:32;not null;default:registered" json:"status"`
	RegisteredAt time.Time `gorm:"not null" json:"registered_at"`
	CreatedAt    time.Time `json:"created_at"`
	Drive        Drive     `gorm:"foreignKey:DriveID;references:ID;constraint:OnDelete:CASCADE" json:"drive"`
	Student      Student   `gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE" json:"student"`
}
