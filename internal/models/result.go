package models

import "time"

// ResultStatus enumerates final interview outcomes for a registered student.
type ResultStatus string

// Result outcomes.
const (
	ResultStatusSelected   ResultStatus = "selected"
	ResultStatusRejected   ResultStatus = "rejected"
	ResultStatusWaitlisted ResultStatus = "waitlisted"
)

// Valid reports whether the status is a known outcome.
func (s ResultStatus) Valid() bool {
	switch s {
	case ResultStatusSelected, ResultStatusRejected, ResultStatusWaitlisted:
		return true
	}
	return false
}

// DriveResult records the final outcome for one student in one drive. The
// unique (drive, student) index keeps at most one live result per student, and
// the version column serialises concurrent single-record corrections.
type DriveResult struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	AccountID   uint         `gorm:"index;not null" json:"account_id"`
	DriveID     uint         `gorm:"not null;uniqueIndex:idx_results_drive_student" json:"drive_id"`
	StudentID   uint         `gorm:"not null;index;uniqueIndex:idx_results_drive_student" json:"student_id"`
	Status      ResultStatus `gorm:"size:32;not null" json:"status"`
	Score       *float64     `json:"score"`
	CTC         *float64     `json:"ctc"`
	Feedback    string       `gorm:"type:text" json:"feedback"`
	SubmittedBy uint         `json:"submitted_by"`
	SubmittedAt time.Time    `gorm:"not null" json:"submitted_at"`
	Version     int          `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// OfferStatusAccepted marks an offer currently counted towards placement.
const OfferStatusAccepted = "accepted"

// OfferStatusWithdrawn marks an offer that no longer counts towards placement.
const OfferStatusWithdrawn = "withdrawn"

// Offer is created on a student when a drive result marks them selected. The
// unique (student, drive) index makes result resubmission idempotent on the
// offer history.
type Offer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"index;not null" json:"account_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_offers_student_drive" json:"student_id"`
	DriveID   uint      `gorm:"not null;uniqueIndex:idx_offers_student_drive" json:"drive_id"`
	CompanyID uint      `gorm:"index" json:"company_id"`
	JobTitle  string    `gorm:"size:255" json:"job_title"`
	CTC       float64   `gorm:"not null;default:0" json:"ctc"`
	Status    string    `gorm:"size:32;not null;default:accepted" json:"status"`
	Date      time.Time `gorm:"not null" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}
