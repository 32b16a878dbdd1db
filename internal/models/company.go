package models

import "time"

// CompanyStatus enumerates the approval states of a recruiting company.
type CompanyStatus string

// Company approval states. Drives may only reference approved companies.
const (
	CompanyStatusPending  CompanyStatus = "pending"
	CompanyStatusApproved CompanyStatus = "approved"
	CompanyStatusRejected CompanyStatus = "rejected"
)

// Company represents a recruiting organisation scoped to an account.
type Company struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	AccountID uint          `gorm:"index;not null" json:"account_id"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	Industry  string        `gorm:"size:128" json:"industry"`
	Website   string        `gorm:"size:512" json:"website"`
	Status    CompanyStatus `gorm:"size:32;not null;default:pending" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
