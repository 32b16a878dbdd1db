package models

import (
	"time"

	"gorm.io/datatypes"
)

// Student represents a candidate administered under an account. Roll number and
// email are unique within the account, not globally.
type Student struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AccountID          uint           `gorm:"not null;uniqueIndex:idx_students_account_roll;uniqueIndex:idx_students_account_email" json:"account_id"`
	RollNumber         string         `gorm:"size:64;not null;uniqueIndex:idx_students_account_roll" json:"roll_number"`
	Name               string         `gorm:"size:255;not null" json:"name"`
	Email              string         `gorm:"size:255;not null;uniqueIndex:idx_students_account_email" json:"email"`
	Branch             string         `gorm:"size:64;index" json:"branch"`
	Semester           int            `gorm:"not null;default:1" json:"semester"`
	CGPA               float64        `gorm:"not null;default:0" json:"cgpa"`
	Backlogs           int            `gorm:"not null;default:0" json:"backlogs"`
	TechnicalSkillsRaw datatypes.JSON `gorm:"column:technical_skills;type:json" json:"-"`
	SoftSkillsRaw      datatypes.JSON `gorm:"column:soft_skills;type:json" json:"-"`
	IsPlaced           bool           `gorm:"not null;default:false" json:"is_placed"`
	PlacementDate      *time.Time     `json:"placement_date"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// SetTechnicalSkills serializes the technical skill list.
func (s *Student) SetTechnicalSkills(skills []string) {
	s.TechnicalSkillsRaw = encodeJSONColumn(skills)
}

// TechnicalSkills deserializes the technical skill list.
func (s Student) TechnicalSkills() []string {
	var skills []string
	decodeJSONColumn(s.TechnicalSkillsRaw, &skills)
	return skills
}

// SetSoftSkills serializes the soft skill list.
func (s *Student) SetSoftSkills(skills []string) {
	s.SoftSkillsRaw = encodeJSONColumn(skills)
}

// SoftSkills deserializes the soft skill list.
func (s Student) SoftSkills() []string {
	var skills []string
	decodeJSONColumn(s.SoftSkillsRaw, &skills)
	return skills
}

// AllSkills returns the combined technical and soft skill list.
func (s Student) AllSkills() []string {
	return append(s.TechnicalSkills(), s.SoftSkills()...)
}
