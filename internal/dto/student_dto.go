package dto

import (
	"time"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// StudentCreateRequest describes the payload for registering a student record.
type StudentCreateRequest struct {
	RollNumber      string   `json:"roll_number" validate:"required,min=1,max=64"`
	Name            string   `json:"name" validate:"required,min=2,max=255"`
	Email           string   `json:"email" validate:"required,email"`
	Branch          string   `json:"branch" validate:"required,max=64"`
	Semester        int      `json:"semester" validate:"required,gte=1,lte=8"`
	CGPA            float64  `json:"cgpa" validate:"gte=0,lte=10"`
	Backlogs        int      `json:"backlogs" validate:"gte=0"`
	TechnicalSkills []string `json:"technical_skills"`
	SoftSkills      []string `json:"soft_skills"`
}

// StudentUpdateRequest describes a partial student profile update.
type StudentUpdateRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=2,max=255"`
	Branch          *string  `json:"branch" validate:"omitempty,max=64"`
	Semester        *int     `json:"semester" validate:"omitempty,gte=1,lte=8"`
	CGPA            *float64 `json:"cgpa" validate:"omitempty,gte=0,lte=10"`
	Backlogs        *int     `json:"backlogs" validate:"omitempty,gte=0"`
	TechnicalSkills []string `json:"technical_skills"`
	SoftSkills      []string `json:"soft_skills"`
}

// StudentListRequest describes query filters for listing students.
type StudentListRequest struct {
	Branch   string `query:"branch"`
	Semester int    `query:"semester" validate:"omitempty,gte=1,lte=8"`
	Placed   *bool  `query:"placed"`
	Search   string `query:"search"`
	Sort     string `query:"sort"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
}

// OfferResponse is the API view of an offer held by a student.
type OfferResponse struct {
	DriveID   uint      `json:"drive_id"`
	CompanyID uint      `json:"company_id"`
	JobTitle  string    `json:"job_title"`
	CTC       float64   `json:"ctc"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
}

// RegisteredDriveResponse summarizes one of a student's drive registrations.
type RegisteredDriveResponse struct {
	DriveID          uint      `json:"drive_id"`
	RegistrationDate time.Time `json:"registration_date"`
	Status           string    `json:"status"`
}

// StudentResponse is the API view of a student.
type StudentResponse struct {
	ID               uint                      `json:"id"`
	RollNumber       string                    `json:"roll_number"`
	Name             string                    `json:"name"`
	Email            string                    `json:"email"`
	Branch           string                    `json:"branch"`
	Semester         int                       `json:"semester"`
	CGPA             float64                   `json:"cgpa"`
	Backlogs         int                       `json:"backlogs"`
	TechnicalSkills  []string                  `json:"technical_skills"`
	SoftSkills       []string                  `json:"soft_skills"`
	IsPlaced         bool                      `json:"is_placed"`
	PlacementDate    *time.Time                `json:"placement_date"`
	Offers           []OfferResponse           `json:"offers,omitempty"`
	RegisteredDrives []RegisteredDriveResponse `json:"registered_drives,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewStudentResponse converts a Student model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:              model.ID,
		RollNumber:      model.RollNumber,
		Name:            model.Name,
		Email:           model.Email,
		Branch:          model.Branch,
		Semester:        model.Semester,
		CGPA:            model.CGPA,
		Backlogs:        model.Backlogs,
		TechnicalSkills: model.TechnicalSkills(),
		SoftSkills:      model.SoftSkills(),
		IsPlaced:        model.IsPlaced,
		PlacementDate:   model.PlacementDate,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewOfferResponse converts an Offer model into a DTO.
func NewOfferResponse(model models.Offer) OfferResponse {
	return OfferResponse{
		DriveID:   model.DriveID,
		CompanyID: model.CompanyID,
		JobTitle:  model.JobTitle,
		CTC:       model.CTC,
		Status:    model.Status,
		Date:      model.Date,
	}
}

// NewStudentResponseSlice converts a slice of students.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		out = append(out, NewStudentResponse(student))
	}
	return out
}
