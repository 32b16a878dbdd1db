package dto

import (
	"time"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// DriveCreateRequest describes the payload for creating a placement drive.
type DriveCreateRequest struct {
	CompanyID            uint     `json:"company_id" validate:"required,gt=0"`
	JobTitle             string   `json:"job_title" validate:"required,min=2,max=255"`
	Description          string   `json:"description"`
	MinCGPA              float64  `json:"min_cgpa" validate:"gte=0,lte=10"`
	MaxBacklogs          int      `json:"max_backlogs" validate:"gte=0"`
	EligibleBranches     []string `json:"eligible_branches"`
	EligibleSemesters    []int    `json:"eligible_semesters" validate:"dive,gte=1,lte=8"`
	RequiredSkills       []string `json:"required_skills"`
	CTC                  float64  `json:"ctc" validate:"gte=0"`
	RegistrationDeadline string   `json:"registration_deadline" validate:"required"`
	DriveDate            string   `json:"drive_date" validate:"required"`
}

// DriveUpdateRequest describes a partial drive update.
type DriveUpdateRequest struct {
	JobTitle             *string  `json:"job_title" validate:"omitempty,min=2,max=255"`
	Description          *string  `json:"description"`
	MinCGPA              *float64 `json:"min_cgpa" validate:"omitempty,gte=0,lte=10"`
	MaxBacklogs          *int     `json:"max_backlogs" validate:"omitempty,gte=0"`
	EligibleBranches     []string `json:"eligible_branches"`
	EligibleSemesters    []int    `json:"eligible_semesters" validate:"dive,gte=1,lte=8"`
	RequiredSkills       []string `json:"required_skills"`
	CTC                  *float64 `json:"ctc" validate:"omitempty,gte=0"`
	RegistrationDeadline *string  `json:"registration_deadline"`
	DriveDate            *string  `json:"drive_date"`
}

// DriveTransitionRequest moves a drive to a new lifecycle status.
type DriveTransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// DriveListRequest describes query filters for listing drives.
type DriveListRequest struct {
	Status    string `query:"status"`
	CompanyID uint   `query:"company_id"`
	Search    string `query:"search"`
	Sort      string `query:"sort"`
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size"`
}

// DriveResponse is the API view of a drive.
type DriveResponse struct {
	ID                   uint      `json:"id"`
	CompanyID            uint      `json:"company_id"`
	CompanyName          string    `json:"company_name,omitempty"`
	JobTitle             string    `json:"job_title"`
	Description          string    `json:"description"`
	MinCGPA              float64   `json:"min_cgpa"`
	MaxBacklogs          int       `json:"max_backlogs"`
	EligibleBranches     []string  `json:"eligible_branches"`
	EligibleSemesters    []int     `json:"eligible_semesters"`
	RequiredSkills       []string  `json:"required_skills"`
	CTC                  float64   `json:"ctc"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	DriveDate            time.Time `json:"drive_date"`
	Status               string    `json:"status"`
	RegisteredCount      int64     `json:"registered_count,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DriveListResponse wraps a paginated drive listing.
type DriveListResponse struct {
	Items      []DriveResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewDriveResponse converts a Drive model into a DTO.
func NewDriveResponse(model models.Drive) DriveResponse {
	return DriveResponse{
		ID:                   model.ID,
		CompanyID:            model.CompanyID,
		CompanyName:          model.Company.Name,
		JobTitle:             model.JobTitle,
		Description:          model.Description,
		MinCGPA:              model.MinCGPA,
		MaxBacklogs:          model.MaxBacklogs,
		EligibleBranches:     model.EligibleBranches(),
		EligibleSemesters:    model.EligibleSemesters(),
		RequiredSkills:       model.RequiredSkills(),
		CTC:                  model.CTC,
		RegistrationDeadline: model.RegistrationDeadline,
		DriveDate:            model.DriveDate,
		Status:               string(model.Status),
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

// NewDriveResponseSlice converts a slice of drives.
func NewDriveResponseSlice(drives []models.Drive) []DriveResponse {
	out := make([]DriveResponse, 0, len(drives))
	for _, drive := range drives {
		out = append(out, NewDriveResponse(drive))
	}
	return out
}

// EligibleStudentsRequest describes filters for the eligible-student listing.
type EligibleStudentsRequest struct {
	Branch   string `query:"branch"`
	Semester int    `query:"semester" validate:"omitempty,gte=1,lte=8"`
	Search   string `query:"search"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
}

// EligibleStudentResponse pairs a student summary with the advisory skill
// match score used for ranking.
type EligibleStudentResponse struct {
	ID              uint     `json:"id"`
	RollNumber      string   `json:"roll_number"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Branch          string   `json:"branch"`
	Semester        int      `json:"semester"`
	CGPA            float64  `json:"cgpa"`
	Backlogs        int      `json:"backlogs"`
	SkillMatchScore float64  `json:"skill_match_score"`
	MatchedSkills   []string `json:"matched_skills,omitempty"`
}

// EligibilityCriteriaEcho restates the drive criteria alongside the listing.
type EligibilityCriteriaEcho struct {
	MinCGPA           float64  `json:"min_cgpa"`
	MaxBacklogs       int      `json:"max_backlogs"`
	EligibleBranches  []string `json:"eligible_branches"`
	EligibleSemesters []int    `json:"eligible_semesters"`
	RequiredSkills    []string `json:"required_skills"`
}

// EligibleStudentsResponse is the payload of the eligible-student listing.
type EligibleStudentsResponse struct {
	DriveID  uint                      `json:"drive_id"`
	Criteria EligibilityCriteriaEcho   `json:"criteria"`
	Students []EligibleStudentResponse `json:"students"`
	Total    int                       `json:"total"`
}
