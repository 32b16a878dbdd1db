package dto

import (
	"time"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// ResultRecordRequest is one outcome row inside a bulk submission.
type ResultRecordRequest struct {
	StudentID uint     `json:"student_id" validate:"required,gt=0"`
	Status    string   `json:"status" validate:"required"`
	Score     *float64 `json:"score"`
	CTC       *float64 `json:"ctc"`
	Feedback  string   `json:"feedback"`
}

// SubmitResultsRequest is the bulk result submission payload.
type SubmitResultsRequest struct {
	Results []ResultRecordRequest `json:"results" validate:"required,min=1,dive"`
}

// ResultUpdateRequest corrects a single result record. Version, when provided,
// enables an optimistic concurrency check against the stored record.
type ResultUpdateRequest struct {
	StudentID uint     `json:"student_id" validate:"required,gt=0"`
	Status    string   `json:"status" validate:"required"`
	Score     *float64 `json:"score"`
	CTC       *float64 `json:"ctc"`
	Feedback  string   `json:"feedback"`
	Version   int      `json:"version" validate:"gte=0"`
}

// ResultResponse is the API view of one result record.
type ResultResponse struct {
	DriveID     uint      `json:"drive_id"`
	StudentID   uint      `json:"student_id"`
	Status      string    `json:"status"`
	Score       *float64  `json:"score"`
	CTC         *float64  `json:"ctc"`
	Feedback    string    `json:"feedback"`
	SubmittedBy uint      `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
	Version     int       `json:"version"`
}

// ResultSummaryResponse reports batch outcome counts after a bulk submission.
type ResultSummaryResponse struct {
	DriveID     uint   `json:"drive_id"`
	DriveStatus string `json:"drive_status"`
	Total       int    `json:"total"`
	Selected    int    `json:"selected"`
	Rejected    int    `json:"rejected"`
	Waitlisted  int    `json:"waitlisted"`
}

// ResultDetailResponse joins a result with the student it belongs to.
type ResultDetailResponse struct {
	ResultResponse
	Student StudentSummary `json:"student"`
}

// StudentSummary is the trimmed student view embedded in result listings.
type StudentSummary struct {
	ID         uint    `json:"id"`
	RollNumber string  `json:"roll_number"`
	Name       string  `json:"name"`
	Branch     string  `json:"branch"`
	CGPA       float64 `json:"cgpa"`
}

// SelectionStats summarizes outcomes for a drive's published results.
type SelectionStats struct {
	Total         int      `json:"total"`
	Selected      int      `json:"selected"`
	Rejected      int      `json:"rejected"`
	Waitlisted    int      `json:"waitlisted"`
	SelectionRate float64  `json:"selection_rate"`
	AverageScore  *float64 `json:"average_score,omitempty"`
	AverageCTC    *float64 `json:"average_ctc,omitempty"`
}

// DriveResultsResponse is the payload of the drive results listing.
type DriveResultsResponse struct {
	DriveID     uint                   `json:"drive_id"`
	DriveStatus string                 `json:"drive_status"`
	Results     []ResultDetailResponse `json:"results"`
	Stats       SelectionStats         `json:"stats"`
}

// NewResultResponse converts a DriveResult model into a DTO.
func NewResultResponse(model models.DriveResult) ResultResponse {
	return ResultResponse{
		DriveID:     model.DriveID,
		StudentID:   model.StudentID,
		Status:      string(model.Status),
		Score:       model.Score,
		CTC:         model.CTC,
		Feedback:    model.Feedback,
		SubmittedBy: model.SubmittedBy,
		SubmittedAt: model.SubmittedAt,
		Version:     model.Version,
	}
}

// RegistrationResponse confirms a successful drive registration.
type RegistrationResponse struct {
	DriveID          uint      `json:"drive_id"`
	StudentID        uint      `json:"student_id"`
	RegistrationDate time.Time `json:"registration_date"`
}

// RegistrationRequest identifies the student registering for a drive.
type RegistrationRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}
