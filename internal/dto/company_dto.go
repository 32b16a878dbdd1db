package dto

import (
	"time"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// CompanyCreateRequest describes the payload for onboarding a company.
type CompanyCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Industry string `json:"industry" validate:"max=128"`
	Website  string `json:"website" validate:"omitempty,url"`
}

// CompanyListRequest describes query filters for listing companies.
type CompanyListRequest struct {
	Status   string `query:"status"`
	Search   string `query:"search"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
}

// CompanyResponse is the API view of a company.
type CompanyResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry"`
	Website   string    `json:"website"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyListResponse wraps a paginated company listing.
type CompanyListResponse struct {
	Items      []CompanyResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewCompanyResponse converts a Company model into a DTO.
func NewCompanyResponse(model models.Company) CompanyResponse {
	return CompanyResponse{
		ID:        model.ID,
		Name:      model.Name,
		Industry:  model.Industry,
		Website:   model.Website,
		Status:    string(model.Status),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewCompanyResponseSlice converts a slice of companies.
func NewCompanyResponseSlice(companies []models.Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for _, company := range companies {
		out = append(out, NewCompanyResponse(company))
	}
	return out
}
