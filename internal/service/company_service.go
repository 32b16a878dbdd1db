package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/models"
	"github.com/noah-isme/placement-go-api/internal/repository"
)

// CompanyService manages recruiting companies and their approval state.
type CompanyService interface {
	Create(ctx context.Context, scope AccountScope, req dto.CompanyCreateRequest) (dto.CompanyResponse, error)
	Get(ctx context.Context, scope AccountScope, id uint) (dto.CompanyResponse, error)
	List(ctx context.Context, scope AccountScope, req dto.CompanyListRequest) (dto.CompanyListResponse, error)
	Approve(ctx context.Context, scope AccountScope, id uint) (dto.CompanyResponse, error)
	Reject(ctx context.Context, scope AccountScope, id uint) (dto.CompanyResponse, error)
}

type companyService struct {
	companies repository.CompanyRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCompanyService constructs the company service.
func NewCompanyService(companies repository.CompanyRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) CompanyService {
	return &companyService{
		companies: companies,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "company_service").Logger(),
	}
}

func (s *companyService) Create(ctx context.Context, scope AccountScope, req dto.CompanyCreateRequest) (dto.CompanyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CompanyResponse{}, apperrors.Validation(err.Error())
	}

	company := models.Company{
		AccountID: scope.AccountID,
		Name:      strings.TrimSpace(req.Name),
		Industry:  strings.TrimSpace(req.Industry),
		Website:   strings.TrimSpace(req.Website),
		Status:    models.CompanyStatusPending,
	}
	if err := s.companies.Create(ctx, &company); err != nil {
		return dto.CompanyResponse{}, apperrors.Internal(err)
	}

	return dto.NewCompanyResponse(company), nil
}

func (s *companyService) Get(ctx context.Context, scope AccountScope, id uint) (dto.CompanyResponse, error) {
	company, err := s.companies.GetByID(ctx, scope.AccountID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CompanyResponse{}, apperrors.NotFound(apperrors.CodeCompanyNotFound, "company not found")
		}
		return dto.CompanyResponse{}, apperrors.Internal(err)
	}
	return dto.NewCompanyResponse(company), nil
}

func (s *companyService) List(ctx context.Context, scope AccountScope, req dto.CompanyListRequest) (dto.CompanyListResponse, error) {
	companies, total, err := s.companies.List(ctx, scope.AccountID, repository.CompanyFilter{
		Status:   models.CompanyStatus(strings.TrimSpace(req.Status)),
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return dto.CompanyListResponse{}, apperrors.Internal(err)
	}

	return dto.CompanyListResponse{
		Items:      dto.NewCompanyResponseSlice(companies),
		Pagination: buildPagination(req.Page, req.PageSize, total),
	}, nil
}

func (s *companyService) Approve(ctx context.Context, scope AccountScope, id uint) (dto.CompanyResponse, error) {
	return s.setStatus(ctx, scope, id, models.CompanyStatusApproved)
}

func (s *companyService) Reject(ctx context.Context, scope AccountScope, id uint) (dto.CompanyResponse, error) {
	return s.setStatus(ctx, scope, id, models.CompanyStatusRejected)
}

func (s *companyService) setStatus(ctx context.Context, scope AccountScope, id uint, status models.CompanyStatus) (dto.CompanyResponse, error) {
	company, err := s.companies.UpdateStatus(ctx, scope.AccountID, id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CompanyResponse{}, apperrors.NotFound(apperrors.CodeCompanyNotFound, "company not found")
		}
		return dto.CompanyResponse{}, apperrors.Internal(err)
	}

	if s.activity != nil {
		entityID := id
		_, err := s.activity.Record(ctx, scope, ActivityEntry{
			Action:     string(status),
			EntityType: "company",
			EntityID:   &entityID,
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to record activity")
		}
	}

	return dto.NewCompanyResponse(company), nil
}
