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

// StudentService manages student records and their placement view.
type StudentService interface {
	Create(ctx context.Context, scope AccountScope, req dto.StudentCreateRequest) (dto.StudentResponse, error)
	Get(ctx context.Context, scope AccountScope, id uint) (dto.StudentResponse, error)
	List(ctx context.Context, scope AccountScope, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Update(ctx context.Context, scope AccountScope, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error)
}

type studentService struct {
	students      repository.StudentRepository
	registrations repository.RegistrationRepository
	results       repository.ResultRepository
	validator     *validator.Validate
	logger        zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(
	students repository.StudentRepository,
	registrations repository.RegistrationRepository,
	results repository.ResultRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:      students,
		registrations: registrations,
		results:       results,
		validator:     validate,
		logger:        logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Create(ctx context.Context, scope AccountScope, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, apperrors.Validation(err.Error())
	}

	student := models.Student{
		AccountID:  scope.AccountID,
		RollNumber: strings.TrimSpace(req.RollNumber),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Branch:     strings.TrimSpace(req.Branch),
		Semester:   req.Semester,
		CGPA:       req.CGPA,
		Backlogs:   req.Backlogs,
	}
	student.SetTechnicalSkills(normalizeStrings(req.TechnicalSkills))
	student.SetSoftSkills(normalizeStrings(req.SoftSkills))

	if err := s.students.Create(ctx, &student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.StudentResponse{}, apperrors.Conflict(apperrors.CodeDuplicateStudent, "roll number or email already registered")
		}
		return dto.StudentResponse{}, apperrors.Internal(err)
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Get(ctx context.Context, scope AccountScope, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, scope.AccountID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, apperrors.NotFound(apperrors.CodeStudentNotFound, "student not found")
		}
		return dto.StudentResponse{}, apperrors.Internal(err)
	}

	response := dto.NewStudentResponse(student)

	if offers, err := s.results.ListOffersByStudent(ctx, scope.AccountID, id); err == nil {
		for _, offer := range offers {
			response.Offers = append(response.Offers, dto.NewOfferResponse(offer))
		}
	}
	if registrations, err := s.registrations.ListByStudent(ctx, scope.AccountID, id); err == nil {
		for _, registration := range registrations {
			response.RegisteredDrives = append(response.RegisteredDrives, dto.RegisteredDriveResponse{
				DriveID:          registration.DriveID,
				RegistrationDate: registration.RegisteredAt,
				Status:           registration.Status,
			})
		}
	}

	return response, nil
}

func (s *studentService) List(ctx context.Context, scope AccountScope, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentListResponse{}, apperrors.Validation(err.Error())
	}

	students, total, err := s.students.List(ctx, scope.AccountID, repository.StudentFilter{
		Branch:   req.Branch,
		Semester: req.Semester,
		Placed:   req.Placed,
		Search:   req.Search,
		Sort:     req.Sort,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return dto.StudentListResponse{}, apperrors.Internal(err)
	}

	return dto.StudentListResponse{
		Items:      dto.NewStudentResponseSlice(students),
		Pagination: buildPagination(req.Page, req.PageSize, total),
	}, nil
}

func (s *studentService) Update(ctx context.Context, scope AccountScope, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, apperrors.Validation(err.Error())
	}

	student, err := s.students.GetByID(ctx, scope.AccountID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, apperrors.NotFound(apperrors.CodeStudentNotFound, "student not found")
		}
		return dto.StudentResponse{}, apperrors.Internal(err)
	}

	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.Branch != nil {
		student.Branch = strings.TrimSpace(*req.Branch)
	}
	if req.Semester != nil {
		student.Semester = *req.Semester
	}
	if req.CGPA != nil {
		student.CGPA = *req.CGPA
	}
	if req.Backlogs != nil {
		student.Backlogs = *req.Backlogs
	}
	if req.TechnicalSkills != nil {
		student.SetTechnicalSkills(normalizeStrings(req.TechnicalSkills))
	}
	if req.SoftSkills != nil {
		student.SetSoftSkills(normalizeStrings(req.SoftSkills))
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, apperrors.Internal(err)
	}

	return dto.NewStudentResponse(student), nil
}
