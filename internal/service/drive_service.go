package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/models"
	"github.com/noah-isme/placement-go-api/internal/observability"
	"github.com/noah-isme/placement-go-api/internal/repository"
)

// DriveService manages placement drives and their lifecycle.
type DriveService interface {
	Create(ctx context.Context, scope AccountScope, req dto.DriveCreateRequest) (dto.DriveResponse, error)
	Get(ctx context.Context, scope AccountScope, id uint) (dto.DriveResponse, error)
	List(ctx context.Context, scope AccountScope, req dto.DriveListRequest) (dto.DriveListResponse, error)
	Update(ctx context.Context, scope AccountScope, id uint, req dto.DriveUpdateRequest) (dto.DriveResponse, error)
	Transition(ctx context.Context, scope AccountScope, id uint, req dto.DriveTransitionRequest) (dto.DriveResponse, error)
	Delete(ctx context.Context, scope AccountScope, id uint) error
	EligibleStudents(ctx context.Context, scope AccountScope, driveID uint, req dto.EligibleStudentsRequest) (dto.EligibleStudentsResponse, error)
}

type driveService struct {
	drives        repository.DriveRepository
	companies     repository.CompanyRepository
	students      repository.StudentRepository
	registrations repository.RegistrationRepository
	activity      ActivityRecorder
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewDriveService constructs the drive service.
func NewDriveService(
	drives repository.DriveRepository,
	companies repository.CompanyRepository,
	students repository.StudentRepository,
	registrations repository.RegistrationRepository,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) DriveService {
	return &driveService{
		drives:        drives,
		companies:     companies,
		students:      students,
		registrations: registrations,
		activity:      activity,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "drive_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/placement-go-api/internal/service/drive"),
		now:           time.Now,
	}
}

func (s *driveService) Create(ctx context.Context, scope AccountScope, req dto.DriveCreateRequest) (dto.DriveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DriveResponse{}, apperrors.Validation(err.Error())
	}

	deadline, err := parseTimestamp(req.RegistrationDeadline)
	if err != nil {
		return dto.DriveResponse{}, apperrors.Validation("registration_deadline must be an RFC 3339 timestamp")
	}
	driveDate, err := parseTimestamp(req.DriveDate)
	if err != nil {
		return dto.DriveResponse{}, apperrors.Validation("drive_date must be an RFC 3339 timestamp")
	}
	if !deadline.After(s.now()) {
		return dto.DriveResponse{}, apperrors.BadRequest(apperrors.CodeInvalidSchedule, "registration deadline must fall in the future")
	}
	if !deadline.Before(driveDate) {
		return dto.DriveResponse{}, apperrors.BadRequest(apperrors.CodeInvalidSchedule, "registration deadline must fall before the drive date")
	}

	company, err := s.companies.GetByID(ctx, scope.AccountID, req.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DriveResponse{}, apperrors.NotFound(apperrors.CodeCompanyNotFound, "company not found")
		}
		return dto.DriveResponse{}, apperrors.Internal(err)
	}
	if company.Status != models.CompanyStatusApproved {
		return dto.DriveResponse{}, apperrors.State(apperrors.CodeCompanyNotApproved, "company is not approved for placement drives")
	}

	drive := models.Drive{
		AccountID:            scope.AccountID,
		CompanyID:            req.CompanyID,
		JobTitle:             strings.TrimSpace(req.JobTitle),
		Description:          strings.TrimSpace(s.sanitizer.Sanitize(req.Description)),
		MinCGPA:              req.MinCGPA,
		MaxBacklogs:          req.MaxBacklogs,
		CTC:                  req.CTC,
		RegistrationDeadline: deadline,
		DriveDate:            driveDate,
		Status:               models.DriveStatusDraft,
		CreatedBy:            scope.ActorID,
	}
	drive.SetEligibleBranches(normalizeStrings(req.EligibleBranches))
	drive.SetEligibleSemesters(req.EligibleSemesters)
	drive.SetRequiredSkills(normalizeStrings(req.RequiredSkills))

	if err := s.drives.Create(ctx, &drive); err != nil {
		return dto.DriveResponse{}, apperrors.Internal(err)
	}
	drive.Company = company

	s.recordActivity(ctx, scope, "create", "drive", drive.ID, map[string]interface{}{
		"job_title":  drive.JobTitle,
		"company_id": drive.CompanyID,
	})

	return dto.NewDriveResponse(drive), nil
}

func (s *driveService) Get(ctx context.Context, scope AccountScope, id uint) (dto.DriveResponse, error) {
	drive, err := s.drives.GetByID(ctx, scope.AccountID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DriveResponse{}, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return dto.DriveResponse{}, apperrors.Internal(err)
	}

	response := dto.NewDriveResponse(drive)
	if count, err := s.registrations.CountByDrive(ctx, scope.AccountID, id); err == nil {
		response.RegisteredCount = count
	}

	return response, nil
}

func (s *driveService) List(ctx context.Context, scope AccountScope, req dto.DriveListRequest) (dto.DriveListResponse, error) {
	filter := repository.DriveFilter{
		Status:    models.DriveStatus(strings.TrimSpace(req.Status)),
		CompanyID: req.CompanyID,
		Search:    req.Search,
		Sort:      req.Sort,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return dto.DriveListResponse{}, apperrors.Validation("unknown drive status filter")
	}

	drives, total, err := s.drives.List(ctx, scope.AccountID, filter)
	if err != nil {
		return dto.DriveListResponse{}, apperrors.Internal(err)
	}

	return dto.DriveListResponse{
		Items:      dto.NewDriveResponseSlice(drives),
		Pagination: buildPagination(req.Page, req.PageSize, total),
	}, nil
}

func (s *driveService) Update(ctx context.Context, scope AccountScope, id uint, req dto.DriveUpdateRequest) (dto.DriveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DriveResponse{}, apperrors.Validation(err.Error())
	}

	drive, err := s.drives.GetByID(ctx, scope.AccountID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DriveResponse{}, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return dto.DriveResponse{}, apperrors.Internal(err)
	}

	if !drive.Status.Allows(models.OperationUpdate) {
		return dto.DriveResponse{}, apperrors.State(apperrors.CodeInvalidTransition,
			fmt.Sprintf("drive in status %s cannot be updated", drive.Status))
	}

	if req.JobTitle != nil {
		drive.JobTitle = strings.TrimSpace(*req.JobTitle)
	}
	if req.Description != nil {
		drive.Description = strings.TrimSpace(s.sanitizer.Sanitize(*req.Description))
	}
	if req.MinCGPA != nil {
		drive.MinCGPA = *req.MinCGPA
	}
	if req.MaxBacklogs != nil {
		drive.MaxBacklogs = *req.MaxBacklogs
	}
	if req.CTC != nil {
		drive.CTC = *req.CTC
	}
	if req.EligibleBranches != nil {
		drive.SetEligibleBranches(normalizeStrings(req.EligibleBranches))
	}
	if req.EligibleSemesters != nil {
		drive.SetEligibleSemesters(req.EligibleSemesters)
	}
	if req.RequiredSkills != nil {
		drive.SetRequiredSkills(normalizeStrings(req.RequiredSkills))
	}
	if req.RegistrationDeadline != nil {
		deadline, err := parseTimestamp(*req.RegistrationDeadline)
		if err != nil {
			return dto.DriveResponse{}, apperrors.Validation("registration_deadline must be an RFC 3339 timestamp")
		}
		drive.RegistrationDeadline = deadline
	}
	if req.DriveDate != nil {
		driveDate, err := parseTimestamp(*req.DriveDate)
		if err != nil {
			return dto.DriveResponse{}, apperrors.Validation("drive_date must be an RFC 3339 timestamp")
		}
		drive.DriveDate = driveDate
	}
	// Rescheduling must land the whole window in the future again.
	if req.RegistrationDeadline != nil || req.DriveDate != nil {
		if !drive.RegistrationDeadline.After(s.now()) {
			return dto.DriveResponse{}, apperrors.BadRequest(apperrors.CodeInvalidSchedule, "registration deadline must fall in the future")
		}
	}
	if !drive.RegistrationDeadline.Before(drive.DriveDate) {
		return dto.DriveResponse{}, apperrors.BadRequest(apperrors.CodeInvalidSchedule, "registration deadline must fall before the drive date")
	}

	if err := s.drives.Update(ctx, &drive); err != nil {
		return dto.DriveResponse{}, apperrors.Internal(err)
	}

	s.recordActivity(ctx, scope, "update", "drive", drive.ID, nil)

	return dto.NewDriveResponse(drive), nil
}

func (s *driveService) Transition(ctx context.Context, scope AccountScope, id uint, req dto.DriveTransitionRequest) (dto.DriveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DriveResponse{}, apperrors.Validation(err.Error())
	}

	target := models.DriveStatus(strings.TrimSpace(strings.ToLower(req.Status)))
	if !target.Valid() {
		return dto.DriveResponse{}, apperrors.Validation("unknown drive status " + req.Status)
	}

	drive, err := s.drives.GetByID(ctx, scope.AccountID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DriveResponse{}, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return dto.DriveResponse{}, apperrors.Internal(err)
	}

	if !models.CanTransition(drive.Status, target) {
		return dto.DriveResponse{}, apperrors.State(apperrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move drive from %s to %s", drive.Status, target))
	}

	ctx, span := s.tracer.Start(ctx, "drives.transition", trace.WithAttributes(
		attribute.Int("drive.id", int(id)),
		attribute.String("drive.from", string(drive.Status)),
		attribute.String("drive.to", string(target)),
	))
	defer span.End()

	// Conditional on the status observed above, so a concurrent transition
	// cannot apply twice.
	if err := s.drives.UpdateStatus(ctx, scope.AccountID, id, drive.Status, target); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DriveResponse{}, apperrors.Conflict(apperrors.CodeInvalidTransition, "drive status changed concurrently, retry")
		}
		span.RecordError(err)
		return dto.DriveResponse{}, apperrors.Internal(err)
	}

	observability.DriveTransitionsTotal().WithLabelValues(string(drive.Status), string(target)).Inc()
	s.recordActivity(ctx, scope, "transition", "drive", drive.ID, map[string]interface{}{
		"from": string(drive.Status),
		"to":   string(target),
	})

	drive.Status = target
	return dto.NewDriveResponse(drive), nil
}

func (s *driveService) Delete(ctx context.Context, scope AccountScope, id uint) error {
	drive, err := s.drives.GetByID(ctx, scope.AccountID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return apperrors.Internal(err)
	}

	if !drive.Status.Allows(models.OperationDelete) {
		return apperrors.State(apperrors.CodeDriveNotDeletable,
			fmt.Sprintf("drive in status %s cannot be deleted", drive.Status))
	}

	count, err := s.registrations.CountByDrive(ctx, scope.AccountID, id)
	if err != nil {
		return apperrors.Internal(err)
	}
	if count > 0 {
		return apperrors.Conflict(apperrors.CodeDriveHasRegistrations, "drive has registered students")
	}

	if err := s.drives.Delete(ctx, scope.AccountID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return apperrors.Internal(err)
	}

	s.recordActivity(ctx, scope, "delete", "drive", drive.ID, nil)
	return nil
}

func (s *driveService) EligibleStudents(ctx context.Context, scope AccountScope, driveID uint, req dto.EligibleStudentsRequest) (dto.EligibleStudentsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EligibleStudentsResponse{}, apperrors.Validation(err.Error())
	}

	drive, err := s.drives.GetByID(ctx, scope.AccountID, driveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EligibleStudentsResponse{}, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return dto.EligibleStudentsResponse{}, apperrors.Internal(err)
	}

	students, _, err := s.students.List(ctx, scope.AccountID, repository.StudentFilter{
		Branch:   req.Branch,
		Semester: req.Semester,
		Search:   req.Search,
	})
	if err != nil {
		return dto.EligibleStudentsResponse{}, apperrors.Internal(err)
	}

	eligible := make([]dto.EligibleStudentResponse, 0, len(students))
	for _, student := range students {
		if outcome := EvaluateEligibility(student, drive); !outcome.Eligible {
			continue
		}
		score, matched := SkillMatchScore(student, drive)
		eligible = append(eligible, dto.EligibleStudentResponse{
			ID:              student.ID,
			RollNumber:      student.RollNumber,
			Name:            student.Name,
			Email:           student.Email,
			Branch:          student.Branch,
			Semester:        student.Semester,
			CGPA:            student.CGPA,
			Backlogs:        student.Backlogs,
			SkillMatchScore: score,
			MatchedSkills:   matched,
		})
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].SkillMatchScore != eligible[j].SkillMatchScore {
			return eligible[i].SkillMatchScore > eligible[j].SkillMatchScore
		}
		return eligible[i].RollNumber < eligible[j].RollNumber
	})

	total := len(eligible)
	eligible = paginateEligible(eligible, req.Page, req.PageSize)

	return dto.EligibleStudentsResponse{
		DriveID: driveID,
		Criteria: dto.EligibilityCriteriaEcho{
			MinCGPA:           drive.MinCGPA,
			MaxBacklogs:       drive.MaxBacklogs,
			EligibleBranches:  drive.EligibleBranches(),
			EligibleSemesters: drive.EligibleSemesters(),
			RequiredSkills:    drive.RequiredSkills(),
		},
		Students: eligible,
		Total:    total,
	}, nil
}

func (s *driveService) recordActivity(ctx context.Context, scope AccountScope, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	_, err := s.activity.Record(ctx, scope, ActivityEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func paginateEligible(items []dto.EligibleStudentResponse, page, pageSize int) []dto.EligibleStudentResponse {
	if pageSize <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []dto.EligibleStudentResponse{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(value))
}

func normalizeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func buildPagination(page, pageSize int, total int64) dto.PaginationMeta {
	meta := dto.PaginationMeta{
		Page:       maxInt(page, 1),
		PageSize:   pageSize,
		TotalItems: total,
	}
	if pageSize > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	} else {
		meta.TotalPages = 1
	}
	return meta
}
