package service

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// RegistrationService registers and unregisters students on open drives. The
// gates run in a fixed order so a request failing several of them always
// reports the same error: drive state, then deadline, then student existence,
// then eligibility, then duplicates.
type RegistrationService interface {
	Register(ctx context.Context, scope AccountScope, driveID uint, req dto.RegistrationRequest) (dto.RegistrationResponse, error)
	Unregister(ctx context.Context, scope AccountScope, driveID, studentID uint) error
	Roster(ctx context.Context, scope AccountScope, driveID uint) ([]dto.StudentResponse, error)
	StudentDrives(ctx context.Context, scope AccountScope, studentID uint) ([]dto.RegisteredDriveResponse, error)
}

type registrationService struct {
	drives        repository.DriveRepository
	students      repository.StudentRepository
	registrations repository.RegistrationRepository
	activity      ActivityRecorder
	events        EventPublisher
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(
	drives repository.DriveRepository,
	students repository.StudentRepository,
	registrations repository.RegistrationRepository,
	activity ActivityRecorder,
	events EventPublisher,
	logger zerolog.Logger,
) RegistrationService {
	return &registrationService{
		drives:        drives,
		students:      students,
		registrations: registrations,
		activity:      activity,
		events:        events,
		logger:        logger.With().Str("component", "registration_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/placement-go-api/internal/service/registration"),
		now:           time.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, scope AccountScope, driveID uint, req dto.RegistrationRequest) (dto.RegistrationResponse, error) {
	if req.StudentID == 0 {
		return dto.RegistrationResponse{}, apperrors.Validation("student_id is required")
	}

	ctx, span := s.tracer.Start(ctx, "registrations.register", trace.WithAttributes(
		attribute.Int("drive.id", int(driveID)),
		attribute.Int("student.id", int(req.StudentID)),
	))
	defer span.End()

	drive, err := s.drives.GetByID(ctx, scope.AccountID, driveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RegistrationResponse{}, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return dto.RegistrationResponse{}, apperrors.Internal(err)
	}

	if !drive.Status.Allows(models.OperationRegister) {
		return dto.RegistrationResponse{}, apperrors.State(apperrors.CodeDriveNotOpen,
			fmt.Sprintf("drive in status %s is not accepting registrations", drive.Status))
	}

	now := s.now()
	if drive.RegistrationClosed(now) {
		return dto.RegistrationResponse{}, apperrors.State(apperrors.CodeDeadlinePassed, "registration deadline has passed")
	}

	student, err := s.students.GetByID(ctx, scope.AccountID, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RegistrationResponse{}, apperrors.NotFound(apperrors.CodeStudentNotFound, "student not found")
		}
		return dto.RegistrationResponse{}, apperrors.Internal(err)
	}

	if outcome := EvaluateEligibility(student, drive); !outcome.Eligible {
		return dto.RegistrationResponse{}, apperrors.Eligibility(outcome.Reasons)
	}

	registration := models.DriveRegistration{
		AccountID:    scope.AccountID,
		DriveID:      driveID,
		StudentID:    student.ID,
		Status:       models.RegistrationStatusRegistered,
		RegisteredAt: now,
	}
	if err := s.registrations.Register(ctx, &registration); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.RegistrationResponse{}, apperrors.Conflict(apperrors.CodeAlreadyRegistered, "student is already registered for this drive")
		}
		span.RecordError(err)
		return dto.RegistrationResponse{}, apperrors.Internal(err)
	}

	observability.RegistrationsTotal().WithLabelValues("register").Inc()
	s.recordActivity(ctx, scope, "register", driveID, student.ID)
	s.notify(ctx, scope, student.ID, "registration_confirmed",
		fmt.Sprintf("You are registered for the %s drive", drive.JobTitle))

	return dto.RegistrationResponse{
		DriveID:          driveID,
		StudentID:        student.ID,
		RegistrationDate: registration.RegisteredAt,
	}, nil
}

func (s *registrationService) Unregister(ctx context.Context, scope AccountScope, driveID, studentID uint) error {
	drive, err := s.drives.GetByID(ctx, scope.AccountID, driveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return apperrors.Internal(err)
	}

	if !drive.Status.Allows(models.OperationUnregister) {
		return apperrors.State(apperrors.CodeDriveNotOpen,
			fmt.Sprintf("drive in status %s does not accept withdrawals", drive.Status))
	}

	if drive.Started(s.now()) {
		return apperrors.State(apperrors.CodeDriveStarted, "drive has already started")
	}

	if err := s.registrations.Unregister(ctx, scope.AccountID, driveID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(apperrors.CodeNotRegistered, "student is not registered for this drive")
		}
		return apperrors.Internal(err)
	}

	observability.RegistrationsTotal().WithLabelValues("unregister").Inc()
	s.recordActivity(ctx, scope, "unregister", driveID, studentID)

	return nil
}

func (s *registrationService) Roster(ctx context.Context, scope AccountScope, driveID uint) ([]dto.StudentResponse, error) {
	if _, err := s.drives.GetByID(ctx, scope.AccountID, driveID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return nil, apperrors.Internal(err)
	}

	ids, err := s.registrations.StudentIDsByDrive(ctx, scope.AccountID, driveID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	students, err := s.students.GetByIDs(ctx, scope.AccountID, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *registrationService) StudentDrives(ctx context.Context, scope AccountScope, studentID uint) ([]dto.RegisteredDriveResponse, error) {
	if _, err := s.students.GetByID(ctx, scope.AccountID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeStudentNotFound, "student not found")
		}
		return nil, apperrors.Internal(err)
	}

	registrations, err := s.registrations.ListByStudent(ctx, scope.AccountID, studentID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	out := make([]dto.RegisteredDriveResponse, 0, len(registrations))
	for _, registration := range registrations {
		out = append(out, dto.RegisteredDriveResponse{
			DriveID:          registration.DriveID,
			RegistrationDate: registration.RegisteredAt,
			Status:           registration.Status,
		})
	}
	return out, nil
}

func (s *registrationService) recordActivity(ctx context.Context, scope AccountScope, action string, driveID, studentID uint) {
	if s.activity == nil {
		return
	}
	id := driveID
	_, err := s.activity.Record(ctx, scope, ActivityEntry{
		Action:     action,
		EntityType: "registration",
		EntityID:   &id,
		Metadata:   map[string]interface{}{"student_id": studentID},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *registrationService) notify(ctx context.Context, scope AccountScope, studentID uint, eventType, message string) {
	if s.events == nil {
		return
	}
	_, err := s.events.Publish(ctx, scope.AccountID, dto.PlacementEventCreateRequest{
		UserID:  fmt.Sprintf("student:%d", studentID),
		Type:    eventType,
		Message: message,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("type", eventType).Msg("failed to publish placement event")
	}
}
