package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/models"
	"github.com/noah-isme/placement-go-api/internal/observability"
	"github.com/noah-isme/placement-go-api/internal/repository"
)

// ResultService processes drive results. A bulk submission validates every
// record before anything is written, then replaces the drive's result set,
// publishes the drive, and reconciles offers and placement flags in one
// transaction.
type ResultService interface {
	Submit(ctx context.Context, scope AccountScope, driveID uint, req dto.SubmitResultsRequest) (dto.ResultSummaryResponse, error)
	UpdateOne(ctx context.Context, scope AccountScope, driveID uint, req dto.ResultUpdateRequest) (dto.ResultResponse, error)
	GetForDrive(ctx context.Context, scope AccountScope, driveID uint) (dto.DriveResultsResponse, error)
}

type resultService struct {
	drives        repository.DriveRepository
	students      repository.StudentRepository
	registrations repository.RegistrationRepository
	results       repository.ResultRepository
	activity      ActivityRecorder
	events        EventPublisher
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewResultService constructs the result service.
func NewResultService(
	drives repository.DriveRepository,
	students repository.StudentRepository,
	registrations repository.RegistrationRepository,
	results repository.ResultRepository,
	activity ActivityRecorder,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) ResultService {
	return &resultService{
		drives:        drives,
		students:      students,
		registrations: registrations,
		results:       results,
		activity:      activity,
		events:        events,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "result_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/placement-go-api/internal/service/result"),
		now:           time.Now,
	}
}

func (s *resultService) Submit(ctx context.Context, scope AccountScope, driveID uint, req dto.SubmitResultsRequest) (dto.ResultSummaryResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ResultSummaryResponse{}, apperrors.Validation(err.Error())
	}

	ctx, span := s.tracer.Start(ctx, "results.submit", trace.WithAttributes(
		attribute.Int("drive.id", int(driveID)),
		attribute.Int("results.count", len(req.Results)),
	))
	defer span.End()

	drive, err := s.drives.GetByID(ctx, scope.AccountID, driveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultSummaryResponse{}, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return dto.ResultSummaryResponse{}, apperrors.Internal(err)
	}

	if !drive.Status.Allows(models.OperationSubmitResults) {
		return dto.ResultSummaryResponse{}, apperrors.State(apperrors.CodeResultsNotOpen,
			fmt.Sprintf("drive in status %s does not accept result submission", drive.Status))
	}

	roster, err := s.rosterSet(ctx, scope.AccountID, driveID)
	if err != nil {
		return dto.ResultSummaryResponse{}, apperrors.Internal(err)
	}

	// Validate the whole batch before touching storage. One bad record
	// rejects the submission with nothing written.
	seen := make(map[uint]struct{}, len(req.Results))
	for _, record := range req.Results {
		if _, dup := seen[record.StudentID]; dup {
			return dto.ResultSummaryResponse{}, apperrors.BadRequest(apperrors.CodeDuplicateStudent,
				fmt.Sprintf("student %d appears more than once in the batch", record.StudentID))
		}
		seen[record.StudentID] = struct{}{}
		if err := s.validateRecord(roster, record.StudentID, record.Status, record.Score, record.CTC); err != nil {
			return dto.ResultSummaryResponse{}, err
		}
	}

	existing, err := s.results.ListByDrive(ctx, scope.AccountID, driveID)
	if err != nil {
		return dto.ResultSummaryResponse{}, apperrors.Internal(err)
	}

	now := s.now()
	plan := repository.ResultBatchPlan{
		AccountID:  scope.AccountID,
		DriveID:    driveID,
		Now:        now,
		Replace:    true,
		StatusFrom: drive.Status,
		StatusTo:   models.DriveStatusResultsPublished,
	}

	summary := dto.ResultSummaryResponse{
		DriveID:     driveID,
		DriveStatus: string(models.DriveStatusResultsPublished),
		Total:       len(req.Results),
	}

	selected := make(map[uint]struct{})
	for _, record := range req.Results {
		status := models.ResultStatus(strings.ToLower(strings.TrimSpace(record.Status)))
		result := models.DriveResult{
			AccountID:   scope.AccountID,
			DriveID:     driveID,
			StudentID:   record.StudentID,
			Status:      status,
			Score:       record.Score,
			CTC:         record.CTC,
			Feedback:    strings.TrimSpace(s.sanitizer.Sanitize(record.Feedback)),
			SubmittedBy: scope.ActorID,
			SubmittedAt: now,
			Version:     1,
		}
		plan.Results = append(plan.Results, result)

		switch status {
		case models.ResultStatusSelected:
			summary.Selected++
			selected[record.StudentID] = struct{}{}
			plan.Offers = append(plan.Offers, s.buildOffer(scope.AccountID, drive, record.StudentID, record.CTC, now))
		case models.ResultStatusRejected:
			summary.Rejected++
		case models.ResultStatusWaitlisted:
			summary.Waitlisted++
		}
	}

	// A resubmission may flip a previously selected student. Their offer for
	// this drive is removed and their placement flag recomputed from whatever
	// offers remain.
	for _, prior := range existing {
		if prior.Status != models.ResultStatusSelected {
			continue
		}
		if _, still := selected[prior.StudentID]; !still {
			plan.RemoveOfferStudentIDs = append(plan.RemoveOfferStudentIDs, prior.StudentID)
		}
	}

	if err := s.results.Apply(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return dto.ResultSummaryResponse{}, apperrors.Conflict(apperrors.CodeResultsNotOpen, "drive status changed concurrently, retry")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply_failed")
		return dto.ResultSummaryResponse{}, apperrors.Internal(err)
	}

	observability.ResultsProcessedTotal().WithLabelValues("submit").Add(float64(len(req.Results)))
	observability.DriveTransitionsTotal().WithLabelValues(string(drive.Status), string(models.DriveStatusResultsPublished)).Inc()
	s.recordActivity(ctx, scope, "submit_results", driveID, map[string]interface{}{
		"total":    summary.Total,
		"selected": summary.Selected,
	})
	s.notifyOutcomes(ctx, scope, drive, plan.Results)

	return summary, nil
}

func (s *resultService) UpdateOne(ctx context.Context, scope AccountScope, driveID uint, req dto.ResultUpdateRequest) (dto.ResultResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ResultResponse{}, apperrors.Validation(err.Error())
	}

	drive, err := s.drives.GetByID(ctx, scope.AccountID, driveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return dto.ResultResponse{}, apperrors.Internal(err)
	}

	if !drive.Status.Allows(models.OperationUpdateResult) {
		return dto.ResultResponse{}, apperrors.State(apperrors.CodeResultsNotOpen,
			fmt.Sprintf("drive in status %s does not accept result corrections", drive.Status))
	}

	roster, err := s.rosterSet(ctx, scope.AccountID, driveID)
	if err != nil {
		return dto.ResultResponse{}, apperrors.Internal(err)
	}
	if err := s.validateRecord(roster, req.StudentID, req.Status, req.Score, req.CTC); err != nil {
		return dto.ResultResponse{}, err
	}

	existing, err := s.results.GetByDriveStudent(ctx, scope.AccountID, driveID, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, apperrors.NotFound(apperrors.CodeResultNotFound, "no result recorded for this student")
		}
		return dto.ResultResponse{}, apperrors.Internal(err)
	}

	now := s.now()
	status := models.ResultStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	record := models.DriveResult{
		AccountID:   scope.AccountID,
		DriveID:     driveID,
		StudentID:   req.StudentID,
		Status:      status,
		Score:       req.Score,
		CTC:         req.CTC,
		Feedback:    strings.TrimSpace(s.sanitizer.Sanitize(req.Feedback)),
		SubmittedBy: scope.ActorID,
		SubmittedAt: now,
	}

	plan := repository.ResultBatchPlan{
		AccountID: scope.AccountID,
		DriveID:   driveID,
		Now:       now,
		Results:   []models.DriveResult{record},
	}
	if req.Version > 0 {
		version := req.Version
		plan.ExpectedVersion = &version
	}

	if status == models.ResultStatusSelected {
		plan.Offers = append(plan.Offers, s.buildOffer(scope.AccountID, drive, req.StudentID, req.CTC, now))
	} else if existing.Status == models.ResultStatusSelected {
		plan.RemoveOfferStudentIDs = append(plan.RemoveOfferStudentIDs, req.StudentID)
	}

	if err := s.results.Apply(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return dto.ResultResponse{}, apperrors.Conflict(apperrors.CodeResultConflict, "result was modified concurrently, refetch and retry")
		}
		return dto.ResultResponse{}, apperrors.Internal(err)
	}

	observability.ResultsProcessedTotal().WithLabelValues("update").Inc()
	s.recordActivity(ctx, scope, "update_result", driveID, map[string]interface{}{
		"student_id": req.StudentID,
		"status":     string(status),
	})

	updated, err := s.results.GetByDriveStudent(ctx, scope.AccountID, driveID, req.StudentID)
	if err != nil {
		return dto.ResultResponse{}, apperrors.Internal(err)
	}
	return dto.NewResultResponse(updated), nil
}

func (s *resultService) GetForDrive(ctx context.Context, scope AccountScope, driveID uint) (dto.DriveResultsResponse, error) {
	drive, err := s.drives.GetByID(ctx, scope.AccountID, driveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DriveResultsResponse{}, apperrors.NotFound(apperrors.CodeDriveNotFound, "drive not found")
		}
		return dto.DriveResultsResponse{}, apperrors.Internal(err)
	}

	if drive.Status != models.DriveStatusCompleted && drive.Status != models.DriveStatusResultsPublished {
		return dto.DriveResultsResponse{}, apperrors.State(apperrors.CodeResultsNotOpen,
			fmt.Sprintf("drive in status %s has no results to report", drive.Status))
	}

	results, err := s.results.ListByDrive(ctx, scope.AccountID, driveID)
	if err != nil {
		return dto.DriveResultsResponse{}, apperrors.Internal(err)
	}

	studentIDs := make([]uint, 0, len(results))
	for _, result := range results {
		studentIDs = append(studentIDs, result.StudentID)
	}
	students, err := s.students.GetByIDs(ctx, scope.AccountID, studentIDs)
	if err != nil {
		return dto.DriveResultsResponse{}, apperrors.Internal(err)
	}
	byID := make(map[uint]models.Student, len(students))
	for _, student := range students {
		byID[student.ID] = student
	}

	response := dto.DriveResultsResponse{
		DriveID:     driveID,
		DriveStatus: string(drive.Status),
		Results:     make([]dto.ResultDetailResponse, 0, len(results)),
	}

	var scoreSum, ctcSum float64
	var scoreCount, ctcCount int
	for _, result := range results {
		student := byID[result.StudentID]
		response.Results = append(response.Results, dto.ResultDetailResponse{
			ResultResponse: dto.NewResultResponse(result),
			Student: dto.StudentSummary{
				ID:         student.ID,
				RollNumber: student.RollNumber,
				Name:       student.Name,
				Branch:     student.Branch,
				CGPA:       student.CGPA,
			},
		})

		response.Stats.Total++
		switch result.Status {
		case models.ResultStatusSelected:
			response.Stats.Selected++
			if result.CTC != nil {
				ctcSum += *result.CTC
				ctcCount++
			}
		case models.ResultStatusRejected:
			response.Stats.Rejected++
		case models.ResultStatusWaitlisted:
			response.Stats.Waitlisted++
		}
		if result.Score != nil {
			scoreSum += *result.Score
			scoreCount++
		}
	}

	if response.Stats.Total > 0 {
		response.Stats.SelectionRate = float64(response.Stats.Selected) / float64(response.Stats.Total) * 100
	}
	if scoreCount > 0 {
		avg := scoreSum / float64(scoreCount)
		response.Stats.AverageScore = &avg
	}
	if ctcCount > 0 {
		avg := ctcSum / float64(ctcCount)
		response.Stats.AverageCTC = &avg
	}

	return response, nil
}

func (s *resultService) rosterSet(ctx context.Context, accountID, driveID uint) (map[uint]struct{}, error) {
	ids, err := s.registrations.StudentIDsByDrive(ctx, accountID, driveID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *resultService) validateRecord(roster map[uint]struct{}, studentID uint, status string, score, ctc *float64) error {
	if _, ok := roster[studentID]; !ok {
		return apperrors.BadRequest(apperrors.CodeStudentNotInRoster,
			fmt.Sprintf("student %d is not registered for this drive", studentID))
	}
	if !models.ResultStatus(strings.ToLower(strings.TrimSpace(status))).Valid() {
		return apperrors.BadRequest(apperrors.CodeInvalidResultStatus,
			fmt.Sprintf("unknown result status %q", status))
	}
	if score != nil && (*score < 0 || *score > 100) {
		return apperrors.BadRequest(apperrors.CodeScoreOutOfRange, "score must be between 0 and 100")
	}
	if ctc != nil && *ctc < 0 {
		return apperrors.BadRequest(apperrors.CodeInvalidCTC, "ctc must not be negative")
	}
	return nil
}

// buildOffer prefers the per-record CTC and falls back to the drive's
// advertised package.
func (s *resultService) buildOffer(accountID uint, drive models.Drive, studentID uint, ctc *float64, now time.Time) models.Offer {
	amount := drive.CTC
	if ctc != nil {
		amount = *ctc
	}
	return models.Offer{
		AccountID: accountID,
		StudentID: studentID,
		DriveID:   drive.ID,
		CompanyID: drive.CompanyID,
		JobTitle:  drive.JobTitle,
		CTC:       amount,
		Status:    models.OfferStatusAccepted,
		Date:      now,
	}
}

func (s *resultService) recordActivity(ctx context.Context, scope AccountScope, action string, driveID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := driveID
	_, err := s.activity.Record(ctx, scope, ActivityEntry{
		Action:     action,
		EntityType: "result",
		EntityID:   &id,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *resultService) notifyOutcomes(ctx context.Context, scope AccountScope, drive models.Drive, results []models.DriveResult) {
	if s.events == nil {
		return
	}
	for _, result := range results {
		message := fmt.Sprintf("Results for the %s drive are published: %s", drive.JobTitle, result.Status)
		_, err := s.events.Publish(ctx, scope.AccountID, dto.PlacementEventCreateRequest{
			UserID:  fmt.Sprintf("student:%d", result.StudentID),
			Type:    "results_published",
			Message: message,
		})
		if err != nil {
			s.logger.Warn().Err(err).Uint("student_id", result.StudentID).Msg("failed to publish result event")
		}
	}
}
