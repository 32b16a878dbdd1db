package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/models"
	"github.com/noah-isme/placement-go-api/internal/repository"
)

func resultFixture() (models.Drive, []models.Student, time.Time) {
	now := mustParse("2026-03-10T09:00:00Z")
	drive := models.Drive{
		ID:                   1,
		AccountID:            1,
		CompanyID:            7,
		JobTitle:             "Backend Engineer",
		CTC:                  12.5,
		RegistrationDeadline: now.Add(-96 * time.Hour),
		DriveDate:            now.Add(-48 * time.Hour),
		Status:               models.DriveStatusCompleted,
	}
	students := []models.Student{
		{ID: 5, AccountID: 1, RollNumber: "CS-101", Name: "Asha Rao", Branch: "CSE", CGPA: 8.1},
		{ID: 6, AccountID: 1, RollNumber: "CS-102", Name: "Vikram Shah", Branch: "CSE", CGPA: 7.4},
		{ID: 7, AccountID: 1, RollNumber: "EC-201", Name: "Meera Iyer", Branch: "ECE", CGPA: 8.8},
	}
	return drive, students, now
}

func newResultServiceForTest(drive models.Drive, students []models.Student, now time.Time) (*resultService, *fakeResultRepo, *stubRecorder, *stubPublisher) {
	registrations := &fakeRegistrationRepo{}
	for _, student := range students {
		registrations.registrations = append(registrations.registrations, models.DriveRegistration{
			AccountID: drive.AccountID,
			DriveID:   drive.ID,
			StudentID: student.ID,
			Status:    models.RegistrationStatusRegistered,
		})
	}

	results := &fakeResultRepo{}
	recorder := &stubRecorder{}
	publisher := &stubPublisher{}
	svc := NewResultService(
		newFakeDriveRepo(drive),
		newFakeStudentRepo(students...),
		registrations,
		results,
		recorder,
		publisher,
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	).(*resultService)
	svc.now = func() time.Time { return now }
	return svc, results, recorder, publisher
}

func TestSubmitResultsPublishesDriveAndBuildsOffers(t *testing.T) {
	drive, students, now := resultFixture()
	svc, results, recorder, publisher := newResultServiceForTest(drive, students, now)

	summary, err := svc.Submit(context.Background(), testScope(), drive.ID, dto.SubmitResultsRequest{
		Results: []dto.ResultRecordRequest{
			{StudentID: 5, Status: "selected", Score: floatPtr(92), CTC: floatPtr(14)},
			{StudentID: 6, Status: "rejected", Score: floatPtr(55)},
			{StudentID: 7, Status: "waitlisted"},
		},
	})

	require.NoError(t, err)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 1, summary.Selected)
	require.Equal(t, 1, summary.Rejected)
	require.Equal(t, 1, summary.Waitlisted)
	require.Equal(t, string(models.DriveStatusResultsPublished), summary.DriveStatus)

	require.Len(t, results.appliedPlans, 1)
	plan := results.appliedPlans[0]
	require.True(t, plan.Replace)
	require.Equal(t, models.DriveStatusCompleted, plan.StatusFrom)
	require.Equal(t, models.DriveStatusResultsPublished, plan.StatusTo)
	require.Len(t, plan.Offers, 1)
	require.Equal(t, uint(5), plan.Offers[0].StudentID)
	require.Equal(t, 14.0, plan.Offers[0].CTC)
	require.Equal(t, models.OfferStatusAccepted, plan.Offers[0].Status)

	require.Len(t, recorder.entries, 1)
	require.Equal(t, "submit_results", recorder.entries[0].Action)
	require.Len(t, publisher.published, 3)
}

func TestSubmitResultsOfferFallsBackToDriveCTC(t *testing.T) {
	drive, students, now := resultFixture()
	svc, results, _, _ := newResultServiceForTest(drive, students, now)

	_, err := svc.Submit(context.Background(), testScope(), drive.ID, dto.SubmitResultsRequest{
		Results: []dto.ResultRecordRequest{{StudentID: 5, Status: "selected"}},
	})

	require.NoError(t, err)
	require.Len(t, results.appliedPlans, 1)
	require.Equal(t, drive.CTC, results.appliedPlans[0].Offers[0].CTC)
}

func TestSubmitResultsRejectsWholeBatchOnOneBadRecord(t *testing.T) {
	drive, students, now := resultFixture()

	cases := []struct {
		name     string
		record   dto.ResultRecordRequest
		wantCode string
	}{
		{"student outside roster", dto.ResultRecordRequest{StudentID: 99, Status: "selected"}, apperrors.CodeStudentNotInRoster},
		{"unknown status", dto.ResultRecordRequest{StudentID: 6, Status: "maybe"}, apperrors.CodeInvalidResultStatus},
		{"score above range", dto.ResultRecordRequest{StudentID: 6, Status: "selected", Score: floatPtr(101)}, apperrors.CodeScoreOutOfRange},
		{"negative ctc", dto.ResultRecordRequest{StudentID: 6, Status: "selected", CTC: floatPtr(-1)}, apperrors.CodeInvalidCTC},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, results, _, _ := newResultServiceForTest(drive, students, now)

			_, err := svc.Submit(context.Background(), testScope(), drive.ID, dto.SubmitResultsRequest{
				Results: []dto.ResultRecordRequest{
					{StudentID: 5, Status: "selected"},
					tc.record,
				},
			})

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			require.Equal(t, tc.wantCode, appErr.Code)
			require.Empty(t, results.appliedPlans)
		})
	}
}

func TestSubmitResultsRejectsDuplicateStudent(t *testing.T) {
	drive, students, now := resultFixture()
	svc, results, _, _ := newResultServiceForTest(drive, students, now)

	_, err := svc.Submit(context.Background(), testScope(), drive.ID, dto.SubmitResultsRequest{
		Results: []dto.ResultRecordRequest{
			{StudentID: 5, Status: "selected"},
			{StudentID: 5, Status: "rejected"},
		},
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeDuplicateStudent, appErr.Code)
	require.Empty(t, results.appliedPlans)
}

func TestSubmitResultsRequiresCompletedDrive(t *testing.T) {
	drive, students, now := resultFixture()
	drive.Status = models.DriveStatusOngoing
	svc, _, _, _ := newResultServiceForTest(drive, students, now)

	_, err := svc.Submit(context.Background(), testScope(), drive.ID, dto.SubmitResultsRequest{
		Results: []dto.ResultRecordRequest{{StudentID: 5, Status: "selected"}},
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeResultsNotOpen, appErr.Code)
}

func TestSubmitResultsRemovesOffersForReversedSelections(t *testing.T) {
	drive, students, now := resultFixture()
	drive.Status = models.DriveStatusCompleted
	svc, results, _, _ := newResultServiceForTest(drive, students, now)
	results.results = []models.DriveResult{
		{AccountID: 1, DriveID: drive.ID, StudentID: 6, Status: models.ResultStatusSelected, Version: 1},
	}

	_, err := svc.Submit(context.Background(), testScope(), drive.ID, dto.SubmitResultsRequest{
		Results: []dto.ResultRecordRequest{
			{StudentID: 5, Status: "selected"},
			{StudentID: 6, Status: "rejected"},
		},
	})

	require.NoError(t, err)
	require.Len(t, results.appliedPlans, 1)
	require.Equal(t, []uint{6}, results.appliedPlans[0].RemoveOfferStudentIDs)
}

func TestSubmitResultsConcurrentStatusChange(t *testing.T) {
	drive, students, now := resultFixture()
	svc, results, _, _ := newResultServiceForTest(drive, students, now)
	results.applyErr = repository.ErrStateChanged

	_, err := svc.Submit(context.Background(), testScope(), drive.ID, dto.SubmitResultsRequest{
		Results: []dto.ResultRecordRequest{{StudentID: 5, Status: "selected"}},
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeResultsNotOpen, appErr.Code)
	require.Equal(t, 409, appErr.Status)
}

func TestUpdateOneCorrectsRecordAndBumpsVersion(t *testing.T) {
	drive, students, now := resultFixture()
	drive.Status = models.DriveStatusResultsPublished
	svc, results, _, _ := newResultServiceForTest(drive, students, now)
	results.results = []models.DriveResult{
		{AccountID: 1, DriveID: drive.ID, StudentID: 5, Status: models.ResultStatusRejected, Version: 1},
	}

	updated, err := svc.UpdateOne(context.Background(), testScope(), drive.ID, dto.ResultUpdateRequest{
		StudentID: 5,
		Status:    "selected",
		CTC:       floatPtr(13),
		Version:   1,
	})

	require.NoError(t, err)
	require.Equal(t, "selected", updated.Status)
	require.Equal(t, 2, updated.Version)
	require.Len(t, results.appliedPlans, 1)
	plan := results.appliedPlans[0]
	require.NotNil(t, plan.ExpectedVersion)
	require.Equal(t, 1, *plan.ExpectedVersion)
	require.Len(t, plan.Offers, 1)
	require.Empty(t, plan.RemoveOfferStudentIDs)
}

func TestUpdateOneReversalRemovesOffer(t *testing.T) {
	drive, students, now := resultFixture()
	drive.Status = models.DriveStatusResultsPublished
	svc, results, _, _ := newResultServiceForTest(drive, students, now)
	results.results = []models.DriveResult{
		{AccountID: 1, DriveID: drive.ID, StudentID: 5, Status: models.ResultStatusSelected, Version: 2},
	}

	_, err := svc.UpdateOne(context.Background(), testScope(), drive.ID, dto.ResultUpdateRequest{
		StudentID: 5,
		Status:    "rejected",
	})

	require.NoError(t, err)
	require.Len(t, results.appliedPlans, 1)
	require.Equal(t, []uint{5}, results.appliedPlans[0].RemoveOfferStudentIDs)
	require.Empty(t, results.appliedPlans[0].Offers)
}

func TestUpdateOneVersionConflict(t *testing.T) {
	drive, students, now := resultFixture()
	drive.Status = models.DriveStatusResultsPublished
	svc, results, _, _ := newResultServiceForTest(drive, students, now)
	results.results = []models.DriveResult{
		{AccountID: 1, DriveID: drive.ID, StudentID: 5, Status: models.ResultStatusRejected, Version: 3},
	}
	results.applyErr = repository.ErrVersionConflict

	_, err := svc.UpdateOne(context.Background(), testScope(), drive.ID, dto.ResultUpdateRequest{
		StudentID: 5,
		Status:    "selected",
		Version:   2,
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeResultConflict, appErr.Code)
}

func TestUpdateOneUnknownResult(t *testing.T) {
	drive, students, now := resultFixture()
	drive.Status = models.DriveStatusResultsPublished
	svc, _, _, _ := newResultServiceForTest(drive, students, now)

	_, err := svc.UpdateOne(context.Background(), testScope(), drive.ID, dto.ResultUpdateRequest{
		StudentID: 5,
		Status:    "selected",
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeResultNotFound, appErr.Code)
}

func TestGetForDriveComputesStats(t *testing.T) {
	drive, students, now := resultFixture()
	drive.Status = models.DriveStatusResultsPublished
	svc, results, _, _ := newResultServiceForTest(drive, students, now)
	results.results = []models.DriveResult{
		{AccountID: 1, DriveID: drive.ID, StudentID: 5, Status: models.ResultStatusSelected, Score: floatPtr(90), CTC: floatPtr(14), Version: 1},
		{AccountID: 1, DriveID: drive.ID, StudentID: 6, Status: models.ResultStatusRejected, Score: floatPtr(50), Version: 1},
		{AccountID: 1, DriveID: drive.ID, StudentID: 7, Status: models.ResultStatusWaitlisted, Version: 1},
	}

	response, err := svc.GetForDrive(context.Background(), testScope(), drive.ID)

	require.NoError(t, err)
	require.Len(t, response.Results, 3)
	require.Equal(t, 3, response.Stats.Total)
	require.Equal(t, 1, response.Stats.Selected)
	require.InDelta(t, 33.333, response.Stats.SelectionRate, 0.01)
	require.NotNil(t, response.Stats.AverageScore)
	require.InDelta(t, 70.0, *response.Stats.AverageScore, 0.001)
	require.NotNil(t, response.Stats.AverageCTC)
	require.InDelta(t, 14.0, *response.Stats.AverageCTC, 0.001)
	require.Equal(t, "Asha Rao", response.Results[0].Student.Name)
}

func TestGetForDriveBeforeCompletion(t *testing.T) {
	drive, students, now := resultFixture()
	drive.Status = models.DriveStatusOpen
	svc, _, _, _ := newResultServiceForTest(drive, students, now)

	_, err := svc.GetForDrive(context.Background(), testScope(), drive.ID)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeResultsNotOpen, appErr.Code)
}
