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
)

func newDriveServiceForTest(drives *fakeDriveRepo, companies *fakeCompanyRepo, students *fakeStudentRepo, registrations *fakeRegistrationRepo) (*driveService, *stubRecorder) {
	recorder := &stubRecorder{}
	svc := NewDriveService(
		drives,
		companies,
		students,
		registrations,
		recorder,
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	).(*driveService)
	svc.now = func() time.Time { return mustParse("2026-03-01T10:00:00Z") }
	return svc, recorder
}

func approvedCompany() models.Company {
	return models.Company{ID: 7, AccountID: 1, Name: "Acme Systems", Status: models.CompanyStatusApproved}
}

func TestDriveCreateStartsInDraft(t *testing.T) {
	drives := newFakeDriveRepo()
	svc, recorder := newDriveServiceForTest(drives, newFakeCompanyRepo(approvedCompany()), newFakeStudentRepo(), &fakeRegistrationRepo{})

	response, err := svc.Create(context.Background(), testScope(), dto.DriveCreateRequest{
		CompanyID:            7,
		JobTitle:             "Backend Engineer",
		MinCGPA:              7.0,
		MaxBacklogs:          1,
		EligibleBranches:     []string{"CSE", " ECE "},
		EligibleSemesters:    []int{7, 8},
		RequiredSkills:       []string{"Go", "SQL"},
		CTC:                  12.5,
		RegistrationDeadline: "2026-04-01T18:00:00Z",
		DriveDate:            "2026-04-10T09:00:00Z",
	})

	require.NoError(t, err)
	require.Equal(t, string(models.DriveStatusDraft), response.Status)
	require.Equal(t, "Acme Systems", response.CompanyName)
	require.Equal(t, []string{"CSE", "ECE"}, response.EligibleBranches)
	require.Len(t, recorder.entries, 1)
	require.Equal(t, "create", recorder.entries[0].Action)
}

func TestDriveCreateRejectsDeadlineAfterDriveDate(t *testing.T) {
	svc, _ := newDriveServiceForTest(newFakeDriveRepo(), newFakeCompanyRepo(approvedCompany()), newFakeStudentRepo(), &fakeRegistrationRepo{})

	_, err := svc.Create(context.Background(), testScope(), dto.DriveCreateRequest{
		CompanyID:            7,
		JobTitle:             "Backend Engineer",
		RegistrationDeadline: "2026-04-10T09:00:00Z",
		DriveDate:            "2026-04-01T18:00:00Z",
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeInvalidSchedule, appErr.Code)
}

func TestDriveCreateRejectsWindowInThePast(t *testing.T) {
	svc, _ := newDriveServiceForTest(newFakeDriveRepo(), newFakeCompanyRepo(approvedCompany()), newFakeStudentRepo(), &fakeRegistrationRepo{})

	// Deadline and drive date are both ordered correctly but behind the clock.
	_, err := svc.Create(context.Background(), testScope(), dto.DriveCreateRequest{
		CompanyID:            7,
		JobTitle:             "Backend Engineer",
		RegistrationDeadline: "2026-02-01T18:00:00Z",
		DriveDate:            "2026-02-10T09:00:00Z",
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeInvalidSchedule, appErr.Code)
}

func TestDriveUpdateRejectsDeadlineBehindClock(t *testing.T) {
	drive := models.Drive{
		ID:                   1,
		AccountID:            1,
		JobTitle:             "Backend Engineer",
		Status:               models.DriveStatusDraft,
		RegistrationDeadline: mustParse("2026-04-01T18:00:00Z"),
		DriveDate:            mustParse("2026-04-10T09:00:00Z"),
	}
	svc, _ := newDriveServiceForTest(newFakeDriveRepo(drive), newFakeCompanyRepo(), newFakeStudentRepo(), &fakeRegistrationRepo{})

	past := "2026-02-01T18:00:00Z"
	_, err := svc.Update(context.Background(), testScope(), 1, dto.DriveUpdateRequest{RegistrationDeadline: &past})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeInvalidSchedule, appErr.Code)
}

func TestDriveCreateRequiresApprovedCompany(t *testing.T) {
	company := approvedCompany()
	company.Status = models.CompanyStatusPending
	svc, _ := newDriveServiceForTest(newFakeDriveRepo(), newFakeCompanyRepo(company), newFakeStudentRepo(), &fakeRegistrationRepo{})

	_, err := svc.Create(context.Background(), testScope(), dto.DriveCreateRequest{
		CompanyID:            7,
		JobTitle:             "Backend Engineer",
		RegistrationDeadline: "2026-04-01T18:00:00Z",
		DriveDate:            "2026-04-10T09:00:00Z",
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeCompanyNotApproved, appErr.Code)
}

func TestDriveTransitionFollowsLifecycle(t *testing.T) {
	drive := models.Drive{
		ID:        1,
		AccountID: 1,
		JobTitle:  "Backend Engineer",
		Status:    models.DriveStatusDraft,
	}
	drives := newFakeDriveRepo(drive)
	svc, recorder := newDriveServiceForTest(drives, newFakeCompanyRepo(), newFakeStudentRepo(), &fakeRegistrationRepo{})

	response, err := svc.Transition(context.Background(), testScope(), 1, dto.DriveTransitionRequest{Status: "published"})
	require.NoError(t, err)
	require.Equal(t, string(models.DriveStatusPublished), response.Status)
	require.Len(t, recorder.entries, 1)

	_, err = svc.Transition(context.Background(), testScope(), 1, dto.DriveTransitionRequest{Status: "completed"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeInvalidTransition, appErr.Code)
}

func TestDriveTransitionUnknownStatus(t *testing.T) {
	drives := newFakeDriveRepo(models.Drive{ID: 1, AccountID: 1, Status: models.DriveStatusDraft})
	svc, _ := newDriveServiceForTest(drives, newFakeCompanyRepo(), newFakeStudentRepo(), &fakeRegistrationRepo{})

	_, err := svc.Transition(context.Background(), testScope(), 1, dto.DriveTransitionRequest{Status: "archived"})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestDriveTransitionConcurrentLoserGetsConflict(t *testing.T) {
	drives := newFakeDriveRepo(models.Drive{ID: 1, AccountID: 1, Status: models.DriveStatusOpen})
	svc, _ := newDriveServiceForTest(drives, newFakeCompanyRepo(), newFakeStudentRepo(), &fakeRegistrationRepo{})

	// Another request wins the race after this one reads the drive.
	current := drives.drives[1]
	current.Status = models.DriveStatusCancelled
	drives.drives[1] = current

	_, err := svc.Transition(context.Background(), testScope(), 1, dto.DriveTransitionRequest{Status: "ongoing"})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeInvalidTransition, appErr.Code)
}

func TestDriveDeleteBlockedByRegistrations(t *testing.T) {
	drives := newFakeDriveRepo(models.Drive{ID: 1, AccountID: 1, Status: models.DriveStatusDraft})
	registrations := &fakeRegistrationRepo{registrations: []models.DriveRegistration{
		{AccountID: 1, DriveID: 1, StudentID: 5},
	}}
	svc, _ := newDriveServiceForTest(drives, newFakeCompanyRepo(), newFakeStudentRepo(), registrations)

	err := svc.Delete(context.Background(), testScope(), 1)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeDriveHasRegistrations, appErr.Code)
}

func TestDriveDeleteBlockedAfterPublishWindow(t *testing.T) {
	drives := newFakeDriveRepo(models.Drive{ID: 1, AccountID: 1, Status: models.DriveStatusOpen})
	svc, _ := newDriveServiceForTest(drives, newFakeCompanyRepo(), newFakeStudentRepo(), &fakeRegistrationRepo{})

	err := svc.Delete(context.Background(), testScope(), 1)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeDriveNotDeletable, appErr.Code)
}

func TestEligibleStudentsRankedBySkillMatch(t *testing.T) {
	drive := models.Drive{ID: 1, AccountID: 1, MinCGPA: 7.0, Status: models.DriveStatusOpen}
	drive.SetRequiredSkills([]string{"go", "sql"})

	strong := models.Student{ID: 5, AccountID: 1, RollNumber: "CS-101", CGPA: 8.0, Semester: 7, Branch: "CSE"}
	strong.SetTechnicalSkills([]string{"Golang", "PostgreSQL"})
	weak := models.Student{ID: 6, AccountID: 1, RollNumber: "CS-102", CGPA: 7.5, Semester: 7, Branch: "CSE"}
	weak.SetTechnicalSkills([]string{"Java"})
	ineligible := models.Student{ID: 7, AccountID: 1, RollNumber: "CS-103", CGPA: 5.0, Semester: 7, Branch: "CSE"}

	svc, _ := newDriveServiceForTest(
		newFakeDriveRepo(drive),
		newFakeCompanyRepo(),
		newFakeStudentRepo(strong, weak, ineligible),
		&fakeRegistrationRepo{},
	)

	response, err := svc.EligibleStudents(context.Background(), testScope(), 1, dto.EligibleStudentsRequest{})

	require.NoError(t, err)
	require.Equal(t, 2, response.Total)
	require.Len(t, response.Students, 2)
	require.Equal(t, uint(5), response.Students[0].ID)
	require.InDelta(t, 100.0, response.Students[0].SkillMatchScore, 0.001)
	require.Equal(t, uint(6), response.Students[1].ID)
	require.Zero(t, response.Students[1].SkillMatchScore)
	require.Equal(t, 7.0, response.Criteria.MinCGPA)
}

func TestEligibleStudentsExcludePlaced(t *testing.T) {
	drive := models.Drive{ID: 1, AccountID: 1, MinCGPA: 7.0, Status: models.DriveStatusOpen}

	free := models.Student{ID: 5, AccountID: 1, RollNumber: "CS-101", CGPA: 8.0}
	placed := models.Student{ID: 6, AccountID: 1, RollNumber: "CS-102", CGPA: 9.5, IsPlaced: true}

	svc, _ := newDriveServiceForTest(
		newFakeDriveRepo(drive),
		newFakeCompanyRepo(),
		newFakeStudentRepo(free, placed),
		&fakeRegistrationRepo{},
	)

	response, err := svc.EligibleStudents(context.Background(), testScope(), 1, dto.EligibleStudentsRequest{})

	require.NoError(t, err)
	require.Equal(t, 1, response.Total)
	require.Equal(t, uint(5), response.Students[0].ID)
}

func TestEligibleStudentsPagination(t *testing.T) {
	drive := models.Drive{ID: 1, AccountID: 1, Status: models.DriveStatusOpen}
	a := models.Student{ID: 5, AccountID: 1, RollNumber: "CS-101", CGPA: 8.0}
	b := models.Student{ID: 6, AccountID: 1, RollNumber: "CS-102", CGPA: 8.0}
	c := models.Student{ID: 7, AccountID: 1, RollNumber: "CS-103", CGPA: 8.0}

	svc, _ := newDriveServiceForTest(
		newFakeDriveRepo(drive),
		newFakeCompanyRepo(),
		newFakeStudentRepo(a, b, c),
		&fakeRegistrationRepo{},
	)

	response, err := svc.EligibleStudents(context.Background(), testScope(), 1, dto.EligibleStudentsRequest{Page: 2, PageSize: 2})

	require.NoError(t, err)
	require.Equal(t, 3, response.Total)
	require.Len(t, response.Students, 1)
	require.Equal(t, "CS-103", response.Students[0].RollNumber)
}
