package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/models"
	"github.com/noah-isme/placement-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testScope() AccountScope {
	return AccountScope{AccountID: 1, ActorID: 42, Role: "tpo"}
}

func floatPtr(v float64) *float64 {
	return &v
}

func mustParse(t string) time.Time {
	parsed, err := time.Parse(time.RFC3339, t)
	if err != nil {
		panic(err)
	}
	return parsed
}

type fakeDriveRepo struct {
	drives          map[uint]models.Drive
	updateStatusErr error
	updatedStatus   []models.DriveStatus
}

func newFakeDriveRepo(drives ...models.Drive) *fakeDriveRepo {
	repo := &fakeDriveRepo{drives: make(map[uint]models.Drive)}
	for _, drive := range drives {
		repo.drives[drive.ID] = drive
	}
	return repo
}

func (f *fakeDriveRepo) List(_ context.Context, accountID uint, _ repository.DriveFilter) ([]models.Drive, int64, error) {
	var out []models.Drive
	for _, drive := range f.drives {
		if drive.AccountID == accountID {
			out = append(out, drive)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeDriveRepo) GetByID(_ context.Context, accountID, id uint) (models.Drive, error) {
	drive, ok := f.drives[id]
	if !ok || drive.AccountID != accountID {
		return models.Drive{}, gorm.ErrRecordNotFound
	}
	return drive, nil
}

func (f *fakeDriveRepo) Create(_ context.Context, drive *models.Drive) error {
	if drive.ID == 0 {
		drive.ID = uint(len(f.drives) + 1)
	}
	f.drives[drive.ID] = *drive
	return nil
}

func (f *fakeDriveRepo) Update(_ context.Context, drive *models.Drive) error {
	f.drives[drive.ID] = *drive
	return nil
}

func (f *fakeDriveRepo) UpdateStatus(_ context.Context, accountID, id uint, from, to models.DriveStatus) error {
	if f.updateStatusErr != nil {
		return f.updateStatusErr
	}
	drive, ok := f.drives[id]
	if !ok || drive.AccountID != accountID || drive.Status != from {
		return gorm.ErrRecordNotFound
	}
	drive.Status = to
	f.drives[id] = drive
	f.updatedStatus = append(f.updatedStatus, to)
	return nil
}

func (f *fakeDriveRepo) Delete(_ context.Context, accountID, id uint) error {
	drive, ok := f.drives[id]
	if !ok || drive.AccountID != accountID {
		return gorm.ErrRecordNotFound
	}
	delete(f.drives, id)
	return nil
}

func (f *fakeDriveRepo) CountByStatus(_ context.Context, accountID uint) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, drive := range f.drives {
		if drive.AccountID == accountID {
			counts[string(drive.Status)]++
		}
	}
	return counts, nil
}

type fakeStudentRepo struct {
	students map[uint]models.Student
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[uint]models.Student)}
	for _, student := range students {
		repo.students[student.ID] = student
	}
	return repo
}

func (f *fakeStudentRepo) List(_ context.Context, accountID uint, filter repository.StudentFilter) ([]models.Student, int64, error) {
	var out []models.Student
	for _, student := range f.students {
		if student.AccountID != accountID {
			continue
		}
		if filter.Branch != "" && student.Branch != filter.Branch {
			continue
		}
		if filter.Semester > 0 && student.Semester != filter.Semester {
			continue
		}
		out = append(out, student)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStudentRepo) GetByID(_ context.Context, accountID, id uint) (models.Student, error) {
	student, ok := f.students[id]
	if !ok || student.AccountID != accountID {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (f *fakeStudentRepo) GetByIDs(_ context.Context, accountID uint, ids []uint) ([]models.Student, error) {
	var out []models.Student
	for _, id := range ids {
		if student, ok := f.students[id]; ok && student.AccountID == accountID {
			out = append(out, student)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	if student.ID == 0 {
		student.ID = uint(len(f.students) + 1)
	}
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Update(_ context.Context, student *models.Student) error {
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) CountPlacement(_ context.Context, accountID uint) (int64, int64, error) {
	var total, placed int64
	for _, student := range f.students {
		if student.AccountID != accountID {
			continue
		}
		total++
		if student.IsPlaced {
			placed++
		}
	}
	return total, placed, nil
}

func (f *fakeStudentRepo) BranchStats(_ context.Context, accountID uint) ([]repository.BranchCount, error) {
	byBranch := make(map[string]*repository.BranchCount)
	for _, student := range f.students {
		if student.AccountID != accountID {
			continue
		}
		count, ok := byBranch[student.Branch]
		if !ok {
			count = &repository.BranchCount{Branch: student.Branch}
			byBranch[student.Branch] = count
		}
		count.Total++
		if student.IsPlaced {
			count.Placed++
		}
	}
	out := make([]repository.BranchCount, 0, len(byBranch))
	for _, count := range byBranch {
		out = append(out, *count)
	}
	return out, nil
}

type fakeCompanyRepo struct {
	companies map[uint]models.Company
}

func newFakeCompanyRepo(companies ...models.Company) *fakeCompanyRepo {
	repo := &fakeCompanyRepo{companies: make(map[uint]models.Company)}
	for _, company := range companies {
		repo.companies[company.ID] = company
	}
	return repo
}

func (f *fakeCompanyRepo) List(_ context.Context, accountID uint, _ repository.CompanyFilter) ([]models.Company, int64, error) {
	var out []models.Company
	for _, company := range f.companies {
		if company.AccountID == accountID {
			out = append(out, company)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCompanyRepo) GetByID(_ context.Context, accountID, id uint) (models.Company, error) {
	company, ok := f.companies[id]
	if !ok || company.AccountID != accountID {
		return models.Company{}, gorm.ErrRecordNotFound
	}
	return company, nil
}

func (f *fakeCompanyRepo) Create(_ context.Context, company *models.Company) error {
	if company.ID == 0 {
		company.ID = uint(len(f.companies) + 1)
	}
	f.companies[company.ID] = *company
	return nil
}

func (f *fakeCompanyRepo) UpdateStatus(_ context.Context, accountID, id uint, status models.CompanyStatus) (models.Company, error) {
	company, ok := f.companies[id]
	if !ok || company.AccountID != accountID {
		return models.Company{}, gorm.ErrRecordNotFound
	}
	company.Status = status
	f.companies[id] = company
	return company, nil
}

type fakeRegistrationRepo struct {
	registrations []models.DriveRegistration
	registerErr   error
}

func (f *fakeRegistrationRepo) Register(_ context.Context, registration *models.DriveRegistration) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	for _, existing := range f.registrations {
		if existing.DriveID == registration.DriveID && existing.StudentID == registration.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	registration.ID = uint(len(f.registrations) + 1)
	f.registrations = append(f.registrations, *registration)
	return nil
}

func (f *fakeRegistrationRepo) Unregister(_ context.Context, accountID, driveID, studentID uint) error {
	for i, existing := range f.registrations {
		if existing.AccountID == accountID && existing.DriveID == driveID && existing.StudentID == studentID {
			f.registrations = append(f.registrations[:i], f.registrations[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRegistrationRepo) Exists(_ context.Context, accountID, driveID, studentID uint) (bool, error) {
	for _, existing := range f.registrations {
		if existing.AccountID == accountID && existing.DriveID == driveID && existing.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRegistrationRepo) ListByDrive(_ context.Context, accountID, driveID uint) ([]models.DriveRegistration, error) {
	var out []models.DriveRegistration
	for _, existing := range f.registrations {
		if existing.AccountID == accountID && existing.DriveID == driveID {
			out = append(out, existing)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) ListByStudent(_ context.Context, accountID, studentID uint) ([]models.DriveRegistration, error) {
	var out []models.DriveRegistration
	for _, existing := range f.registrations {
		if existing.AccountID == accountID && existing.StudentID == studentID {
			out = append(out, existing)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) StudentIDsByDrive(_ context.Context, accountID, driveID uint) ([]uint, error) {
	var ids []uint
	for _, existing := range f.registrations {
		if existing.AccountID == accountID && existing.DriveID == driveID {
			ids = append(ids, existing.StudentID)
		}
	}
	return ids, nil
}

func (f *fakeRegistrationRepo) CountByDrive(_ context.Context, accountID, driveID uint) (int64, error) {
	ids, _ := f.StudentIDsByDrive(context.Background(), accountID, driveID)
	return int64(len(ids)), nil
}

type fakeResultRepo struct {
	results      []models.DriveResult
	offers       []models.Offer
	appliedPlans []repository.ResultBatchPlan
	applyErr     error
	offerStats   repository.OfferStats
}

func (f *fakeResultRepo) ListByDrive(_ context.Context, accountID, driveID uint) ([]models.DriveResult, error) {
	var out []models.DriveResult
	for _, result := range f.results {
		if result.AccountID == accountID && result.DriveID == driveID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (f *fakeResultRepo) GetByDriveStudent(_ context.Context, accountID, driveID, studentID uint) (models.DriveResult, error) {
	for _, result := range f.results {
		if result.AccountID == accountID && result.DriveID == driveID && result.StudentID == studentID {
			return result, nil
		}
	}
	return models.DriveResult{}, gorm.ErrRecordNotFound
}

func (f *fakeResultRepo) Apply(_ context.Context, plan repository.ResultBatchPlan) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.appliedPlans = append(f.appliedPlans, plan)
	if plan.Replace {
		kept := f.results[:0]
		for _, result := range f.results {
			if !(result.AccountID == plan.AccountID && result.DriveID == plan.DriveID) {
				kept = append(kept, result)
			}
		}
		f.results = append(kept, plan.Results...)
	} else if len(plan.Results) == 1 {
		record := plan.Results[0]
		replaced := false
		for i, existing := range f.results {
			if existing.AccountID == record.AccountID && existing.DriveID == record.DriveID && existing.StudentID == record.StudentID {
				record.Version = existing.Version + 1
				f.results[i] = record
				replaced = true
				break
			}
		}
		if !replaced {
			record.Version = 1
			f.results = append(f.results, record)
		}
	}
	return nil
}

func (f *fakeResultRepo) OfferStats(_ context.Context, _ uint) (repository.OfferStats, error) {
	return f.offerStats, nil
}

func (f *fakeResultRepo) ListOffersByStudent(_ context.Context, accountID, studentID uint) ([]models.Offer, error) {
	var out []models.Offer
	for _, offer := range f.offers {
		if offer.AccountID == accountID && offer.StudentID == studentID {
			out = append(out, offer)
		}
	}
	return out, nil
}

type stubRecorder struct {
	entries []ActivityEntry
}

func (s *stubRecorder) Record(_ context.Context, _ AccountScope, entry ActivityEntry) (dto.ActivityResponse, error) {
	s.entries = append(s.entries, entry)
	return dto.ActivityResponse{}, nil
}

type stubPublisher struct {
	published []dto.PlacementEventCreateRequest
}

func (s *stubPublisher) Publish(_ context.Context, _ uint, payload dto.PlacementEventCreateRequest) (dto.PlacementEventResponse, error) {
	s.published = append(s.published, payload)
	return dto.PlacementEventResponse{}, nil
}
