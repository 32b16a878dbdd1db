package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// RegistrationRepository maintains the Drive↔Student registration relation.
// The append-if-absent semantics rely on the unique (drive, student) index, so
// concurrent duplicate registrations surface as gorm.ErrDuplicatedKey instead
// of racing a read-then-write check.
type RegistrationRepository interface {
	Register(ctx context.Context, registration *models.DriveRegistration) error
	Unregister(ctx context.Context, accountID, driveID, studentID uint) error
	Exists(ctx context.Context, accountID, driveID, studentID uint) (bool, error)
	ListByDrive(ctx context.Context, accountID, driveID uint) ([]models.DriveRegistration, error)
	ListByStudent(ctx context.Context, accountID, studentID uint) ([]models.DriveRegistration, error)
	StudentIDsByDrive(ctx context.Context, accountID, driveID uint) ([]uint, error)
	CountByDrive(ctx context.Context, accountID, driveID uint) (int64, error)
}

type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository instantiates a GORM-backed registration repository.
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Register(ctx context.Context, registration *models.DriveRegistration) error {
	return r.db.WithContext(ctx).Create(registration).Error
}

func (r *registrationRepository) Unregister(ctx context.Context, accountID, driveID, studentID uint) error {
	result := r.db.WithContext(ctx).
		Where("account_id = ? AND drive_id = ? AND student_id = ?", accountID, driveID, studentID).
		Delete(&models.DriveRegistration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *registrationRepository) Exists(ctx context.Context, accountID, driveID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DriveRegistration{}).
		Where("account_id = ? AND drive_id = ? AND student_id = ?", accountID, driveID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *registrationRepository) ListByDrive(ctx context.Context, accountID, driveID uint) ([]models.DriveRegistration, error) {
	var registrations []models.DriveRegistration
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND drive_id = ?", accountID, driveID).
		Order("registered_at ASC").
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *registrationRepository) ListByStudent(ctx context.Context, accountID, studentID uint) ([]models.DriveRegistration, error) {
	var registrations []models.DriveRegistration
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND student_id = ?", accountID, studentID).
		Order("registered_at ASC").
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *registrationRepository) StudentIDsByDrive(ctx context.Context, accountID, driveID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.DriveRegistration{}).
		Where("account_id = ? AND drive_id = ?", accountID, driveID).
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *registrationRepository) CountByDrive(ctx context.Context, accountID, driveID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DriveRegistration{}).
		Where("account_id = ? AND drive_id = ?", accountID, driveID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
