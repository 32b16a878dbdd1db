package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// DriveFilter describes pagination & filtering options for drive listings.
type DriveFilter struct {
	Status    models.DriveStatus
	CompanyID uint
	Search    string
	Sort      string
	Page      int
	PageSize  int
}

// DriveRepository defines persistence operations for placement drives. Every
// query is scoped by account id.
type DriveRepository interface {
	List(ctx context.Context, accountID uint, filter DriveFilter) ([]models.Drive, int64, error)
	GetByID(ctx context.Context, accountID, id uint) (models.Drive, error)
	Create(ctx context.Context, drive *models.Drive) error
	Update(ctx context.Context, drive *models.Drive) error
	// UpdateStatus performs a conditional transition: the row is updated only
	// when it still holds the expected current status, so two concurrent
	// transitions cannot both win.
	UpdateStatus(ctx context.Context, accountID, id uint, from, to models.DriveStatus) error
	Delete(ctx context.Context, accountID, id uint) error
	CountByStatus(ctx context.Context, accountID uint) (map[string]int64, error)
}

type driveRepository struct {
	db *gorm.DB
}

// NewDriveRepository instantiates a GORM-backed drive repository.
func NewDriveRepository(db *gorm.DB) DriveRepository {
	return &driveRepository{db: db}
}

func (r *driveRepository) List(ctx context.Context, accountID uint, filter DriveFilter) ([]models.Drive, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Drive{}).Where("account_id = ?", accountID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CompanyID > 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(job_title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeDriveSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var drives []models.Drive
	if err := query.Preload("Company").Find(&drives).Error; err != nil {
		return nil, 0, err
	}

	return drives, total, nil
}

func (r *driveRepository) GetByID(ctx context.Context, accountID, id uint) (models.Drive, error) {
	var drive models.Drive
	err := r.db.WithContext(ctx).
		Preload("Company").
		Where("account_id = ?", accountID).
		First(&drive, id).Error
	if err != nil {
		return models.Drive{}, err
	}
	return drive, nil
}

func (r *driveRepository) Create(ctx context.Context, drive *models.Drive) error {
	return r.db.WithContext(ctx).Create(drive).Error
}

func (r *driveRepository) Update(ctx context.Context, drive *models.Drive) error {
	return r.db.WithContext(ctx).Save(drive).Error
}

func (r *driveRepository) UpdateStatus(ctx context.Context, accountID, id uint, from, to models.DriveStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Drive{}).
		Where("id = ? AND account_id = ? AND status = ?", id, accountID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *driveRepository) Delete(ctx context.Context, accountID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.Drive{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *driveRepository) CountByStatus(ctx context.Context, accountID uint) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&models.Drive{}).
		Select("status, COUNT(*) AS count").
		Where("account_id = ?", accountID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func normalizeDriveSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "drive_date", "drive_date:asc":
		return "drive_date ASC"
	case "-drive_date", "drive_date:desc":
		return "drive_date DESC"
	case "deadline", "registration_deadline:asc":
		return "registration_deadline ASC"
	case "-deadline", "registration_deadline:desc":
		return "registration_deadline DESC"
	case "created_at", "created_at:asc":
		return "created_at ASC"
	case "-created_at", "created_at:desc":
		return "created_at DESC"
	default:
		return "drive_date ASC"
	}
}
