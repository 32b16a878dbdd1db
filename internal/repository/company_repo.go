package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// CompanyFilter describes pagination & filtering options for company listings.
type CompanyFilter struct {
	Status   models.CompanyStatus
	Search   string
	Page     int
	PageSize int
}

// CompanyRepository defines persistence operations for companies, scoped by
// account id.
type CompanyRepository interface {
	List(ctx context.Context, accountID uint, filter CompanyFilter) ([]models.Company, int64, error)
	GetByID(ctx context.Context, accountID, id uint) (models.Company, error)
	Create(ctx context.Context, company *models.Company) error
	UpdateStatus(ctx context.Context, accountID, id uint, status models.CompanyStatus) (models.Company, error)
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository instantiates a GORM-backed company repository.
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) List(ctx context.Context, accountID uint, filter CompanyFilter) ([]models.Company, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Company{}).Where("account_id = ?", accountID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var companies []models.Company
	if err := query.Order("name ASC").Find(&companies).Error; err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

func (r *companyRepository) GetByID(ctx context.Context, accountID, id uint) (models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&company, id).Error
	if err != nil {
		return models.Company{}, err
	}
	return company, nil
}

func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepository) UpdateStatus(ctx context.Context, accountID, id uint, status models.CompanyStatus) (models.Company, error) {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ? AND account_id = ?", id, accountID).
		Update("status", status)
	if result.Error != nil {
		return models.Company{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Company{}, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, accountID, id)
}
