package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// StudentFilter describes pagination & filtering options for student listings.
type StudentFilter struct {
	Branch   string
	Semester int
	Placed   *bool
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// BranchCount aggregates placement progress per branch.
type BranchCount struct {
	Branch string
	Total  int64
	Placed int64
}

// StudentRepository defines persistence operations for students, scoped by
// account id.
type StudentRepository interface {
	List(ctx context.Context, accountID uint, filter StudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, accountID, id uint) (models.Student, error)
	GetByIDs(ctx context.Context, accountID uint, ids []uint) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	CountPlacement(ctx context.Context, accountID uint) (total, placed int64, err error)
	BranchStats(ctx context.Context, accountID uint) ([]BranchCount, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates a GORM-backed student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, accountID uint, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).Where("account_id = ?", accountID)

	if filter.Branch != "" {
		query = query.Where("branch = ?", filter.Branch)
	}
	if filter.Semester > 0 {
		query = query.Where("semester = ?", filter.Semester)
	}
	if filter.Placed != nil {
		query = query.Where("is_placed = ?", *filter.Placed)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(roll_number) LIKE ?", pattern, pattern, pattern)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeStudentSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) GetByID(ctx context.Context, accountID, id uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&student, id).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByIDs(ctx context.Context, accountID uint, ids []uint) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND id IN ?", accountID, ids).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) CountPlacement(ctx context.Context, accountID uint) (int64, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("account_id = ?", accountID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}

	var placed int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("account_id = ? AND is_placed = ?", accountID, true).
		Count(&placed).Error; err != nil {
		return 0, 0, err
	}

	return total, placed, nil
}

func (r *studentRepository) BranchStats(ctx context.Context, accountID uint) ([]BranchCount, error) {
	var rows []BranchCount
	err := r.db.WithContext(ctx).Model(&models.Student{}).
		Select("branch, COUNT(*) AS total, SUM(CASE WHEN is_placed THEN 1 ELSE 0 END) AS placed").
		Where("account_id = ?", accountID).
		Group("branch").
		Order("branch ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func normalizeStudentSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "cgpa", "cgpa:asc":
		return "cgpa ASC"
	case "-cgpa", "cgpa:desc":
		return "cgpa DESC"
	case "name", "name:asc":
		return "name ASC"
	case "-name", "name:desc":
		return "name DESC"
	case "roll_number", "roll_number:asc":
		return "roll_number ASC"
	default:
		return "roll_number ASC"
	}
}
