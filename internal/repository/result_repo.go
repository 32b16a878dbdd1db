package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// ErrVersionConflict indicates a single-record result update lost an
// optimistic concurrency race.
var ErrVersionConflict = errors.New("result version conflict")

// ErrStateChanged indicates the drive left the expected status before the
// batch committed.
var ErrStateChanged = errors.New("drive status changed concurrently")

// OfferStats aggregates offer figures for the placement dashboard.
type OfferStats struct {
	Count      int64
	AverageCTC float64
	HighestCTC float64
}

// ResultBatchPlan describes every mutation a result submission applies. The
// plan is computed by the service after full validation and applied here in a
// single transaction, so a crash mid-way can never leave a student's placement
// flag out of sync with the drive's results.
type ResultBatchPlan struct {
	AccountID uint
	DriveID   uint
	Now       time.Time

	// Replace swaps the drive's entire result set (bulk submit); otherwise
	// exactly one record is upserted (single-record correction).
	Replace bool
	Results []models.DriveResult

	// ExpectedVersion, when set on a single-record plan, enables the
	// optimistic concurrency check.
	ExpectedVersion *int

	// Offers are upserted for selected students; offer rows for the listed
	// students are removed (outcome reversal). Placement flags of every
	// affected student are recomputed from the offers that remain.
	Offers                []models.Offer
	RemoveOfferStudentIDs []uint

	// StatusFrom/StatusTo, when set, perform a conditional drive status
	// transition as part of the same transaction.
	StatusFrom models.DriveStatus
	StatusTo   models.DriveStatus
}

// affectedStudentIDs returns every student whose placement state the plan may
// touch.
func (p ResultBatchPlan) affectedStudentIDs() []uint {
	seen := make(map[uint]struct{}, len(p.Offers)+len(p.RemoveOfferStudentIDs))
	ids := make([]uint, 0, len(p.Offers)+len(p.RemoveOfferStudentIDs))
	for _, offer := range p.Offers {
		if _, ok := seen[offer.StudentID]; !ok {
			seen[offer.StudentID] = struct{}{}
			ids = append(ids, offer.StudentID)
		}
	}
	for _, id := range p.RemoveOfferStudentIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// ResultRepository persists drive results, offers, and the derived placement
// flags on students.
type ResultRepository interface {
	ListByDrive(ctx context.Context, accountID, driveID uint) ([]models.DriveResult, error)
	GetByDriveStudent(ctx context.Context, accountID, driveID, studentID uint) (models.DriveResult, error)
	Apply(ctx context.Context, plan ResultBatchPlan) error
	OfferStats(ctx context.Context, accountID uint) (OfferStats, error)
	ListOffersByStudent(ctx context.Context, accountID, studentID uint) ([]models.Offer, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository instantiates a GORM-backed result repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) ListByDrive(ctx context.Context, accountID, driveID uint) ([]models.DriveResult, error) {
	var results []models.DriveResult
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND drive_id = ?", accountID, driveID).
		Order("student_id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resultRepository) GetByDriveStudent(ctx context.Context, accountID, driveID, studentID uint) (models.DriveResult, error) {
	var result models.DriveResult
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND drive_id = ? AND student_id = ?", accountID, driveID, studentID).
		First(&result).Error
	if err != nil {
		return models.DriveResult{}, err
	}
	return result, nil
}

func (r *resultRepository) Apply(ctx context.Context, plan ResultBatchPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if plan.StatusFrom != "" {
			result := tx.Model(&models.Drive{}).
				Where("id = ? AND account_id = ? AND status = ?", plan.DriveID, plan.AccountID, plan.StatusFrom).
				Update("status", plan.StatusTo)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrStateChanged
			}
		}

		if plan.Replace {
			if err := tx.Where("account_id = ? AND drive_id = ?", plan.AccountID, plan.DriveID).
				Delete(&models.DriveResult{}).Error; err != nil {
				return err
			}
			if len(plan.Results) > 0 {
				if err := tx.Create(&plan.Results).Error; err != nil {
					return err
				}
			}
		} else if len(plan.Results) == 1 {
			if err := r.upsertOne(tx, plan); err != nil {
				return err
			}
		}

		for i := range plan.Offers {
			offer := plan.Offers[i]
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "drive_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"company_id", "job_title", "ctc", "status", "date",
				}),
			}).Create(&offer).Error
			if err != nil {
				return err
			}
		}

		if len(plan.RemoveOfferStudentIDs) > 0 {
			err := tx.Where("account_id = ? AND drive_id = ? AND student_id IN ?",
				plan.AccountID, plan.DriveID, plan.RemoveOfferStudentIDs).
				Delete(&models.Offer{}).Error
			if err != nil {
				return err
			}
		}

		for _, studentID := range plan.affectedStudentIDs() {
			if err := reconcilePlacement(tx, plan.AccountID, studentID, plan.Now); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *resultRepository) upsertOne(tx *gorm.DB, plan ResultBatchPlan) error {
	record := plan.Results[0]

	if plan.ExpectedVersion != nil {
		result := tx.Model(&models.DriveResult{}).
			Where("account_id = ? AND drive_id = ? AND student_id = ? AND version = ?",
				plan.AccountID, plan.DriveID, record.StudentID, *plan.ExpectedVersion).
			Updates(map[string]interface{}{
				"status":       record.Status,
				"score":        record.Score,
				"ctc":          record.CTC,
				"feedback":     record.Feedback,
				"submitted_by": record.SubmittedBy,
				"submitted_at": record.SubmittedAt,
				"version":      gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "drive_id"}, {Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":       record.Status,
			"score":        record.Score,
			"ctc":          record.CTC,
			"feedback":     record.Feedback,
			"submitted_by": record.SubmittedBy,
			"submitted_at": record.SubmittedAt,
			"version":      gorm.Expr("version + 1"),
		}),
	}).Create(&record).Error
}

// reconcilePlacement derives the student's placement flag from the accepted
// offers that currently exist. It is idempotent: reapplying a result with a
// changed outcome always converges on the correct flag, and a student with a
// second accepted offer stays placed when one offer is reversed.
func reconcilePlacement(tx *gorm.DB, accountID, studentID uint, now time.Time) error {
	var accepted int64
	err := tx.Model(&models.Offer{}).
		Where("account_id = ? AND student_id = ? AND status = ?", accountID, studentID, models.OfferStatusAccepted).
		Count(&accepted).Error
	if err != nil {
		return err
	}

	if accepted > 0 {
		return tx.Model(&models.Student{}).
			Where("id = ? AND account_id = ?", studentID, accountID).
			Updates(map[string]interface{}{
				"is_placed":      true,
				"placement_date": gorm.Expr("COALESCE(placement_date, ?)", now),
			}).Error
	}

	return tx.Model(&models.Student{}).
		Where("id = ? AND account_id = ?", studentID, accountID).
		Updates(map[string]interface{}{
			"is_placed":      false,
			"placement_date": nil,
		}).Error
}

func (r *resultRepository) OfferStats(ctx context.Context, accountID uint) (OfferStats, error) {
	type row struct {
		Count   int64
		Average float64
		Highest float64
	}

	var stats row
	err := r.db.WithContext(ctx).Model(&models.Offer{}).
		Select("COUNT(*) AS count, COALESCE(AVG(ctc), 0) AS average, COALESCE(MAX(ctc), 0) AS highest").
		Where("account_id = ? AND status = ?", accountID, models.OfferStatusAccepted).
		Scan(&stats).Error
	if err != nil {
		return OfferStats{}, err
	}

	return OfferStats{Count: stats.Count, AverageCTC: stats.Average, HighestCTC: stats.Highest}, nil
}

func (r *resultRepository) ListOffersByStudent(ctx context.Context, accountID, studentID uint) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND student_id = ?", accountID, studentID).
		Order("date ASC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}
