package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// EventRepository handles persistence for per-user placement events.
type EventRepository interface {
	Create(ctx context.Context, event *models.PlacementEvent) error
	ListByUser(ctx context.Context, accountID uint, userID string, limit, offset int) ([]models.PlacementEvent, error)
	MarkRead(ctx context.Context, accountID, id uint, userID string) (models.PlacementEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository constructs a repository backed by GORM.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.PlacementEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) ListByUser(ctx context.Context, accountID uint, userID string, limit, offset int) ([]models.PlacementEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var events []models.PlacementEvent
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (r *eventRepository) MarkRead(ctx context.Context, accountID, id uint, userID string) (models.PlacementEvent, error) {
	var event models.PlacementEvent
	if err := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ? AND user_id = ?", id, accountID, userID).
		First(&event).Error; err != nil {
		return models.PlacementEvent{}, err
	}

	if event.Read {
		return event, nil
	}

	event.Read = true
	if err := r.db.WithContext(ctx).Save(&event).Error; err != nil {
		return models.PlacementEvent{}, err
	}

	return event, nil
}
