package dto

import (
	"time"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// PlacementEventCreateRequest publishes a placement event to a user.
type PlacementEventCreateRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Type    string `json:"type" validate:"required,max=64"`
	Message string `json:"message" validate:"required"`
}

// PlacementEventResponse serializes a placement event.
type PlacementEventResponse struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPlacementEventResponse converts a PlacementEvent model into a DTO.
func NewPlacementEventResponse(model models.PlacementEvent) PlacementEventResponse {
	return PlacementEventResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Message:   model.Message,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
	}
}

// NewPlacementEventResponseSlice converts a slice of events.
func NewPlacementEventResponseSlice(events []models.PlacementEvent) []PlacementEventResponse {
	out := make([]PlacementEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, NewPlacementEventResponse(event))
	}
	return out
}
