package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/models"
)

type memoryEventRepo struct {
	events []models.PlacementEvent
}

func (m *memoryEventRepo) Create(_ context.Context, event *models.PlacementEvent) error {
	event.ID = uint(len(m.events) + 1)
	m.events = append(m.events, *event)
	return nil
}

func (m *memoryEventRepo) ListByUser(_ context.Context, accountID uint, userID string, _, _ int) ([]models.PlacementEvent, error) {
	var out []models.PlacementEvent
	for _, event := range m.events {
		if event.AccountID == accountID && event.UserID == userID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (m *memoryEventRepo) MarkRead(_ context.Context, accountID, id uint, userID string) (models.PlacementEvent, error) {
	for i, event := range m.events {
		if event.ID == id && event.AccountID == accountID && event.UserID == userID {
			m.events[i].Read = true
			return m.events[i], nil
		}
	}
	return models.PlacementEvent{}, gorm.ErrRecordNotFound
}

func newEventServiceForTest() (EventService, *memoryEventRepo) {
	repo := &memoryEventRepo{}
	svc := NewEventService(repo, nil, "cpms", nil, validator.New(validator.WithRequiredStructEnabled()), testLogger())
	return svc, repo
}

func TestEventPublishDeliversToSubscriber(t *testing.T) {
	svc, repo := newEventServiceForTest()

	stream, cleanup := svc.Subscribe("student:5")
	defer cleanup()

	published, err := svc.Publish(context.Background(), 1, dto.PlacementEventCreateRequest{
		UserID:  "student:5",
		Type:    "registration_confirmed",
		Message: "You are registered for the Backend Engineer drive",
	})

	require.NoError(t, err)
	require.NotZero(t, published.ID)
	require.Len(t, repo.events, 1)

	received := <-stream
	require.Equal(t, published.ID, received.ID)
	require.Equal(t, "registration_confirmed", received.Type)
}

func TestEventPublishSanitizesMessage(t *testing.T) {
	svc, repo := newEventServiceForTest()

	published, err := svc.Publish(context.Background(), 1, dto.PlacementEventCreateRequest{
		UserID:  "student:5",
		Type:    "generic",
		Message: `<script>alert("x")</script>Results are out`,
	})

	require.NoError(t, err)
	require.Equal(t, "Results are out", published.Message)
	require.Equal(t, "Results are out", repo.events[0].Message)
}

func TestEventPublishRejectsEmptyAfterSanitization(t *testing.T) {
	svc, _ := newEventServiceForTest()

	_, err := svc.Publish(context.Background(), 1, dto.PlacementEventCreateRequest{
		UserID:  "student:5",
		Type:    "generic",
		Message: "<img src=x>",
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestEventSubscribersAreIsolatedByUser(t *testing.T) {
	svc, _ := newEventServiceForTest()

	mine, cleanupMine := svc.Subscribe("student:5")
	defer cleanupMine()
	other, cleanupOther := svc.Subscribe("student:6")
	defer cleanupOther()

	_, err := svc.Publish(context.Background(), 1, dto.PlacementEventCreateRequest{
		UserID:  "student:5",
		Type:    "generic",
		Message: "hello",
	})
	require.NoError(t, err)

	require.Len(t, mine, 1)
	require.Empty(t, other)
}

func TestEventMarkReadScopedToOwner(t *testing.T) {
	svc, repo := newEventServiceForTest()
	repo.events = []models.PlacementEvent{
		{ID: 1, AccountID: 1, UserID: "student:5", Type: "generic", Message: "hello"},
	}

	_, err := svc.MarkRead(context.Background(), 1, 1, "student:6")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeEventNotFound, appErr.Code)

	updated, err := svc.MarkRead(context.Background(), 1, 1, "student:5")
	require.NoError(t, err)
	require.True(t, updated.Read)
}
