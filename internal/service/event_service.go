package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/models"
	"github.com/noah-isme/placement-go-api/internal/observability"
	"github.com/noah-isme/placement-go-api/internal/repository"
)

const eventBufferSize = 16

// EventPublisher is the narrow interface other services use to emit placement
// events without depending on the streaming machinery.
type EventPublisher interface {
	Publish(ctx context.Context, accountID uint, payload dto.PlacementEventCreateRequest) (dto.PlacementEventResponse, error)
}

// EventService publishes and streams placement events to end users via SSE.
// Instances fan events out to each other over Redis pub/sub and a NATS queue
// subscription so a subscriber on any node sees every event.
type EventService interface {
	EventPublisher
	List(ctx context.Context, accountID uint, userID string, limit, offset int) ([]dto.PlacementEventResponse, error)
	MarkRead(ctx context.Context, accountID, id uint, userID string) (dto.PlacementEventResponse, error)
	Subscribe(userID string) (<-chan dto.PlacementEventResponse, func())
	Start(ctx context.Context)
}

type eventService struct {
	repo        repository.EventRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	broker      *eventBroker
	nodeID      string
}

type wireEvent struct {
	Source string                     `json:"source"`
	Event  dto.PlacementEventResponse `json:"event"`
	SentAt time.Time                  `json:"sent_at"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.PlacementEventResponse]struct{}
}

// NewEventService constructs an event service.
func NewEventService(repo repository.EventRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) EventService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &eventService{
		repo:        repo,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		logger:      logger.With().Str("component", "event_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/placement-go-api/internal/service/event"),
		sanitizer:   bluemonday.StrictPolicy(),
		broker: &eventBroker{
			subscribers: make(map[string]map[chan dto.PlacementEventResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *eventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *eventService) Publish(ctx context.Context, accountID uint, payload dto.PlacementEventCreateRequest) (dto.PlacementEventResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PlacementEventResponse{}, apperrors.Validation(err.Error())
	}

	cleanMessage := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if cleanMessage == "" {
		return dto.PlacementEventResponse{}, apperrors.Validation("event message empty after sanitization")
	}

	attrs := []attribute.KeyValue{
		attribute.String("event.user_id", payload.UserID),
		attribute.String("event.type", payload.Type),
	}

	spanCtx, span := s.tracer.Start(ctx, "events.publish", trace.WithAttributes(attrs...))
	defer span.End()

	model := models.PlacementEvent{
		AccountID: accountID,
		UserID:    payload.UserID,
		Type:      payload.Type,
		Message:   cleanMessage,
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.PlacementEventResponse{}, apperrors.Internal(err)
	}

	response := dto.NewPlacementEventResponse(model)
	s.broadcast(response)
	if err := s.fanOut(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to fan out placement event")
	}

	observability.EventsPublishedTotal().WithLabelValues(response.Type).Inc()

	return response, nil
}

func (s *eventService) List(ctx context.Context, accountID uint, userID string, limit, offset int) ([]dto.PlacementEventResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Validation("user id is required")
	}

	events, err := s.repo.ListByUser(ctx, accountID, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return dto.NewPlacementEventResponseSlice(events), nil
}

func (s *eventService) MarkRead(ctx context.Context, accountID, id uint, userID string) (dto.PlacementEventResponse, error) {
	event, err := s.repo.MarkRead(ctx, accountID, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PlacementEventResponse{}, apperrors.NotFound(apperrors.CodeEventNotFound, "event not found")
		}
		return dto.PlacementEventResponse{}, apperrors.Internal(err)
	}

	return dto.NewPlacementEventResponse(event), nil
}

func (s *eventService) Subscribe(userID string) (<-chan dto.PlacementEventResponse, func()) {
	channel := make(chan dto.PlacementEventResponse, eventBufferSize)

	s.broker.subscribe(userID, channel)
	observability.SSEClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(userID, channel)
		observability.SSEClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *eventService) broadcast(event dto.PlacementEventResponse) {
	s.broker.broadcast(event.UserID, event)
}

func (s *eventService) fanOut(ctx context.Context, event dto.PlacementEventResponse) error {
	wire := wireEvent{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *eventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("event redis subscription closed")
			return
		}
		s.handleWireEvent([]byte(msg.Payload))
	}
}

func (s *eventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "cpms-events", func(msg *nats.Msg) {
		s.handleWireEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain event nats subscription")
		}
	}()
}

func (s *eventService) handleWireEvent(payload []byte) {
	var wire wireEvent
	if err := json.Unmarshal(payload, &wire); err != nil {
		s.logger.Warn().Err(err).Msg("invalid placement event payload")
		return
	}

	if wire.Source == s.nodeID {
		return
	}

	event := wire.Event
	if event.Type == "" {
		event.Type = "generic"
	}

	observability.EventsPublishedTotal().WithLabelValues(event.Type).Inc()
	s.broadcast(event)
}

func (b *eventBroker) subscribe(userID string, ch chan dto.PlacementEventResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.PlacementEventResponse]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(userID string, ch chan dto.PlacementEventResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

func (b *eventBroker) broadcast(userID string, event dto.PlacementEventResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers := b.subscribers[userID]
	for ch := range subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
