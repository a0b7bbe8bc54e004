// Package booking owns seat availability and the reservation lifecycle.
package booking

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/cache"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/metinatakli/cinema-seat-booking/internal/booking"

type Service struct {
	store    domain.Store
	cache    domain.AvailabilityCache
	events   domain.EventPublisher
	logger   *slog.Logger
	now      func() time.Time
	newToken func() string
	holds    metric.Int64Counter
}

type Option func(*Service)

func WithCache(c domain.AvailabilityCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithEvents(p domain.EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenGenerator replaces the UUID ticket token generator.
func WithTokenGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newToken = gen
		}
	}
}

func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		cache:    cache.Noop{},
		events:   events.Noop{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		newToken: uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	// The global meter provider is a no-op until telemetry is initialised.
	s.holds, _ = otel.Meter(instrumentationName).Int64Counter(
		"booking.reservation.holds",
		metric.WithDescription("Seat hold attempts by outcome"),
	)

	return s
}

// afterCommit drops the cached snapshot of the showing and publishes the
// event. Both are best-effort.
func (s *Service) afterCommit(ctx context.Context, eventType domain.EventType, r *domain.Reservation) {
	if err := s.cache.Invalidate(ctx, r.ShowingID); err != nil {
		s.logger.Warn("failed to invalidate availability cache", "showing_id", r.ShowingID, "error", err)
	}

	if err := s.events.Publish(ctx, domain.NewReservationEvent(eventType, r, s.now())); err != nil {
		s.logger.Warn("failed to publish reservation event", "type", eventType, "reservation_id", r.ID, "error", err)
	}
}

func (s *Service) recordHold(ctx context.Context, outcome string) {
	s.holds.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
