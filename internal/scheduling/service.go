// Package scheduling places showings in rooms, by hand or from weekly
// schedules, without overlapping room time.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/cache"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
)

type Service struct {
	store    domain.Store
	cache    domain.AvailabilityCache
	logger   *slog.Logger
	location *time.Location
	now      func() time.Time
}

type Option func(*Service)

func WithCache(c domain.AvailabilityCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
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

// WithLocation sets the zone schedule times of day are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
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

func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		cache:    cache.Noop{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		location: time.UTC,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func validatePrices(verr *domain.ValidationError, base decimal.Decimal, vip decimal.NullDecimal) {
	if !base.IsPositive() {
		verr.Add("basePrice", "must be greater than zero")
	}

	if vip.Valid && !vip.Decimal.IsPositive() {
		verr.Add("vipPrice", "must be greater than zero")
	}
}

func showingNotFound(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrShowingNotFound
	}
	return err
}

func (s *Service) invalidate(ctx context.Context, showingID int) {
	if err := s.cache.Invalidate(ctx, showingID); err != nil {
		s.logger.Warn("failed to invalidate availability cache", "showing_id", showingID, "error", err)
	}
}

func lockRoom(ctx context.Context, tx domain.Store, roomID int) error {
	if _, err := tx.LockRoom(ctx, roomID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Errorf("room %d: %w", roomID, err)
		}
		return err
	}

	return nil
}
