// Package cache holds the seat availability snapshot caches.
package cache

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, int) ([]domain.SeatAvailability, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, int, int, []domain.SeatAvailability) error { return nil }

func (Noop) Invalidate(context.Context, int) error { return nil }

func (Noop) InvalidateRoom(context.Context, int) error { return nil }
