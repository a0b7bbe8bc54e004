package mocks

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) Get(ctx context.Context, showingID int) ([]domain.SeatAvailability, bool, error) {
	args := m.Called(ctx, showingID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.SeatAvailability), args.Bool(1), args.Error(2)
}

func (m *MockAvailabilityCache) Set(ctx context.Context, showingID, roomID int, seats []domain.SeatAvailability) error {
	args := m.Called(ctx, showingID, roomID, seats)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, showingID int) error {
	args := m.Called(ctx, showingID)
	return args.Error(0)
}

func (m *MockAvailabilityCache) InvalidateRoom(ctx context.Context, roomID int) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}
