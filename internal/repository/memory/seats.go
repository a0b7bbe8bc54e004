package memory

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (s *Store) GetSeat(ctx context.Context, id int) (*domain.Seat, error) {
	var seat domain.Seat

	err := s.read(func(db *database) error {
		st, ok := db.seats[id]
		if !ok {
			return domain.ErrRecordNotFound
		}
		seat = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &seat, nil
}

func (s *Store) LockSeat(ctx context.Context, id int) (*domain.Seat, error) {
	if _, err := s.GetSeat(ctx, id); err != nil {
		return nil, err
	}

	if err := s.lock(ctx, "seats", id); err != nil {
		return nil, err
	}

	return s.GetSeat(ctx, id)
}

func (s *Store) ListSeatsByRoom(ctx context.Context, roomID int) ([]domain.Seat, error) {
	var seats []domain.Seat

	err := s.read(func(db *database) error {
		seats = sortedValues(db.seats, func(seat domain.Seat) bool {
			return seat.RoomID == roomID
		}, domain.CompareSeats)
		return nil
	})

	return seats, err
}

func (s *Store) UpdateSeatEnabled(ctx context.Context, id int, enabled bool) error {
	return s.write(func(db *database) (func(), error) {
		seat, ok := db.seats[id]
		if !ok {
			return nil, domain.ErrRecordNotFound
		}

		undo := restore(db.seats, id)
		seat.Enabled = enabled
		db.seats[id] = seat

		return undo, nil
	})
}
