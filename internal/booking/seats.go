package booking

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// SetSeatEnabled toggles a seat of the room layout. Existing reservations
// keep the seat; new holds and payments re-check it.
func (s *Service) SetSeatEnabled(ctx context.Context, seatID int, enabled bool) (*domain.Seat, error) {
	var seat *domain.Seat

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		locked, err := tx.LockSeat(ctx, seatID)
		if err != nil {
			return err
		}

		if err := tx.UpdateSeatEnabled(ctx, seatID, enabled); err != nil {
			return err
		}

		locked.Enabled = enabled
		seat = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateRoom(ctx, seat.RoomID); err != nil {
		s.logger.Warn("failed to invalidate room availability", "room_id", seat.RoomID, "error", err)
	}

	s.logger.Info("seat updated", "seat_id", seatID, "enabled", enabled)

	return seat, nil
}
