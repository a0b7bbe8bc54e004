package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// ListSeatAvailability is a point-in-time snapshot of the showing's room.
// It takes no locks; holds re-check occupancy under the seat lock.
func (s *Service) ListSeatAvailability(ctx context.Context, showingID int) ([]domain.SeatAvailability, error) {
	cached, ok, err := s.cache.Get(ctx, showingID)
	if err != nil {
		s.logger.Warn("availability cache read failed", "showing_id", showingID, "error", err)
	} else if ok {
		return cached, nil
	}

	showing, err := s.store.GetShowing(ctx, showingID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrShowingNotFound
		}
		return nil, err
	}

	seats, err := s.store.ListSeatsByRoom(ctx, showing.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats of room %d: %w", showing.RoomID, err)
	}

	occupied, err := s.store.OccupiedSeatIDs(ctx, showing.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupied seats: %w", err)
	}

	availability := make([]domain.SeatAvailability, len(seats))
	for i, seat := range seats {
		_, taken := slices.BinarySearch(occupied, seat.ID)
		availability[i] = domain.SeatAvailability{Seat: seat, Occupied: taken}
	}

	if err := s.cache.Set(ctx, showing.ID, showing.RoomID, availability); err != nil {
		s.logger.Warn("availability cache write failed", "showing_id", showingID, "error", err)
	}

	return availability, nil
}

// VerifySeatsAvailability re-checks every seat line of reservation using tx.
// Seats held by the reservation itself do not count as taken. The first
// failing seat is reported as a *domain.SeatUnavailableError.
func VerifySeatsAvailability(ctx context.Context, tx domain.Store, reservation *domain.Reservation) error {
	occupied, err := tx.OccupiedSeatIDs(ctx, reservation.ShowingID, reservation.ID)
	if err != nil {
		return fmt.Errorf("failed to list occupied seats: %w", err)
	}

	for _, line := range reservation.Seats {
		seat, err := tx.GetSeat(ctx, line.SeatID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return &domain.SeatUnavailableError{SeatID: line.SeatID, Reason: "the seat no longer exists"}
			}
			return err
		}

		if !seat.Enabled {
			return seatUnavailable(seat, "the seat has been disabled")
		}

		if _, taken := slices.BinarySearch(occupied, seat.ID); taken {
			return seatUnavailable(seat, "the seat is held by another reservation")
		}
	}

	return nil
}

func seatUnavailable(seat *domain.Seat, reason string) *domain.SeatUnavailableError {
	return &domain.SeatUnavailableError{
		SeatID: seat.ID,
		Row:    seat.Row,
		Number: seat.Number,
		Reason: reason,
	}
}
