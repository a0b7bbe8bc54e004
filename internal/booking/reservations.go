package booking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func validateSelections(selections []domain.SeatSelection) error {
	verr := &domain.ValidationError{}

	if len(selections) == 0 {
		verr.Add("seats", "must contain at least one seat")
	}

	seen := make(map[int]bool, len(selections))
	for i, sel := range selections {
		if sel.SeatID < 1 {
			verr.Add(fmt.Sprintf("seats[%d].seatId", i), "must be greater than zero")
		}

		if !sel.TicketType.Valid() {
			verr.Add(fmt.Sprintf("seats[%d].ticketType", i), "must be one of NORMAL, REDUCED, STUDENT")
		}

		if seen[sel.SeatID] {
			verr.Add(fmt.Sprintf("seats[%d].seatId", i), fmt.Sprintf("seat %d is selected more than once", sel.SeatID))
		}
		seen[sel.SeatID] = true
	}

	if verr.HasIssues() {
		return verr
	}

	return nil
}

// CreateReservation holds the selected seats for userID as a single
// PROVISIONAL_HOLD reservation. Seat rows are locked in ascending id order;
// any unavailable seat aborts the whole hold.
func (s *Service) CreateReservation(
	ctx context.Context,
	userID, showingID int,
	selections []domain.SeatSelection) (*domain.Reservation, error) {

	if err := validateSelections(selections); err != nil {
		return nil, err
	}

	ordered := slices.Clone(selections)
	slices.SortFunc(ordered, func(a, b domain.SeatSelection) int {
		return cmp.Compare(a.SeatID, b.SeatID)
	})

	var reservation *domain.Reservation

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		showing, err := tx.ShareLockShowing(ctx, showingID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.ErrShowingNotFound
			}
			return err
		}

		now := s.now()
		if showing.Started(now) {
			return domain.ErrShowingAlreadyStarted
		}

		seats := make(map[int]*domain.Seat, len(ordered))
		for _, sel := range ordered {
			seat, err := tx.LockSeat(ctx, sel.SeatID)
			if err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					return &domain.SeatUnavailableError{SeatID: sel.SeatID, Reason: "the seat does not exist"}
				}
				return err
			}

			if seat.RoomID != showing.RoomID {
				return seatUnavailable(seat, "the seat is not in the showing's room")
			}

			if !seat.Enabled {
				return seatUnavailable(seat, "the seat is disabled")
			}

			seats[seat.ID] = seat
		}

		occupied, err := tx.OccupiedSeatIDs(ctx, showing.ID, 0)
		if err != nil {
			return err
		}

		for _, sel := range ordered {
			if _, taken := slices.BinarySearch(occupied, sel.SeatID); taken {
				return seatUnavailable(seats[sel.SeatID], "the seat is already reserved")
			}
		}

		reservation = &domain.Reservation{
			UserID:    userID,
			ShowingID: showing.ID,
			CreatedAt: now,
			Status:    domain.StatusProvisionalHold,
			Seats:     make([]domain.ReservationSeat, 0, len(ordered)),
		}

		for _, sel := range ordered {
			reservation.Seats = append(reservation.Seats, domain.ReservationSeat{
				SeatID:     sel.SeatID,
				TicketType: sel.TicketType,
				Price:      showing.SeatPrice(seats[sel.SeatID].Type, sel.TicketType),
			})
		}

		return tx.CreateReservation(ctx, reservation)
	})

	if err != nil {
		if errors.Is(err, domain.ErrSeatUnavailable) {
			s.recordHold(ctx, "unavailable")
			s.logger.Warn("seat hold rejected", "user_id", userID, "showing_id", showingID, "reason", err.Error())
		}
		return nil, err
	}

	s.recordHold(ctx, "held")
	s.logger.Info("reservation created",
		"reservation_id", reservation.ID,
		"user_id", userID,
		"showing_id", showingID,
		"seat_ids", describeSeats(reservation),
		"total", reservation.TotalPrice().StringFixed(2))

	s.afterCommit(ctx, domain.EventReservationCreated, reservation)

	return reservation, nil
}

// CancelReservation releases the seats of a reservation owned by userID
// before its showing starts.
func (s *Service) CancelReservation(ctx context.Context, reservationID, userID int) (*domain.Reservation, error) {
	var cancelled *domain.Reservation

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		reservation, err := tx.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}

		if reservation.UserID != userID {
			return domain.ErrForbidden
		}

		showing, err := tx.GetShowing(ctx, reservation.ShowingID)
		if err != nil {
			return err
		}

		if showing.Started(s.now()) {
			return fmt.Errorf("cannot cancel: %w", domain.ErrShowingAlreadyStarted)
		}

		cancelled, err = WriteWithRetry(ctx, tx, reservation, nil, func(r *domain.Reservation) error {
			return r.TransitionTo(domain.StatusCancelled, "cancel")
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation cancelled", "reservation_id", reservationID, "user_id", userID)
	s.afterCommit(ctx, domain.EventReservationCancelled, cancelled)

	return cancelled, nil
}

func (s *Service) GetReservation(ctx context.Context, reservationID, userID int) (*domain.Reservation, error) {
	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if reservation.UserID != userID {
		return nil, domain.ErrForbidden
	}

	return reservation, nil
}

func (s *Service) ListUserReservations(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.Reservation, *domain.Metadata, error) {

	if err := pagination.Validate(); err != nil {
		return nil, nil, err
	}

	return s.store.ListReservationsByUser(ctx, userID, pagination)
}

// WriteWithRetry persists apply(loaded) guarded by loaded.Version. If another
// writer advanced the version, the reservation is re-read under lock, passed
// through recheck (when set), and apply is run against the fresh copy for one
// more attempt. A second conflict fails with domain.ErrConcurrentUpdate.
func WriteWithRetry(
	ctx context.Context,
	tx domain.Store,
	loaded *domain.Reservation,
	recheck func(ctx context.Context, fresh *domain.Reservation) error,
	apply func(r *domain.Reservation) error) (*domain.Reservation, error) {

	next := loaded.Clone()
	if err := apply(next); err != nil {
		return nil, err
	}

	err := tx.UpdateReservation(ctx, next, loaded.Version)
	if err == nil {
		return next, nil
	}
	if !errors.Is(err, domain.ErrEditConflict) {
		return nil, err
	}

	fresh, err := tx.LockReservation(ctx, loaded.ID)
	if err != nil {
		return nil, err
	}

	if recheck != nil {
		if err := recheck(ctx, fresh); err != nil {
			return nil, err
		}
	}

	next = fresh.Clone()
	if err := apply(next); err != nil {
		return nil, err
	}

	err = tx.UpdateReservation(ctx, next, fresh.Version)
	if errors.Is(err, domain.ErrEditConflict) {
		return nil, fmt.Errorf("reservation %d: %w", loaded.ID, domain.ErrConcurrentUpdate)
	}
	if err != nil {
		return nil, err
	}

	return next, nil
}

func describeSeats(r *domain.Reservation) string {
	ids := make([]string, len(r.Seats))
	for i, line := range r.Seats {
		ids[i] = fmt.Sprint(line.SeatID)
	}

	return strings.Join(ids, ",")
}
