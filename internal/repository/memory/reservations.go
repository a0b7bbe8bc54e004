package memory

import (
	"context"
	"slices"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (s *Store) CreateReservation(ctx context.Context, reservation *domain.Reservation) error {
	return s.write(func(db *database) (func(), error) {
		if _, ok := db.showings[reservation.ShowingID]; !ok {
			return nil, domain.ErrShowingNotFound
		}

		for _, line := range reservation.Seats {
			if _, ok := db.seats[line.SeatID]; !ok {
				return nil, domain.ErrRecordNotFound
			}
		}

		reservation.ID = db.next("reservations")
		for i := range reservation.Seats {
			reservation.Seats[i].ID = db.next("reservation_seats")
			reservation.Seats[i].ReservationID = reservation.ID
		}

		undo := restore(db.reservations, reservation.ID)
		db.reservations[reservation.ID] = reservation.Clone()

		return undo, nil
	})
}

func (s *Store) GetReservation(ctx context.Context, id int) (*domain.Reservation, error) {
	var reservation *domain.Reservation

	err := s.read(func(db *database) error {
		r, ok := db.reservations[id]
		if !ok {
			return domain.ErrRecordNotFound
		}
		reservation = r.Clone()
		return nil
	})

	return reservation, err
}

func (s *Store) LockReservation(ctx context.Context, id int) (*domain.Reservation, error) {
	if _, err := s.GetReservation(ctx, id); err != nil {
		return nil, err
	}

	if err := s.lock(ctx, "reservations", id); err != nil {
		return nil, err
	}

	return s.GetReservation(ctx, id)
}

func (s *Store) UpdateReservation(ctx context.Context, reservation *domain.Reservation, expectedVersion int) error {
	return s.write(func(db *database) (func(), error) {
		stored, ok := db.reservations[reservation.ID]
		if !ok {
			return nil, domain.ErrRecordNotFound
		}

		if stored.Version != expectedVersion {
			return nil, domain.ErrEditConflict
		}

		if reservation.TicketToken != "" && reservation.TicketToken != stored.TicketToken {
			for _, other := range db.reservations {
				if other.ID != reservation.ID && other.TicketToken == reservation.TicketToken {
					return nil, domain.ErrDuplicateRecord
				}
			}
		}

		undo := restore(db.reservations, reservation.ID)

		updated := stored.Clone()
		updated.Status = reservation.Status
		updated.PaymentMethod = reservation.PaymentMethod
		updated.PaymentDate = reservation.Clone().PaymentDate
		updated.TransactionID = reservation.TransactionID
		updated.TicketToken = reservation.TicketToken
		updated.Version = expectedVersion + 1
		db.reservations[reservation.ID] = updated

		reservation.Version = updated.Version

		return undo, nil
	})
}

func (s *Store) ListReservationsByUser(ctx context.Context, userID int, p domain.Pagination) ([]domain.Reservation, *domain.Metadata, error) {
	var page []domain.Reservation
	var metadata *domain.Metadata

	err := s.read(func(db *database) error {
		owned := make([]*domain.Reservation, 0)
		for _, r := range db.reservations {
			if r.UserID == userID {
				owned = append(owned, r)
			}
		}

		slices.SortFunc(owned, func(a, b *domain.Reservation) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return b.ID - a.ID
		})

		start, end := p.Window(len(owned))
		page = make([]domain.Reservation, 0, end-start)
		for _, r := range owned[start:end] {
			page = append(page, *r.Clone())
		}

		metadata = domain.NewMetadata(len(owned), p)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return page, metadata, nil
}

func (s *Store) GetReservationByTicketToken(ctx context.Context, token string) (*domain.Reservation, error) {
	var reservation *domain.Reservation

	err := s.read(func(db *database) error {
		for _, r := range db.reservations {
			if token != "" && r.TicketToken == token {
				reservation = r.Clone()
				return nil
			}
		}
		return domain.ErrRecordNotFound
	})

	return reservation, err
}

func (s *Store) OccupiedSeatIDs(ctx context.Context, showingID, excludeReservationID int) ([]int, error) {
	ids := make([]int, 0)

	err := s.read(func(db *database) error {
		for _, r := range db.reservations {
			if r.ShowingID != showingID || r.ID == excludeReservationID || !r.Status.Occupying() {
				continue
			}
			ids = append(ids, r.SeatIDs()...)
		}
		return nil
	})

	slices.Sort(ids)
	return slices.Compact(ids), err
}

func (s *Store) RecordTicketAccess(ctx context.Context, access domain.TicketAccess) error {
	return s.write(func(db *database) (func(), error) {
		n := len(db.accessLog)
		db.accessLog = append(db.accessLog, access)

		return func() { db.accessLog = db.accessLog[:n] }, nil
	})
}
