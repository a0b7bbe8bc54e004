package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
)

type ShowingInput struct {
	MovieID   int
	RoomID    int
	StartTime time.Time
	BasePrice decimal.Decimal
	VIPPrice  decimal.NullDecimal
}

func (s *Service) CreateShowing(ctx context.Context, in ShowingInput) (*domain.Showing, error) {
	verr := &domain.ValidationError{}
	if in.StartTime.IsZero() {
		verr.Add("startTime", "is required")
	}
	validatePrices(verr, in.BasePrice, in.VIPPrice)
	if verr.HasIssues() {
		return nil, verr
	}

	showing := &domain.Showing{
		MovieID:   in.MovieID,
		RoomID:    in.RoomID,
		StartTime: in.StartTime,
		BasePrice: in.BasePrice,
		VIPPrice:  in.VIPPrice,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		return createShowing(ctx, tx, showing)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("showing created",
		"showing_id", showing.ID,
		"room_id", showing.RoomID,
		"movie_id", showing.MovieID,
		"start", showing.StartTime)

	return showing, nil
}

// createShowing places showing under the room lock, so two placements in one
// room cannot both pass the overlap check.
func createShowing(ctx context.Context, tx domain.Store, showing *domain.Showing) error {
	if err := lockRoom(ctx, tx, showing.RoomID); err != nil {
		return err
	}

	movie, err := tx.GetMovie(ctx, showing.MovieID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Errorf("movie %d: %w", showing.MovieID, err)
		}
		return err
	}

	proposed := domain.OccupiedInterval(showing.StartTime, movie.Duration)
	if err := CheckNoOverlap(ctx, tx, showing.RoomID, proposed, 0); err != nil {
		return err
	}

	return tx.CreateShowing(ctx, showing)
}

// RescheduleShowing moves a showing that nobody has reserved yet.
func (s *Service) RescheduleShowing(ctx context.Context, showingID int, start time.Time) (*domain.Showing, error) {
	if start.IsZero() {
		return nil, domain.NewValidationError("startTime", "is required")
	}

	var showing *domain.Showing

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.GetShowing(ctx, showingID)
		if err != nil {
			return showingNotFound(err)
		}

		if err := lockRoom(ctx, tx, current.RoomID); err != nil {
			return err
		}

		// Holds share-lock the showing row, so this waits for in-flight holds
		// and the count below sees them.
		current, err = tx.LockShowing(ctx, showingID)
		if err != nil {
			return showingNotFound(err)
		}

		count, err := tx.CountReservationsByShowing(ctx, showingID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrShowingHasReservations
		}

		movie, err := tx.GetMovie(ctx, current.MovieID)
		if err != nil {
			return err
		}

		proposed := domain.OccupiedInterval(start, movie.Duration)
		if err := CheckNoOverlap(ctx, tx, current.RoomID, proposed, current.ID); err != nil {
			return err
		}

		current.StartTime = start
		showing = current

		return tx.UpdateShowing(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, showingID)
	s.logger.Info("showing rescheduled", "showing_id", showingID, "start", start)

	return showing, nil
}

// UpdateShowingPrices changes the prices of future holds. Existing
// reservations keep their snapshotted prices.
func (s *Service) UpdateShowingPrices(ctx context.Context, showingID int, base decimal.Decimal, vip decimal.NullDecimal) (*domain.Showing, error) {
	verr := &domain.ValidationError{}
	validatePrices(verr, base, vip)
	if verr.HasIssues() {
		return nil, verr
	}

	var showing *domain.Showing

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.LockShowing(ctx, showingID)
		if err != nil {
			return showingNotFound(err)
		}

		current.BasePrice = base
		current.VIPPrice = vip
		showing = current

		return tx.UpdateShowing(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	return showing, nil
}

func (s *Service) DeleteShowing(ctx context.Context, showingID int) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.GetShowing(ctx, showingID)
		if err != nil {
			return showingNotFound(err)
		}

		if err := lockRoom(ctx, tx, current.RoomID); err != nil {
			return err
		}

		current, err = tx.LockShowing(ctx, showingID)
		if err != nil {
			return showingNotFound(err)
		}

		count, err := tx.CountReservationsByShowing(ctx, showingID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrShowingHasReservations
		}

		return tx.DeleteShowing(ctx, showingID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, showingID)
	s.logger.Info("showing deleted", "showing_id", showingID)

	return nil
}

func (s *Service) GetShowing(ctx context.Context, showingID int) (*domain.Showing, error) {
	showing, err := s.store.GetShowing(ctx, showingID)
	if err != nil {
		return nil, showingNotFound(err)
	}

	return showing, nil
}

// ListRoomShowings returns the room's showings starting within [from, to].
func (s *Service) ListRoomShowings(ctx context.Context, roomID int, from, to time.Time) ([]domain.Showing, error) {
	if to.Before(from) {
		return nil, domain.NewValidationError("to", "must not be before from")
	}

	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	return s.store.ListShowingsInRoom(ctx, roomID, from, to)
}

func (s *Service) listShowings(ctx context.Context, filter domain.ShowingFilter, p domain.Pagination) ([]domain.Showing, *domain.Metadata, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	return s.store.ListShowings(ctx, filter, p)
}

// ListUpcomingShowings pages through showings that have not started yet.
func (s *Service) ListUpcomingShowings(ctx context.Context, p domain.Pagination) ([]domain.Showing, *domain.Metadata, error) {
	return s.listShowings(ctx, domain.ShowingFilter{From: s.now()}, p)
}

// ListShowingsInRange pages through showings of every room starting within
// [from, to].
func (s *Service) ListShowingsInRange(ctx context.Context, from, to time.Time, p domain.Pagination) ([]domain.Showing, *domain.Metadata, error) {
	verr := &domain.ValidationError{}
	if from.IsZero() {
		verr.Add("from", "is required")
	}
	if to.IsZero() {
		verr.Add("to", "is required")
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		verr.Add("to", "must not be before from")
	}
	if verr.HasIssues() {
		return nil, nil, verr
	}

	return s.listShowings(ctx, domain.ShowingFilter{From: from, To: to}, p)
}

// ListMovieShowings pages through the upcoming showings of a movie.
func (s *Service) ListMovieShowings(ctx context.Context, movieID int, p domain.Pagination) ([]domain.Showing, *domain.Metadata, error) {
	if _, err := s.store.GetMovie(ctx, movieID); err != nil {
		return nil, nil, err
	}

	return s.listShowings(ctx, domain.ShowingFilter{MovieID: movieID, From: s.now()}, p)
}
