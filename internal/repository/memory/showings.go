package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func copyShowing(s domain.Showing) domain.Showing {
	if s.ScheduleID != nil {
		id := *s.ScheduleID
		s.ScheduleID = &id
	}

	return s
}

func compareShowings(a, b domain.Showing) int {
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}

	return a.ID - b.ID
}

func (db *database) scheduleSlotTaken(showing domain.Showing) bool {
	if showing.ScheduleID == nil {
		return false
	}

	for _, other := range db.showings {
		if other.ID != showing.ID && other.ScheduleID != nil &&
			*other.ScheduleID == *showing.ScheduleID && other.StartTime.Equal(showing.StartTime) {
			return true
		}
	}

	return false
}

func (s *Store) CreateShowing(ctx context.Context, showing *domain.Showing) error {
	return s.write(func(db *database) (func(), error) {
		if db.scheduleSlotTaken(*showing) {
			return nil, fmt.Errorf("schedule %d already has a showing at %s: %w",
				*showing.ScheduleID, showing.StartTime, domain.ErrDuplicateRecord)
		}

		showing.ID = db.next("showings")
		undo := restore(db.showings, showing.ID)
		db.showings[showing.ID] = copyShowing(*showing)

		return undo, nil
	})
}

func (s *Store) GetShowing(ctx context.Context, id int) (*domain.Showing, error) {
	var showing domain.Showing

	err := s.read(func(db *database) error {
		sh, ok := db.showings[id]
		if !ok {
			return domain.ErrRecordNotFound
		}
		showing = copyShowing(sh)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &showing, nil
}

func (s *Store) LockShowing(ctx context.Context, id int) (*domain.Showing, error) {
	if _, err := s.GetShowing(ctx, id); err != nil {
		return nil, err
	}

	if err := s.lock(ctx, "showings", id); err != nil {
		return nil, err
	}

	return s.GetShowing(ctx, id)
}

func (s *Store) ShareLockShowing(ctx context.Context, id int) (*domain.Showing, error) {
	if _, err := s.GetShowing(ctx, id); err != nil {
		return nil, err
	}

	if err := s.shareLock(ctx, "showings", id); err != nil {
		return nil, err
	}

	return s.GetShowing(ctx, id)
}

func (s *Store) UpdateShowing(ctx context.Context, showing *domain.Showing) error {
	return s.write(func(db *database) (func(), error) {
		if _, ok := db.showings[showing.ID]; !ok {
			return nil, domain.ErrRecordNotFound
		}

		if db.scheduleSlotTaken(*showing) {
			return nil, domain.ErrDuplicateRecord
		}

		undo := restore(db.showings, showing.ID)
		db.showings[showing.ID] = copyShowing(*showing)

		return undo, nil
	})
}

func (s *Store) DeleteShowing(ctx context.Context, id int) error {
	return s.write(func(db *database) (func(), error) {
		if _, ok := db.showings[id]; !ok {
			return nil, domain.ErrRecordNotFound
		}

		undo := restore(db.showings, id)
		delete(db.showings, id)

		return undo, nil
	})
}

func (s *Store) ListShowingsInRoom(ctx context.Context, roomID int, from, to time.Time) ([]domain.Showing, error) {
	var showings []domain.Showing

	err := s.read(func(db *database) error {
		showings = sortedValues(db.showings, func(sh domain.Showing) bool {
			return sh.RoomID == roomID && !sh.StartTime.Before(from) && !sh.StartTime.After(to)
		}, compareShowings)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range showings {
		showings[i] = copyShowing(showings[i])
	}

	return showings, nil
}

func (s *Store) LongestShowingInRoom(ctx context.Context, roomID int) (int, error) {
	longest := 0

	err := s.read(func(db *database) error {
		for _, sh := range db.showings {
			if sh.RoomID != roomID {
				continue
			}
			if movie, ok := db.movies[sh.MovieID]; ok {
				longest = max(longest, movie.Duration)
			}
		}
		return nil
	})

	return longest, err
}

func (s *Store) ListShowings(ctx context.Context, filter domain.ShowingFilter, p domain.Pagination) ([]domain.Showing, *domain.Metadata, error) {
	var (
		page     []domain.Showing
		metadata *domain.Metadata
	)

	err := s.read(func(db *database) error {
		matching := sortedValues(db.showings, filter.Matches, compareShowings)

		start, end := p.Window(len(matching))
		page = make([]domain.Showing, 0, end-start)
		for _, sh := range matching[start:end] {
			page = append(page, copyShowing(sh))
		}

		metadata = domain.NewMetadata(len(matching), p)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return page, metadata, nil
}

func (s *Store) FindShowingByScheduleAndStart(ctx context.Context, scheduleID int, start time.Time) (*domain.Showing, error) {
	var found *domain.Showing

	err := s.read(func(db *database) error {
		for _, sh := range db.showings {
			if sh.ScheduleID != nil && *sh.ScheduleID == scheduleID && sh.StartTime.Equal(start) {
				c := copyShowing(sh)
				found = &c
				return nil
			}
		}
		return domain.ErrRecordNotFound
	})

	return found, err
}

func (s *Store) CountReservationsByShowing(ctx context.Context, showingID int) (int, error) {
	count := 0

	err := s.read(func(db *database) error {
		for _, r := range db.reservations {
			if r.ShowingID == showingID {
				count++
			}
		}
		return nil
	})

	return count, err
}
