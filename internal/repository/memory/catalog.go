package memory

import (
	"context"
	"fmt"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (s *Store) CreateMovie(ctx context.Context, movie *domain.Movie) error {
	return s.write(func(db *database) (func(), error) {
		movie.ID = db.next("movies")
		undo := restore(db.movies, movie.ID)
		db.movies[movie.ID] = *movie

		return undo, nil
	})
}

func (s *Store) GetMovie(ctx context.Context, id int) (*domain.Movie, error) {
	var movie domain.Movie

	err := s.read(func(db *database) error {
		m, ok := db.movies[id]
		if !ok {
			return domain.ErrRecordNotFound
		}
		movie = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &movie, nil
}

// CreateRoom stores the room and its seats, assigning ids to both in place.
func (s *Store) CreateRoom(ctx context.Context, room *domain.Room, seats []domain.Seat) error {
	return s.write(func(db *database) (func(), error) {
		positions := make(map[[2]int]bool, len(seats))
		for _, seat := range seats {
			pos := [2]int{seat.Row, seat.Number}
			if positions[pos] {
				return nil, fmt.Errorf("duplicate seat row %d number %d: %w", seat.Row, seat.Number, domain.ErrDuplicateRecord)
			}
			positions[pos] = true
		}

		room.ID = db.next("rooms")
		undos := []func(){restore(db.rooms, room.ID)}
		db.rooms[room.ID] = *room

		for i := range seats {
			seats[i].ID = db.next("seats")
			seats[i].RoomID = room.ID
			undos = append(undos, restore(db.seats, seats[i].ID))
			db.seats[seats[i].ID] = seats[i]
		}

		return func() {
			for i := len(undos) - 1; i >= 0; i-- {
				undos[i]()
			}
		}, nil
	})
}

func (s *Store) GetRoom(ctx context.Context, id int) (*domain.Room, error) {
	var room domain.Room

	err := s.read(func(db *database) error {
		r, ok := db.rooms[id]
		if !ok {
			return domain.ErrRecordNotFound
		}
		room = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (s *Store) LockRoom(ctx context.Context, id int) (*domain.Room, error) {
	if _, err := s.GetRoom(ctx, id); err != nil {
		return nil, err
	}

	if err := s.lock(ctx, "rooms", id); err != nil {
		return nil, err
	}

	return s.GetRoom(ctx, id)
}
