package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (p *PostgresStore) CreateMovie(ctx context.Context, movie *domain.Movie) error {
	query := `
		INSERT INTO movies (title, duration_minutes)
		VALUES ($1, $2)
		RETURNING id
	`

	err := p.db.QueryRow(ctx, query, movie.Title, movie.Duration).Scan(&movie.ID)
	return mapError(err)
}

func (p *PostgresStore) GetMovie(ctx context.Context, id int) (*domain.Movie, error) {
	query := `SELECT id, title, duration_minutes FROM movies WHERE id = $1`

	var movie domain.Movie

	err := p.db.QueryRow(ctx, query, id).Scan(&movie.ID, &movie.Title, &movie.Duration)
	if err != nil {
		return nil, mapError(err)
	}

	return &movie, nil
}

// CreateRoom inserts the room and bulk-copies its seats, then reads the
// generated seat ids back into seats.
func (p *PostgresStore) CreateRoom(ctx context.Context, room *domain.Room, seats []domain.Seat) error {
	return p.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		db := tx.(*PostgresStore).db

		query := `
			INSERT INTO rooms (name, total_rows, seats_per_row)
			VALUES ($1, $2, $3)
			RETURNING id
		`

		err := db.QueryRow(ctx, query, room.Name, room.TotalRows, room.SeatsPerRow).Scan(&room.ID)
		if err != nil {
			return mapError(err)
		}

		rows := make([][]any, 0, len(seats))
		for _, seat := range seats {
			rows = append(rows, []any{room.ID, seat.Row, seat.Number, string(seat.Type), seat.Enabled})
		}

		_, err = db.CopyFrom(
			ctx,
			pgx.Identifier{"seats"},
			[]string{"room_id", "seat_row", "seat_number", "seat_type", "enabled"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return mapError(err)
		}

		created, err := tx.ListSeatsByRoom(ctx, room.ID)
		if err != nil {
			return err
		}

		ids := make(map[[2]int]int, len(created))
		for _, seat := range created {
			ids[[2]int{seat.Row, seat.Number}] = seat.ID
		}

		for i := range seats {
			seats[i].RoomID = room.ID
			seats[i].ID = ids[[2]int{seats[i].Row, seats[i].Number}]
		}

		return nil
	})
}

func (p *PostgresStore) GetRoom(ctx context.Context, id int) (*domain.Room, error) {
	return p.getRoom(ctx, `SELECT id, name, total_rows, seats_per_row FROM rooms WHERE id = $1`, id)
}

func (p *PostgresStore) LockRoom(ctx context.Context, id int) (*domain.Room, error) {
	if err := p.requireTx(); err != nil {
		return nil, err
	}

	return p.getRoom(ctx, `SELECT id, name, total_rows, seats_per_row FROM rooms WHERE id = $1 FOR UPDATE`, id)
}

func (p *PostgresStore) getRoom(ctx context.Context, query string, id int) (*domain.Room, error) {
	var room domain.Room

	err := p.db.QueryRow(ctx, query, id).Scan(&room.ID, &room.Name, &room.TotalRows, &room.SeatsPerRow)
	if err != nil {
		return nil, mapError(err)
	}

	return &room, nil
}
