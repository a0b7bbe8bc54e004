package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const seatColumns = `id, room_id, seat_row, seat_number, seat_type, enabled`

func scanSeat(row pgx.Row) (*domain.Seat, error) {
	var seat domain.Seat
	var seatType string

	err := row.Scan(&seat.ID, &seat.RoomID, &seat.Row, &seat.Number, &seatType, &seat.Enabled)
	if err != nil {
		return nil, mapError(err)
	}

	seat.Type = domain.SeatType(seatType)
	return &seat, nil
}

func (p *PostgresStore) GetSeat(ctx context.Context, id int) (*domain.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`

	return scanSeat(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) LockSeat(ctx context.Context, id int) (*domain.Seat, error) {
	if err := p.requireTx(); err != nil {
		return nil, err
	}

	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1 FOR UPDATE`

	return scanSeat(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) ListSeatsByRoom(ctx context.Context, roomID int) ([]domain.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE room_id = $1
		ORDER BY seat_row, seat_number
	`

	rows, err := p.db.Query(ctx, query, roomID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)

	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}

		seats = append(seats, *seat)
	}

	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return seats, nil
}

func (p *PostgresStore) UpdateSeatEnabled(ctx context.Context, id int, enabled bool) error {
	query := `UPDATE seats SET enabled = $2 WHERE id = $1`

	tag, err := p.db.Exec(ctx, query, id, enabled)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
