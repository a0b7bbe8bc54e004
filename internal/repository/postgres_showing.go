package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const showingColumns = `id, movie_id, room_id, start_time, base_price, vip_price, schedule_id`

func scanShowing(row pgx.Row) (*domain.Showing, error) {
	var showing domain.Showing

	err := row.Scan(
		&showing.ID,
		&showing.MovieID,
		&showing.RoomID,
		&showing.StartTime,
		&showing.BasePrice,
		&showing.VIPPrice,
		&showing.ScheduleID,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return &showing, nil
}

func (p *PostgresStore) CreateShowing(ctx context.Context, showing *domain.Showing) error {
	query := `
		INSERT INTO showings (movie_id, room_id, start_time, base_price, vip_price, schedule_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := p.db.QueryRow(
		ctx,
		query,
		showing.MovieID,
		showing.RoomID,
		showing.StartTime,
		showing.BasePrice,
		showing.VIPPrice,
		showing.ScheduleID,
	).Scan(&showing.ID)

	return mapError(err)
}

func (p *PostgresStore) GetShowing(ctx context.Context, id int) (*domain.Showing, error) {
	query := `SELECT ` + showingColumns + ` FROM showings WHERE id = $1`

	return scanShowing(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) LockShowing(ctx context.Context, id int) (*domain.Showing, error) {
	if err := p.requireTx(); err != nil {
		return nil, err
	}

	query := `SELECT ` + showingColumns + ` FROM showings WHERE id = $1 FOR UPDATE`

	return scanShowing(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) ShareLockShowing(ctx context.Context, id int) (*domain.Showing, error) {
	if err := p.requireTx(); err != nil {
		return nil, err
	}

	query := `SELECT ` + showingColumns + ` FROM showings WHERE id = $1 FOR SHARE`

	return scanShowing(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) UpdateShowing(ctx context.Context, showing *domain.Showing) error {
	query := `
		UPDATE showings
		SET movie_id = $2, room_id = $3, start_time = $4, base_price = $5, vip_price = $6, schedule_id = $7
		WHERE id = $1
	`

	tag, err := p.db.Exec(
		ctx,
		query,
		showing.ID,
		showing.MovieID,
		showing.RoomID,
		showing.StartTime,
		showing.BasePrice,
		showing.VIPPrice,
		showing.ScheduleID,
	)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresStore) DeleteShowing(ctx context.Context, id int) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM showings WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresStore) ListShowingsInRoom(ctx context.Context, roomID int, from, to time.Time) ([]domain.Showing, error) {
	query := `
		SELECT ` + showingColumns + `
		FROM showings
		WHERE room_id = $1 AND start_time BETWEEN $2 AND $3
		ORDER BY start_time, id
	`

	rows, err := p.db.Query(ctx, query, roomID, from, to)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	showings := make([]domain.Showing, 0)

	for rows.Next() {
		showing, err := scanShowing(rows)
		if err != nil {
			return nil, err
		}

		showings = append(showings, *showing)
	}

	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return showings, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

func (p *PostgresStore) ListShowings(
	ctx context.Context,
	filter domain.ShowingFilter,
	pagination domain.Pagination) ([]domain.Showing, *domain.Metadata, error) {

	const where = `
		WHERE ($1 = 0 OR movie_id = $1)
		AND ($2::timestamptz IS NULL OR start_time >= $2)
		AND ($3::timestamptz IS NULL OR start_time <= $3)
	`

	query := `
		SELECT COUNT(*) OVER(), ` + showingColumns + `
		FROM showings` + where + `
		ORDER BY start_time, id
		LIMIT $4 OFFSET $5
	`

	args := []any{filter.MovieID, nullTime(filter.From), nullTime(filter.To)}

	rows, err := p.db.Query(ctx, query, append(args, pagination.Limit(), pagination.Offset())...)
	if err != nil {
		return nil, nil, mapError(err)
	}
	defer rows.Close()

	showings := make([]domain.Showing, 0)
	totalRecords := 0

	for rows.Next() {
		showing, err := scanShowing(countingRow{row: rows, count: &totalRecords})
		if err != nil {
			return nil, nil, err
		}

		showings = append(showings, *showing)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, mapError(err)
	}

	if len(showings) == 0 && pagination.Page > 1 {
		err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM showings`+where, args...).Scan(&totalRecords)
		if err != nil {
			return nil, nil, mapError(err)
		}
	}

	return showings, domain.NewMetadata(totalRecords, pagination), nil
}

func (p *PostgresStore) FindShowingByScheduleAndStart(ctx context.Context, scheduleID int, start time.Time) (*domain.Showing, error) {
	query := `SELECT ` + showingColumns + ` FROM showings WHERE schedule_id = $1 AND start_time = $2`

	return scanShowing(p.db.QueryRow(ctx, query, scheduleID, start))
}

func (p *PostgresStore) LongestShowingInRoom(ctx context.Context, roomID int) (int, error) {
	query := `
		SELECT COALESCE(MAX(m.duration_minutes), 0)
		FROM showings s
		JOIN movies m ON m.id = s.movie_id
		WHERE s.room_id = $1
	`

	var longest int

	err := p.db.QueryRow(ctx, query, roomID).Scan(&longest)
	if err != nil {
		return 0, mapError(err)
	}

	return longest, nil
}

func (p *PostgresStore) CountReservationsByShowing(ctx context.Context, showingID int) (int, error) {
	var count int

	err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE showing_id = $1`, showingID).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}

	return count, nil
}
