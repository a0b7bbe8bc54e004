package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const scheduleColumns = `id, movie_id, room_id, weekday, start_time, start_date, end_date, base_price, vip_price, created_at`

func toPgTime(t domain.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Minutes()) * int64(time.Minute/time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) domain.TimeOfDay {
	minutes := int(t.Microseconds / int64(time.Minute/time.Microsecond))
	return domain.TimeOfDay{Hour: minutes / 60, Minute: minutes % 60}
}

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var (
		schedule  domain.Schedule
		weekday   int
		startTime pgtype.Time
	)

	err := row.Scan(
		&schedule.ID,
		&schedule.MovieID,
		&schedule.RoomID,
		&weekday,
		&startTime,
		&schedule.StartDate,
		&schedule.EndDate,
		&schedule.BasePrice,
		&schedule.VIPPrice,
		&schedule.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	schedule.Weekday = time.Weekday(weekday)
	schedule.StartTime = fromPgTime(startTime)

	return &schedule, nil
}

func (p *PostgresStore) CreateSchedule(ctx context.Context, schedule *domain.Schedule) error {
	query := `
		INSERT INTO schedules (movie_id, room_id, weekday, start_time, start_date, end_date, base_price, vip_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		schedule.MovieID,
		schedule.RoomID,
		int(schedule.Weekday),
		toPgTime(schedule.StartTime),
		pgtype.Date{Time: schedule.StartDate, Valid: true},
		pgtype.Date{Time: schedule.EndDate, Valid: true},
		schedule.BasePrice,
		schedule.VIPPrice,
	).Scan(&schedule.ID, &schedule.CreatedAt)

	return mapError(err)
}

func (p *PostgresStore) GetSchedule(ctx context.Context, id int) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	return scanSchedule(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) LockSchedule(ctx context.Context, id int) (*domain.Schedule, error) {
	if err := p.requireTx(); err != nil {
		return nil, err
	}

	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1 FOR UPDATE`

	return scanSchedule(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	rows, err := p.db.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	schedules := make([]domain.Schedule, 0)

	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}

		schedules = append(schedules, *schedule)
	}

	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return schedules, nil
}

func (p *PostgresStore) UpdateSchedule(ctx context.Context, schedule *domain.Schedule) error {
	query := `
		UPDATE schedules
		SET weekday = $2, start_time = $3, start_date = $4, end_date = $5, base_price = $6, vip_price = $7
		WHERE id = $1
	`

	tag, err := p.db.Exec(
		ctx,
		query,
		schedule.ID,
		int(schedule.Weekday),
		toPgTime(schedule.StartTime),
		pgtype.Date{Time: schedule.StartDate, Valid: true},
		pgtype.Date{Time: schedule.EndDate, Valid: true},
		schedule.BasePrice,
		schedule.VIPPrice,
	)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresStore) DeleteSchedule(ctx context.Context, id int) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresStore) UnlinkShowingsFromSchedule(ctx context.Context, scheduleID int) error {
	_, err := p.db.Exec(ctx, `UPDATE showings SET schedule_id = NULL WHERE schedule_id = $1`, scheduleID)
	return mapError(err)
}
