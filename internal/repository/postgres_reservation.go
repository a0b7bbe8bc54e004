package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const reservationColumns = `id, user_id, showing_id, created_at, status, payment_method, payment_date, transaction_id, version, ticket_token`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var (
		r             domain.Reservation
		status        string
		paymentMethod *string
		transactionID *string
		ticketToken   *string
	)

	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.ShowingID,
		&r.CreatedAt,
		&status,
		&paymentMethod,
		&r.PaymentDate,
		&transactionID,
		&r.Version,
		&ticketToken,
	)
	if err != nil {
		return nil, mapError(err)
	}

	r.Status = domain.ReservationStatus(status)
	r.PaymentMethod = domain.PaymentMethod(deref(paymentMethod))
	r.TransactionID = deref(transactionID)
	r.TicketToken = deref(ticketToken)

	return &r, nil
}

func (p *PostgresStore) CreateReservation(ctx context.Context, reservation *domain.Reservation) error {
	return p.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		db := tx.(*PostgresStore).db

		query := `
			INSERT INTO reservations (user_id, showing_id, status, version, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`

		err := db.QueryRow(
			ctx,
			query,
			reservation.UserID,
			reservation.ShowingID,
			string(reservation.Status),
			reservation.Version,
			reservation.CreatedAt,
		).Scan(&reservation.ID)
		if err != nil {
			return mapError(err)
		}

		seatIDs := make([]int, len(reservation.Seats))
		ticketTypes := make([]string, len(reservation.Seats))
		prices := make([]string, len(reservation.Seats))
		for i, line := range reservation.Seats {
			seatIDs[i] = line.SeatID
			ticketTypes[i] = string(line.TicketType)
			prices[i] = line.Price.StringFixed(2)
		}

		query = `
			INSERT INTO reservation_seats (reservation_id, seat_id, ticket_type, price)
			SELECT $1, t.seat_id, t.ticket_type, t.price::numeric
			FROM unnest($2::int[], $3::text[], $4::text[]) AS t(seat_id, ticket_type, price)
			RETURNING id, seat_id
		`

		rows, err := db.Query(ctx, query, reservation.ID, seatIDs, ticketTypes, prices)
		if err != nil {
			return mapError(err)
		}
		defer rows.Close()

		lineIDs := make(map[int]int, len(reservation.Seats))
		for rows.Next() {
			var id, seatID int
			if err := rows.Scan(&id, &seatID); err != nil {
				return mapError(err)
			}
			lineIDs[seatID] = id
		}

		if err = rows.Err(); err != nil {
			return mapError(err)
		}

		for i := range reservation.Seats {
			reservation.Seats[i].ReservationID = reservation.ID
			reservation.Seats[i].ID = lineIDs[reservation.Seats[i].SeatID]
		}

		return nil
	})
}

func (p *PostgresStore) GetReservation(ctx context.Context, id int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	return p.loadReservation(ctx, p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) LockReservation(ctx context.Context, id int) (*domain.Reservation, error) {
	if err := p.requireTx(); err != nil {
		return nil, err
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`

	return p.loadReservation(ctx, p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) GetReservationByTicketToken(ctx context.Context, token string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE ticket_token = $1`

	return p.loadReservation(ctx, p.db.QueryRow(ctx, query, token))
}

func (p *PostgresStore) loadReservation(ctx context.Context, row pgx.Row) (*domain.Reservation, error) {
	reservation, err := scanReservation(row)
	if err != nil {
		return nil, err
	}

	lines, err := p.retrieveReservationSeats(ctx, []int{reservation.ID})
	if err != nil {
		return nil, err
	}

	reservation.Seats = lines[reservation.ID]
	return reservation, nil
}

func (p *PostgresStore) retrieveReservationSeats(ctx context.Context, reservationIDs []int) (map[int][]domain.ReservationSeat, error) {
	query := `
		SELECT id, reservation_id, seat_id, ticket_type, price
		FROM reservation_seats
		WHERE reservation_id = ANY($1)
		ORDER BY reservation_id, id
	`

	rows, err := p.db.Query(ctx, query, reservationIDs)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	lines := make(map[int][]domain.ReservationSeat, len(reservationIDs))

	for rows.Next() {
		var line domain.ReservationSeat
		var ticketType string

		err := rows.Scan(&line.ID, &line.ReservationID, &line.SeatID, &ticketType, &line.Price)
		if err != nil {
			return nil, mapError(err)
		}

		line.TicketType = domain.TicketType(ticketType)
		lines[line.ReservationID] = append(lines[line.ReservationID], line)
	}

	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return lines, nil
}

func (p *PostgresStore) UpdateReservation(ctx context.Context, reservation *domain.Reservation, expectedVersion int) error {
	query := `
		UPDATE reservations
		SET status = $2,
			payment_method = $3,
			payment_date = $4,
			transaction_id = $5,
			ticket_token = $6,
			version = version + 1
		WHERE id = $1 AND version = $7
		RETURNING version
	`

	err := p.db.QueryRow(
		ctx,
		query,
		reservation.ID,
		string(reservation.Status),
		nullString(string(reservation.PaymentMethod)),
		reservation.PaymentDate,
		nullString(reservation.TransactionID),
		nullString(reservation.TicketToken),
		expectedVersion,
	).Scan(&reservation.Version)

	if err == nil {
		return nil
	}

	err = mapError(err)
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}

	var exists bool
	if err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, reservation.ID).Scan(&exists); err != nil {
		return mapError(err)
	}

	if exists {
		return fmt.Errorf("reservation %d is no longer at version %d: %w", reservation.ID, expectedVersion, domain.ErrEditConflict)
	}

	return domain.ErrRecordNotFound
}

func (p *PostgresStore) ListReservationsByUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.Reservation, *domain.Metadata, error) {

	query := `
		SELECT COUNT(*) OVER(), ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, mapError(err)
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	totalRecords := 0

	for rows.Next() {
		reservation, err := scanReservation(countingRow{row: rows, count: &totalRecords})
		if err != nil {
			return nil, nil, err
		}

		reservations = append(reservations, *reservation)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, mapError(err)
	}

	if len(reservations) == 0 && pagination.Page > 1 {
		// OFFSET past the end returns no window row to read the total from.
		err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE user_id = $1`, userID).Scan(&totalRecords)
		if err != nil {
			return nil, nil, mapError(err)
		}
	}

	ids := make([]int, len(reservations))
	for i, r := range reservations {
		ids[i] = r.ID
	}

	lines, err := p.retrieveReservationSeats(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	for i := range reservations {
		reservations[i].Seats = lines[reservations[i].ID]
	}

	return reservations, domain.NewMetadata(totalRecords, pagination), nil
}

// countingRow scans a leading COUNT(*) OVER() column into count before the
// remaining columns.
type countingRow struct {
	row   pgx.Row
	count *int
}

func (c countingRow) Scan(dest ...any) error {
	return c.row.Scan(append([]any{c.count}, dest...)...)
}

func (p *PostgresStore) OccupiedSeatIDs(ctx context.Context, showingID, excludeReservationID int) ([]int, error) {
	statuses := make([]string, 0, 2)
	for _, status := range domain.OccupyingStatuses() {
		statuses = append(statuses, string(status))
	}

	query := `
		SELECT DISTINCT rs.seat_id
		FROM reservation_seats rs
		JOIN reservations r ON r.id = rs.reservation_id
		WHERE r.showing_id = $1 AND r.status = ANY($2::text[]) AND r.id <> $3
		ORDER BY rs.seat_id
	`

	rows, err := p.db.Query(ctx, query, showingID, statuses, excludeReservationID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	seatIDs := make([]int, 0)

	for rows.Next() {
		var seatID int
		if err := rows.Scan(&seatID); err != nil {
			return nil, mapError(err)
		}

		seatIDs = append(seatIDs, seatID)
	}

	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return seatIDs, nil
}

func (p *PostgresStore) RecordTicketAccess(ctx context.Context, access domain.TicketAccess) error {
	query := `
		INSERT INTO ticket_access_logs (token, reservation_id, valid, accessed_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := p.db.Exec(ctx, query, access.Token, nullInt(access.ReservationID), access.Valid, access.AccessedAt)
	return mapError(err)
}
