package booking

import (
	"context"
	"errors"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const (
	ticketUnknownMessage = "Ticket not found"
	ticketNotPaidMessage = "Ticket is not valid: reservation is not paid"
	ticketValidMessage   = "Ticket is valid"
)

// IssueTicketToken returns the ticket token of a paid reservation owned by
// userID, generating it on first use.
func (s *Service) IssueTicketToken(ctx context.Context, reservationID, userID int) (string, error) {
	var token string

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		reservation, err := tx.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}

		if reservation.UserID != userID {
			return domain.ErrForbidden
		}

		if reservation.Status != domain.StatusPaid {
			return &domain.InvalidStateError{Status: reservation.Status, Action: "issue a ticket for"}
		}

		if reservation.TicketToken != "" {
			token = reservation.TicketToken
			return nil
		}

		updated, err := WriteWithRetry(ctx, tx, reservation, nil, func(r *domain.Reservation) error {
			if r.Status != domain.StatusPaid {
				return &domain.InvalidStateError{Status: r.Status, Action: "issue a ticket for"}
			}
			if r.TicketToken == "" {
				r.TicketToken = s.newToken()
			}
			return nil
		})
		if err != nil {
			return err
		}

		token = updated.TicketToken
		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// VerifyTicket reports whether token belongs to a paid reservation. Every
// lookup is written to the access log; a failing log write does not change
// the verdict.
func (s *Service) VerifyTicket(ctx context.Context, token string) (*domain.TicketVerification, error) {
	verification := &domain.TicketVerification{Message: ticketUnknownMessage}
	access := domain.TicketAccess{Token: token, AccessedAt: s.now()}

	reservation, err := s.store.GetReservationByTicketToken(ctx, token)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
	case err != nil:
		return nil, err
	default:
		access.ReservationID = reservation.ID
		verification.ReservationID = reservation.ID
		verification.ShowingID = reservation.ShowingID
		verification.SeatCount = len(reservation.Seats)

		if reservation.Status == domain.StatusPaid {
			verification.Valid = true
			verification.Message = ticketValidMessage
		} else {
			verification.Message = ticketNotPaidMessage
		}
	}

	access.Valid = verification.Valid
	if err := s.store.RecordTicketAccess(ctx, access); err != nil {
		s.logger.Warn("failed to record ticket access", "reservation_id", access.ReservationID, "error", err)
	}

	return verification, nil
}
