// Package payment finalizes provisional holds.
package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/cache"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/events"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/metinatakli/cinema-seat-booking/internal/payment"

const (
	MessageSuccess  = "Payment completed successfully"
	MessageCash     = "Reservation confirmed. Please pay in cash at the cinema box office"
	MessageDeclined = "Payment failed. Please try again"
)

type Processor struct {
	store      domain.Store
	authorizer domain.Authorizer
	validator  *validator.Validate
	cache      domain.AvailabilityCache
	events     domain.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
	newTxnID   func(time.Time) string
	outcomes   metric.Int64Counter
}

type Option func(*Processor)

func WithCache(c domain.AvailabilityCache) Option {
	return func(p *Processor) {
		if c != nil {
			p.cache = c
		}
	}
}

func WithEvents(e domain.EventPublisher) Option {
	return func(p *Processor) {
		if e != nil {
			p.events = e
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func WithTransactionIDs(gen func(time.Time) string) Option {
	return func(p *Processor) {
		if gen != nil {
			p.newTxnID = gen
		}
	}
}

func NewProcessor(store domain.Store, authorizer domain.Authorizer, opts ...Option) *Processor {
	p := &Processor{
		store:      store,
		authorizer: authorizer,
		validator:  appvalidator.NewValidator(),
		cache:      cache.Noop{},
		events:     events.Noop{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		newTxnID:   NewTransactionID,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.outcomes, _ = otel.Meter(instrumentationName).Int64Counter(
		"payment.outcomes",
		metric.WithDescription("Payment attempts by method and outcome"),
	)

	return p
}

// ProcessPayment charges the reservation identified by req for userID.
//
// Seat rows are locked in ascending id order before the reservation row, the
// same order holds use. The reservation lock is held while the authorizer
// runs, so concurrent payments of one reservation queue behind each other.
//
// A declined charge is not an error: the result carries Success=false and the
// reservation moves to PAYMENT_FAILED. If a seat was lost since the hold, the
// reservation is cancelled and a *domain.SeatUnavailableError is returned.
func (p *Processor) ProcessPayment(ctx context.Context, userID int, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	if !req.Method.Valid() {
		return nil, domain.NewValidationError("method", "must be one of CREDIT_CARD, DEBIT_CARD, BLIK, PAYPAL, CASH, MOCK")
	}
	if req.Method == domain.PaymentCreditCard || req.Method == domain.PaymentDebitCard {
		req.Fields.CardNumber = appvalidator.NormalizeCardNumber(req.Fields.CardNumber)
	}

	peek, err := p.store.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}

	if peek.UserID != userID {
		return nil, domain.ErrForbidden
	}

	seatIDs := peek.SeatIDs()
	slices.Sort(seatIDs)

	var (
		result    *domain.PaymentResult
		final     *domain.Reservation
		eventType domain.EventType
		lost      error
	)

	err = p.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		for _, id := range seatIDs {
			if _, err := tx.LockSeat(ctx, id); err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
				return err
			}
		}

		reservation, err := tx.LockReservation(ctx, req.ReservationID)
		if err != nil {
			return err
		}

		if reservation.UserID != userID {
			return domain.ErrForbidden
		}

		if !reservation.Status.Payable() {
			return &domain.InvalidStateError{Status: reservation.Status, Action: "pay for"}
		}

		// cancelLost commits CANCELLED for a reservation that lost a seat and
		// hands back the seat error as the outcome.
		cancelLost := func(r *domain.Reservation, seatErr error) error {
			final, err = booking.WriteWithRetry(ctx, tx, r, nil, func(r *domain.Reservation) error {
				return r.TransitionTo(domain.StatusCancelled, "cancel")
			})
			if err != nil {
				return err
			}

			result, lost, eventType = nil, seatErr, domain.EventSeatConflict
			return nil
		}

		if verr := booking.VerifySeatsAvailability(ctx, tx, reservation); verr != nil {
			if !errors.Is(verr, domain.ErrSeatUnavailable) {
				return verr
			}
			return cancelLost(reservation, verr)
		}

		if err := ValidateFields(p.validator, req.Method, req.Fields); err != nil {
			return err
		}

		amount := reservation.TotalPrice()

		approved := true
		if req.Method != domain.PaymentCash {
			approved, err = p.authorizer.Authorize(ctx, domain.AuthorizationRequest{
				ReservationID: reservation.ID,
				Method:        req.Method,
				Amount:        amount,
			})
			if err != nil {
				return fmt.Errorf("payment authorization failed: %w", err)
			}
		}

		var refreshed *domain.Reservation
		recheck := func(ctx context.Context, fresh *domain.Reservation) error {
			refreshed = fresh
			if !fresh.Status.Payable() {
				return &domain.InvalidStateError{Status: fresh.Status, Action: "pay for"}
			}
			return booking.VerifySeatsAvailability(ctx, tx, fresh)
		}
		seatLostOnRetry := func(err error) bool {
			return refreshed != nil && errors.Is(err, domain.ErrSeatUnavailable)
		}

		result = &domain.PaymentResult{
			ReservationID: reservation.ID,
			Method:        req.Method,
			Amount:        amount,
		}

		if !approved {
			final, err = booking.WriteWithRetry(ctx, tx, reservation, recheck, func(r *domain.Reservation) error {
				return r.TransitionTo(domain.StatusPaymentFailed, "fail payment of")
			})
			if seatLostOnRetry(err) {
				return cancelLost(refreshed, err)
			}
			if err != nil {
				return err
			}

			result.Message = MessageDeclined
			eventType = domain.EventPaymentFailed
			return nil
		}

		paidAt := p.now()
		txnID := p.newTxnID(paidAt)

		final, err = booking.WriteWithRetry(ctx, tx, reservation, recheck, func(r *domain.Reservation) error {
			if err := r.TransitionTo(domain.StatusPaid, "pay for"); err != nil {
				return err
			}
			r.PaymentMethod = req.Method
			r.PaymentDate = &paidAt
			r.TransactionID = txnID
			return nil
		})
		if seatLostOnRetry(err) {
			return cancelLost(refreshed, err)
		}
		if err != nil {
			return err
		}

		result.Success = true
		result.TransactionID = txnID
		result.PaymentDate = &paidAt
		result.Message = MessageSuccess
		if req.Method == domain.PaymentCash {
			result.Message = MessageCash
		}
		eventType = domain.EventReservationPaid

		return nil
	})
	if err != nil {
		p.record(ctx, req.Method, "error")
		return nil, err
	}

	p.afterCommit(ctx, eventType, final)

	if lost != nil {
		p.record(ctx, req.Method, "seat_lost")
		p.logger.Warn("reservation cancelled at payment", "reservation_id", req.ReservationID, "reason", lost.Error())
		return nil, lost
	}

	outcome := "declined"
	if result.Success {
		outcome = "paid"
	}
	p.record(ctx, req.Method, outcome)

	p.logger.Info("payment processed",
		"reservation_id", result.ReservationID,
		"method", result.Method,
		"success", result.Success,
		"amount", result.Amount.StringFixed(2))

	return result, nil
}

func (p *Processor) afterCommit(ctx context.Context, eventType domain.EventType, r *domain.Reservation) {
	if err := p.cache.Invalidate(ctx, r.ShowingID); err != nil {
		p.logger.Warn("failed to invalidate availability cache", "showing_id", r.ShowingID, "error", err)
	}

	if err := p.events.Publish(ctx, domain.NewReservationEvent(eventType, r, p.now())); err != nil {
		p.logger.Warn("failed to publish reservation event", "type", eventType, "reservation_id", r.ID, "error", err)
	}
}

func (p *Processor) record(ctx context.Context, method domain.PaymentMethod, outcome string) {
	p.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", string(method)),
		attribute.String("outcome", outcome),
	))
}
