package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	StatusProvisionalHold ReservationStatus = "PROVISIONAL_HOLD"
	StatusPaid            ReservationStatus = "PAID"
	StatusPaymentFailed   ReservationStatus = "PAYMENT_FAILED"
	StatusCancelled       ReservationStatus = "CANCELLED"
)

// transitions lists every legal status change. A repeated failure on a retried
// payment keeps the reservation in PAYMENT_FAILED.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusProvisionalHold: {StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPaymentFailed:   {StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPaid:            nil,
	StatusCancelled:       nil,
}

func (s ReservationStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	return slices.Contains(transitions[s], next)
}

func (s ReservationStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Occupying reports whether a reservation in this status makes its seats
// unavailable to everyone else.
func (s ReservationStatus) Occupying() bool {
	return s == StatusProvisionalHold || s == StatusPaid
}

func (s ReservationStatus) Payable() bool {
	return s == StatusProvisionalHold || s == StatusPaymentFailed
}

// OccupyingStatuses is the store-facing form of Occupying.
func OccupyingStatuses() []ReservationStatus {
	return []ReservationStatus{StatusProvisionalHold, StatusPaid}
}

type TicketType string

const (
	TicketNormal  TicketType = "NORMAL"
	TicketReduced TicketType = "REDUCED"
	TicketStudent TicketType = "STUDENT"
)

var ticketDiscounts = map[TicketType]decimal.Decimal{
	TicketNormal:  decimal.NewFromInt(1),
	TicketReduced: decimal.RequireFromString("0.8"),
	TicketStudent: decimal.RequireFromString("0.7"),
}

func (t TicketType) Valid() bool {
	_, ok := ticketDiscounts[t]
	return ok
}

// Multiplier is the factor applied to the seat price for this ticket type.
func (t TicketType) Multiplier() decimal.Decimal {
	if m, ok := ticketDiscounts[t]; ok {
		return m
	}

	return decimal.NewFromInt(1)
}

type Reservation struct {
	ID            int
	UserID        int
	ShowingID     int
	CreatedAt     time.Time
	Status        ReservationStatus
	PaymentMethod PaymentMethod
	PaymentDate   *time.Time
	TransactionID string
	Version       int
	TicketToken   string
	Seats         []ReservationSeat
}

type ReservationSeat struct {
	ID            int
	ReservationID int
	SeatID        int
	TicketType    TicketType
	Price         decimal.Decimal
}

type SeatSelection struct {
	SeatID     int
	TicketType TicketType
}

// TotalPrice is derived from the snapshotted seat prices and never stored.
func (r *Reservation) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, seat := range r.Seats {
		total = total.Add(seat.Price)
	}

	return total
}

func (r *Reservation) SeatIDs() []int {
	ids := make([]int, len(r.Seats))
	for i, seat := range r.Seats {
		ids[i] = seat.SeatID
	}

	return ids
}

// TransitionTo moves the reservation to next or returns an *InvalidStateError
// naming the current status.
func (r *Reservation) TransitionTo(next ReservationStatus, action string) error {
	if !r.Status.CanTransitionTo(next) {
		return &InvalidStateError{Status: r.Status, Action: action}
	}

	r.Status = next
	return nil
}

// Clone returns a deep copy that can be mutated without touching r.
func (r *Reservation) Clone() *Reservation {
	c := *r
	c.Seats = slices.Clone(r.Seats)
	if r.PaymentDate != nil {
		d := *r.PaymentDate
		c.PaymentDate = &d
	}

	return &c
}

type TicketVerification struct {
	Valid         bool
	Message       string
	ReservationID int
	ShowingID     int
	SeatCount     int
}

type TicketAccess struct {
	Token         string
	ReservationID int
	Valid         bool
	AccessedAt    time.Time
}
