package domain

import (
	"context"
	"time"
)

// Store is the transactional persistence boundary. Lock* methods take an
// exclusive row lock held until the enclosing transaction ends and fail with
// ErrNoTransaction outside of WithTx. A lock that cannot be acquired in time
// fails with ErrLockTimeout.
type Store interface {
	// WithTx runs fn in a transaction. The tx store passed to fn must be used
	// for every call that belongs to the transaction. Calling WithTx on a tx
	// store joins the running transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	CatalogStore
	SeatStore
	ShowingStore
	ReservationStore
	ScheduleStore
}

// CatalogStore is the provisioning surface owned by the catalog collaborator.
type CatalogStore interface {
	CreateMovie(ctx context.Context, movie *Movie) error
	GetMovie(ctx context.Context, id int) (*Movie, error)
	CreateRoom(ctx context.Context, room *Room, seats []Seat) error
	GetRoom(ctx context.Context, id int) (*Room, error)
	LockRoom(ctx context.Context, id int) (*Room, error)
}

type SeatStore interface {
	GetSeat(ctx context.Context, id int) (*Seat, error)
	LockSeat(ctx context.Context, id int) (*Seat, error)
	ListSeatsByRoom(ctx context.Context, roomID int) ([]Seat, error)
	UpdateSeatEnabled(ctx context.Context, id int, enabled bool) error
}

type ShowingStore interface {
	CreateShowing(ctx context.Context, showing *Showing) error
	GetShowing(ctx context.Context, id int) (*Showing, error)
	LockShowing(ctx context.Context, id int) (*Showing, error)
	// ShareLockShowing blocks LockShowing callers but not other share
	// lockers, like SELECT ... FOR SHARE.
	ShareLockShowing(ctx context.Context, id int) (*Showing, error)
	UpdateShowing(ctx context.Context, showing *Showing) error
	DeleteShowing(ctx context.Context, id int) error
	// ListShowingsInRoom returns showings whose start time lies in [from, to].
	ListShowingsInRoom(ctx context.Context, roomID int, from, to time.Time) ([]Showing, error)
	// LongestShowingInRoom returns the longest movie duration, in minutes,
	// among the room's showings. A room without showings reports 0.
	LongestShowingInRoom(ctx context.Context, roomID int) (int, error)
	// ListShowings pages through showings matching filter ordered by start
	// time.
	ListShowings(ctx context.Context, filter ShowingFilter, p Pagination) ([]Showing, *Metadata, error)
	FindShowingByScheduleAndStart(ctx context.Context, scheduleID int, start time.Time) (*Showing, error)
	CountReservationsByShowing(ctx context.Context, showingID int) (int, error)
}

type ReservationStore interface {
	// CreateReservation persists the reservation with its seat lines and
	// assigns their ids.
	CreateReservation(ctx context.Context, reservation *Reservation) error
	GetReservation(ctx context.Context, id int) (*Reservation, error)
	LockReservation(ctx context.Context, id int) (*Reservation, error)
	// UpdateReservation writes the mutable reservation fields if the stored
	// version still equals expectedVersion, then increments reservation.Version.
	// A mismatch fails with ErrEditConflict. A ticket token already used by
	// another reservation fails with ErrDuplicateRecord.
	UpdateReservation(ctx context.Context, reservation *Reservation, expectedVersion int) error
	ListReservationsByUser(ctx context.Context, userID int, p Pagination) ([]Reservation, *Metadata, error)
	GetReservationByTicketToken(ctx context.Context, token string) (*Reservation, error)
	// OccupiedSeatIDs lists seats of the showing held by occupying
	// reservations other than excludeReservationID (0 excludes nothing), in
	// ascending order.
	OccupiedSeatIDs(ctx context.Context, showingID, excludeReservationID int) ([]int, error)
	RecordTicketAccess(ctx context.Context, access TicketAccess) error
}

type ScheduleStore interface {
	CreateSchedule(ctx context.Context, schedule *Schedule) error
	GetSchedule(ctx context.Context, id int) (*Schedule, error)
	LockSchedule(ctx context.Context, id int) (*Schedule, error)
	ListSchedules(ctx context.Context) ([]Schedule, error)
	UpdateSchedule(ctx context.Context, schedule *Schedule) error
	DeleteSchedule(ctx context.Context, id int) error
	UnlinkShowingsFromSchedule(ctx context.Context, scheduleID int) error
}

// AvailabilityCache keeps short-lived seat availability snapshots.
type AvailabilityCache interface {
	Get(ctx context.Context, showingID int) ([]SeatAvailability, bool, error)
	Set(ctx context.Context, showingID, roomID int, seats []SeatAvailability) error
	Invalidate(ctx context.Context, showingID int) error
	InvalidateRoom(ctx context.Context, roomID int) error
}

type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationPaid      EventType = "reservation.paid"
	EventPaymentFailed        EventType = "reservation.payment_failed"
	EventSeatConflict         EventType = "reservation.seat_conflict"
)

type ReservationEvent struct {
	Type          EventType
	ReservationID int
	ShowingID     int
	UserID        int
	Status        ReservationStatus
	Amount        string
	OccurredAt    time.Time
}

func NewReservationEvent(t EventType, r *Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ID,
		ShowingID:     r.ShowingID,
		UserID:        r.UserID,
		Status:        r.Status,
		Amount:        r.TotalPrice().StringFixed(2),
		OccurredAt:    at,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
}
