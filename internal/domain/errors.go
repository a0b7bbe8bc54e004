package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrEditConflict     = errors.New("edit conflict")
	ErrDuplicateRecord  = errors.New("record already exists")
	ErrLockTimeout      = errors.New("timed out waiting for a lock, please retry")
	ErrConcurrentUpdate = errors.New("the reservation was modified concurrently, please retry")
	ErrNoTransaction    = errors.New("row locks can only be acquired inside a transaction")
	ErrForbidden        = errors.New("you do not have permission to act on this resource")

	ErrShowingNotFound        = errors.New("showing not found")
	ErrShowingAlreadyStarted  = errors.New("the showing has already started")
	ErrShowingHasReservations = errors.New("the showing already has reservations")

	// Taxonomy roots matched by the typed errors below.
	ErrSeatUnavailable = errors.New("seat unavailable")
	ErrShowingConflict = errors.New("showing conflict")
	ErrInvalidState    = errors.New("invalid reservation state")
	ErrValidation      = errors.New("validation failed")
)

// SeatUnavailableError names the first seat that failed a hold or verification check.
type SeatUnavailableError struct {
	SeatID int
	Row    int
	Number int
	Reason string
}

func (e *SeatUnavailableError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("seat %d is not available: %s", e.SeatID, e.Reason)
	}

	return fmt.Sprintf("seat row %d, number %d is not available: %s", e.Row, e.Number, e.Reason)
}

func (e *SeatUnavailableError) Is(target error) bool {
	return target == ErrSeatUnavailable
}

type ShowingConflictError struct {
	RoomID    int
	ShowingID int
	Start     time.Time
	End       time.Time
}

func (e *ShowingConflictError) Error() string {
	return fmt.Sprintf("room %d is already booked from %s to %s by showing %d",
		e.RoomID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.ShowingID)
}

func (e *ShowingConflictError) Is(target error) bool {
	return target == ErrShowingConflict
}

type InvalidStateError struct {
	Status ReservationStatus
	Action string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s a reservation with status %s", e.Action, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

type FieldIssue struct {
	Field string
	Issue string
}

type ValidationError struct {
	Issues []FieldIssue
}

func NewValidationError(field, issue string) *ValidationError {
	return &ValidationError{Issues: []FieldIssue{{Field: field, Issue: issue}}}
}

func (e *ValidationError) Add(field, issue string) {
	e.Issues = append(e.Issues, FieldIssue{Field: field, Issue: issue})
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + " " + issue.Issue
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
