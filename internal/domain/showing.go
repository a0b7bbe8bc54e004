package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShowingBreak is the cleaning gap appended to every showing when checking
// room occupancy.
const ShowingBreak = 15 * time.Minute

type Showing struct {
	ID         int
	MovieID    int
	RoomID     int
	StartTime  time.Time
	BasePrice  decimal.Decimal
	VIPPrice   decimal.NullDecimal
	ScheduleID *int
}

// ShowingFilter narrows a showing listing. Zero fields do not filter; From and
// To bound the start time inclusively.
type ShowingFilter struct {
	MovieID int
	From    time.Time
	To      time.Time
}

func (f ShowingFilter) Matches(s Showing) bool {
	if f.MovieID != 0 && s.MovieID != f.MovieID {
		return false
	}
	if !f.From.IsZero() && s.StartTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.StartTime.After(f.To) {
		return false
	}

	return true
}

// Interval is a half-open [Start, End) span of room time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// OccupiedInterval returns the span a showing of a movie lasting duration
// minutes blocks its room for.
func OccupiedInterval(start time.Time, duration int) Interval {
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(duration)*time.Minute + ShowingBreak),
	}
}

func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// SeatPrice snapshots the price of one seat line. VIP seats use the VIP
// price when the showing defines one.
func (s Showing) SeatPrice(seatType SeatType, ticket TicketType) decimal.Decimal {
	price := s.BasePrice
	if seatType == SeatVIP && s.VIPPrice.Valid {
		price = s.VIPPrice.Decimal
	}

	return price.Mul(ticket.Multiplier()).Round(2)
}

func (s Showing) Started(now time.Time) bool {
	return !s.StartTime.After(now)
}
