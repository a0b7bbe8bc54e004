package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day must be HH:MM: %w", err)
	}

	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On combines the date part of day with t in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// Schedule is a weekly recurrence rule. StartDate and EndDate are inclusive
// calendar dates; only their year, month and day are meaningful.
type Schedule struct {
	ID        int
	MovieID   int
	RoomID    int
	Weekday   time.Weekday
	StartTime TimeOfDay
	StartDate time.Time
	EndDate   time.Time
	BasePrice decimal.Decimal
	VIPPrice  decimal.NullDecimal
	CreatedAt time.Time
}

// Dates enumerates every date in the range that falls on the schedule weekday.
func (s Schedule) Dates() []time.Time {
	var dates []time.Time

	start := time.Date(s.StartDate.Year(), s.StartDate.Month(), s.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(s.EndDate.Year(), s.EndDate.Month(), s.EndDate.Day(), 0, 0, 0, 0, time.UTC)

	offset := (int(s.Weekday) - int(start.Weekday()) + 7) % 7
	for day := start.AddDate(0, 0, offset); !day.After(end); day = day.AddDate(0, 0, 7) {
		dates = append(dates, day)
	}

	return dates
}

type GenerationResult struct {
	ScheduleID int
	Created    int
	Skipped    int
	Showings   []Showing
}
