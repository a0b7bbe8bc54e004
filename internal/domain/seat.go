package domain

import "cmp"

type SeatType string

const (
	SeatStandard SeatType = "STANDARD"
	SeatVIP      SeatType = "VIP"
)

type Seat struct {
	ID      int
	RoomID  int
	Row     int
	Number  int
	Type    SeatType
	Enabled bool
}

type SeatAvailability struct {
	Seat
	Occupied bool
}

// Sellable is false for disabled seats regardless of reservations.
func (s SeatAvailability) Sellable() bool {
	return s.Enabled && !s.Occupied
}

func CompareSeats(a, b Seat) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}

	return cmp.Compare(a.Number, b.Number)
}

type Room struct {
	ID          int
	Name        string
	TotalRows   int
	SeatsPerRow int
}

// GenerateSeatLayout lays out rows and numbers starting at 1. The two
// centermost rows are VIP.
func GenerateSeatLayout(room Room) []Seat {
	seats := make([]Seat, 0, room.TotalRows*room.SeatsPerRow)
	vipRow := room.TotalRows / 2

	for row := 1; row <= room.TotalRows; row++ {
		seatType := SeatStandard
		if row == vipRow || row == vipRow+1 {
			seatType = SeatVIP
		}

		for number := 1; number <= room.SeatsPerRow; number++ {
			seats = append(seats, Seat{
				RoomID:  room.ID,
				Row:     row,
				Number:  number,
				Type:    seatType,
				Enabled: true,
			})
		}
	}

	return seats
}
