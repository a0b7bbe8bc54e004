package app

import (
	"net/http"
)

func (app *Application) GetSeatAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	showingID, err := readIDParam(r, "showingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seats, err := app.booking.ListSeatAvailability(r.Context(), showingID)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := ShowingSeatsResponse{
		ShowingID: showingID,
		Seats:     make([]SeatAvailabilityResponse, len(seats)),
	}
	for i, s := range seats {
		resp.Seats[i] = SeatAvailabilityResponse{
			SeatResponse: toSeatResponse(s.Seat),
			Occupied:     s.Occupied,
			Sellable:     s.Sellable(),
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateSeatHandler(w http.ResponseWriter, r *http.Request) {
	seatID, err := readIDParam(r, "seatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var req UpdateSeatRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}

	seat, err := app.booking.SetSeatEnabled(r.Context(), seatID, *req.Enabled)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatResponse(*seat), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
