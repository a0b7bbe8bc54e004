package app

import (
	"fmt"
	"net/http"
)

func (app *Application) CreateReservationHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := app.contextGetIdentity(r)

	var req CreateReservationRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}

	reservation, err := app.booking.CreateReservation(r.Context(), identity.UserID, req.ShowingID, req.selections())
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	headers := http.Header{}
	headers.Set("Location", fmt.Sprintf("/v1/reservations/%d", reservation.ID))

	err = app.writeJSON(w, http.StatusCreated, toReservationResponse(reservation), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := app.contextGetIdentity(r)

	id, err := readIDParam(r, "reservationId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reservation, err := app.booking.GetReservation(r.Context(), id, identity.UserID)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toReservationResponse(reservation), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationsOfUserHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := app.contextGetIdentity(r)

	pagination, err := readPagination(r)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	reservations, metadata, err := app.booking.ListUserReservations(r.Context(), identity.UserID, pagination)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := UserReservationsResponse{
		Reservations: make([]ReservationResponse, len(reservations)),
		Metadata:     toMetadata(metadata),
	}
	for i := range reservations {
		resp.Reservations[i] = toReservationResponse(&reservations[i])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := app.contextGetIdentity(r)

	id, err := readIDParam(r, "reservationId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reservation, err := app.booking.CancelReservation(r.Context(), id, identity.UserID)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toReservationResponse(reservation), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
