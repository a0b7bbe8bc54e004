package app

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *Application) IssueTicketHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := app.contextGetIdentity(r)

	id, err := readIDParam(r, "reservationId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, err := app.booking.IssueTicketToken(r.Context(), id, identity.UserID)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, TicketTokenResponse{ReservationID: id, Token: token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) VerifyTicketHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		app.badRequestResponse(w, r, errors.New("token must not be empty"))
		return
	}

	verification, err := app.booking.VerifyTicket(r.Context(), token)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := TicketVerificationResponse{
		Valid:         verification.Valid,
		Message:       verification.Message,
		ReservationID: verification.ReservationID,
		ShowingID:     verification.ShowingID,
		SeatCount:     verification.SeatCount,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
