package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/scheduling"
)

const defaultShowingWindow = 7 * 24 * time.Hour

func (app *Application) GetShowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "showingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	showing, err := app.scheduling.GetShowing(r.Context(), id)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toShowingResponse(*showing), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetRoomShowingsHandler lists showings of a room starting in [from, to].
// Both bounds are RFC 3339 timestamps; from defaults to now and to to a week
// after from.
func (app *Application) GetRoomShowingsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := readIDParam(r, "roomId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	verr := &domain.ValidationError{}
	qs := r.URL.Query()

	from := app.now()
	if s := qs.Get("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			verr.Add("from", "must be an RFC 3339 timestamp")
		}
	}

	to := from.Add(defaultShowingWindow)
	if s := qs.Get("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			verr.Add("to", "must be an RFC 3339 timestamp")
		}
	}

	if verr.HasIssues() {
		app.failedValidationResponse(w, r, verr)
		return
	}

	showings, err := app.scheduling.ListRoomShowings(r.Context(), roomID, from, to)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, ShowingsResponse{Showings: toShowingResponses(showings)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ListUpcomingShowingsHandler pages through showings that have not started.
func (app *Application) ListUpcomingShowingsHandler(w http.ResponseWriter, r *http.Request) {
	pagination, err := readPagination(r)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	showings, metadata, err := app.scheduling.ListUpcomingShowings(r.Context(), pagination)
	app.writeShowingPage(w, r, showings, metadata, err)
}

// ListShowingsHandler pages through showings of every room starting in
// [from, to]. Both bounds are required RFC 3339 timestamps.
func (app *Application) ListShowingsHandler(w http.ResponseWriter, r *http.Request) {
	verr := &domain.ValidationError{}
	qs := r.URL.Query()

	var from, to time.Time
	if s := qs.Get("from"); s != "" {
		var err error
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			verr.Add("from", "must be an RFC 3339 timestamp")
		}
	}
	if s := qs.Get("to"); s != "" {
		var err error
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			verr.Add("to", "must be an RFC 3339 timestamp")
		}
	}

	if verr.HasIssues() {
		app.failedValidationResponse(w, r, verr)
		return
	}

	pagination, err := readPagination(r)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	showings, metadata, err := app.scheduling.ListShowingsInRange(r.Context(), from, to, pagination)
	app.writeShowingPage(w, r, showings, metadata, err)
}

func (app *Application) GetMovieShowingsHandler(w http.ResponseWriter, r *http.Request) {
	movieID, err := readIDParam(r, "movieId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	pagination, err := readPagination(r)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	showings, metadata, err := app.scheduling.ListMovieShowings(r.Context(), movieID, pagination)
	app.writeShowingPage(w, r, showings, metadata, err)
}

func (app *Application) writeShowingPage(
	w http.ResponseWriter,
	r *http.Request,
	showings []domain.Showing,
	metadata *domain.Metadata,
	err error) {

	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := PagedShowingsResponse{
		Showings: toShowingResponses(showings),
		Metadata: toMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateShowingHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateShowingRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}

	showing, err := app.scheduling.CreateShowing(r.Context(), scheduling.ShowingInput{
		MovieID:   req.MovieID,
		RoomID:    req.RoomID,
		StartTime: req.StartTime,
		BasePrice: req.BasePrice,
		VIPPrice:  req.VIPPrice,
	})
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	headers := http.Header{}
	headers.Set("Location", fmt.Sprintf("/v1/showings/%d", showing.ID))

	err = app.writeJSON(w, http.StatusCreated, toShowingResponse(*showing), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) RescheduleShowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "showingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var req RescheduleShowingRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}

	showing, err := app.scheduling.RescheduleShowing(r.Context(), id, req.StartTime)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toShowingResponse(*showing), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateShowingPricesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "showingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var req UpdatePricesRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}

	showing, err := app.scheduling.UpdateShowingPrices(r.Context(), id, req.BasePrice, req.VIPPrice)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toShowingResponse(*showing), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteShowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "showingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.scheduling.DeleteShowing(r.Context(), id); err != nil {
		app.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
