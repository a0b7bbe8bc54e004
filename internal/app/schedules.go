package app

import (
	"fmt"
	"net/http"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/scheduling"
)

func (req CreateScheduleRequest) toInput() (scheduling.ScheduleInput, error) {
	startTime, err := domain.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return scheduling.ScheduleInput{}, domain.NewValidationError("startTime", "must be a time in HH:MM format")
	}

	return scheduling.ScheduleInput{
		MovieID:   req.MovieID,
		RoomID:    req.RoomID,
		Weekday:   weekdays[req.Weekday],
		StartTime: startTime,
		StartDate: req.StartDate.Time,
		EndDate:   req.EndDate.Time,
		BasePrice: req.BasePrice,
		VIPPrice:  req.VIPPrice,
	}, nil
}

func (req UpdateScheduleRequest) toUpdate() (scheduling.ScheduleUpdate, error) {
	update := scheduling.ScheduleUpdate{
		BasePrice:     req.BasePrice,
		VIPPrice:      req.VIPPrice,
		ClearVIPPrice: req.ClearVIPPrice,
	}

	if req.Weekday != nil {
		weekday := weekdays[*req.Weekday]
		update.Weekday = &weekday
	}

	if req.StartTime != nil {
		startTime, err := domain.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			return scheduling.ScheduleUpdate{}, domain.NewValidationError("startTime", "must be a time in HH:MM format")
		}
		update.StartTime = &startTime
	}

	if req.StartDate != nil {
		update.StartDate = &req.StartDate.Time
	}
	if req.EndDate != nil {
		update.EndDate = &req.EndDate.Time
	}

	return update, nil
}

func (app *Application) CreateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}

	input, err := req.toInput()
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	schedule, err := app.scheduling.CreateSchedule(r.Context(), input)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	headers := http.Header{}
	headers.Set("Location", fmt.Sprintf("/v1/schedules/%d", schedule.ID))

	err = app.writeJSON(w, http.StatusCreated, toScheduleResponse(schedule), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	schedules, err := app.scheduling.ListSchedules(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := SchedulesResponse{Schedules: make([]ScheduleResponse, len(schedules))}
	for i := range schedules {
		resp.Schedules[i] = toScheduleResponse(&schedules[i])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "scheduleId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	schedule, err := app.scheduling.GetSchedule(r.Context(), id)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toScheduleResponse(schedule), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "scheduleId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var req UpdateScheduleRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	schedule, err := app.scheduling.UpdateSchedule(r.Context(), id, update)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toScheduleResponse(schedule), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "scheduleId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.scheduling.DeleteSchedule(r.Context(), id); err != nil {
		app.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) GenerateShowingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "scheduleId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	result, err := app.scheduling.GenerateShowings(r.Context(), id)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := GenerationResponse{
		ScheduleID: result.ScheduleID,
		Created:    result.Created,
		Skipped:    result.Skipped,
		Showings:   toShowingResponses(result.Showings),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
