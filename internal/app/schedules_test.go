package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

func calendarDate(year int, month time.Month, day int) types.Date {
	return types.Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (s *AdminTestSuite) fridayEvenings() CreateScheduleRequest {
	return CreateScheduleRequest{
		MovieID:   s.f.movie.ID,
		RoomID:    s.f.room.ID,
		Weekday:   "FRIDAY",
		StartTime: "18:00",
		StartDate: calendarDate(2030, time.March, 8),
		EndDate:   calendarDate(2030, time.March, 29),
		BasePrice: decimal.NewFromInt(22),
		VIPPrice:  decimal.NewNullDecimal(decimal.NewFromInt(32)),
	}
}

func (s *AdminTestSuite) TestScheduleLifecycle() {
	w := s.f.serve(s.admin(http.MethodPost, "/v1/schedules", s.fridayEvenings()))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	created := decodeBody[ScheduleResponse](s.T(), w)
	s.Equal("FRIDAY", created.Weekday)
	s.Equal("18:00", created.StartTime)
	s.Equal("2030-03-08", created.StartDate.Format(time.DateOnly))
	s.Equal(ptr("32.00"), created.VIPPrice)

	path := fmt.Sprintf("/v1/schedules/%d", created.ID)

	w = s.f.serve(s.admin(http.MethodGet, path, nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(created, decodeBody[ScheduleResponse](s.T(), w))

	w = s.f.serve(s.admin(http.MethodGet, "/v1/schedules", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decodeBody[SchedulesResponse](s.T(), w).Schedules, 1)

	w = s.f.serve(s.admin(http.MethodPost, path+"/generate", nil))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	generated := decodeBody[GenerationResponse](s.T(), w)
	s.Equal(4, generated.Created)
	s.Equal(0, generated.Skipped)
	s.Require().Len(generated.Showings, 4)
	for _, showing := range generated.Showings {
		s.Equal(18, showing.StartTime.Hour())
		s.Equal("22.00", showing.BasePrice)
		s.Equal(ptr(created.ID), showing.ScheduleID)
	}

	w = s.f.serve(s.admin(http.MethodPost, path+"/generate", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	rerun := decodeBody[GenerationResponse](s.T(), w)
	s.Equal(0, rerun.Created)
	s.Equal(4, rerun.Skipped)
	s.Empty(rerun.Showings)

	w = s.f.serve(s.admin(http.MethodDelete, path, nil))
	s.Equal(http.StatusNoContent, w.Code)

	w = s.f.serve(s.admin(http.MethodGet, path, nil))
	s.Equal(http.StatusNotFound, w.Code)

	_, r := executeRequest(s.T(), http.MethodGet, fmt.Sprintf("/v1/showings/%d", generated.Showings[0].ID), nil)
	w = s.f.serve(r)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Nil(decodeBody[ShowingResponse](s.T(), w).ScheduleID)
}

func (s *AdminTestSuite) TestCreateScheduleHandlerValidation() {
	tests := []struct {
		name           string
		modify         func(req *CreateScheduleRequest)
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "unknown weekday",
			modify:         func(req *CreateScheduleRequest) { req.Weekday = "FUNDAY" },
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be one of SUNDAY, MONDAY, TUESDAY, WEDNESDAY, THURSDAY, FRIDAY, SATURDAY",
		},
		{
			name:           "bad time",
			modify:         func(req *CreateScheduleRequest) { req.StartTime = "25:00" },
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be a time in HH:MM format",
		},
		{
			name:           "missing date",
			modify:         func(req *CreateScheduleRequest) { req.StartDate = types.Date{} },
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be a date in YYYY-MM-DD format",
		},
		{
			name:           "end before start",
			modify:         func(req *CreateScheduleRequest) { req.EndDate = calendarDate(2030, time.March, 1) },
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must not be before startDate",
		},
		{
			name:           "unknown movie",
			modify:         func(req *CreateScheduleRequest) { req.MovieID = 999 },
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.fridayEvenings()
			tt.modify(&req)

			w := s.f.serve(s.admin(http.MethodPost, "/v1/schedules", req))

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{tt.wantStatus, tt.wantErrMessage})
		})
	}
}

func (s *AdminTestSuite) TestCreateScheduleHandlerRejectsMalformedDate() {
	body := map[string]any{
		"movieId":   s.f.movie.ID,
		"roomId":    s.f.room.ID,
		"weekday":   "FRIDAY",
		"startTime": "18:00",
		"startDate": "08/03/2030",
		"endDate":   "2030-03-29",
		"basePrice": "22",
	}

	w := s.f.serve(s.admin(http.MethodPost, "/v1/schedules", body))
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
}

func (s *AdminTestSuite) TestUpdateScheduleHandler() {
	w := s.f.serve(s.admin(http.MethodPost, "/v1/schedules", s.fridayEvenings()))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[ScheduleResponse](s.T(), w)

	path := fmt.Sprintf("/v1/schedules/%d", created.ID)

	saturday := "SATURDAY"
	w = s.f.serve(s.admin(http.MethodPut, path, UpdateScheduleRequest{
		Weekday:   &saturday,
		StartTime: ptr("20:30"),
		BasePrice: ptr(decimal.NewFromInt(25)),
	}))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	updated := decodeBody[ScheduleResponse](s.T(), w)
	s.Equal("SATURDAY", updated.Weekday)
	s.Equal("20:30", updated.StartTime)
	s.Equal("25.00", updated.BasePrice)
	s.Equal(ptr("32.00"), updated.VIPPrice)
	s.Equal("2030-03-08", updated.StartDate.Format(time.DateOnly))
	s.Equal("2030-03-29", updated.EndDate.Format(time.DateOnly))

	w = s.f.serve(s.admin(http.MethodPost, path+"/generate", nil))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	generated := decodeBody[GenerationResponse](s.T(), w)
	s.Require().Len(generated.Showings, 3)
	for _, showing := range generated.Showings {
		s.Equal(time.Saturday, showing.StartTime.Weekday())
		s.Equal(20, showing.StartTime.Hour())
		s.Equal(30, showing.StartTime.Minute())
	}

	early := calendarDate(2030, time.March, 1)
	w = s.f.serve(s.admin(http.MethodPut, path, UpdateScheduleRequest{EndDate: &early}))
	checkErrorResponse(s.T(), w, struct {
		wantStatus     int
		wantErrMessage string
	}{http.StatusUnprocessableEntity, "must not be before startDate"})

	w = s.f.serve(s.admin(http.MethodPut, path, UpdateScheduleRequest{ClearVIPPrice: true}))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Nil(decodeBody[ScheduleResponse](s.T(), w).VIPPrice)

	w = s.f.serve(s.admin(http.MethodPut, "/v1/schedules/999", UpdateScheduleRequest{Weekday: &saturday}))
	s.Equal(http.StatusNotFound, w.Code)
}
