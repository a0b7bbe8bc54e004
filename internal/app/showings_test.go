package app

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AdminTestSuite struct {
	suite.Suite
	f *fixture
}

func TestAdminSuite(t *testing.T) {
	suite.Run(t, new(AdminTestSuite))
}

func (s *AdminTestSuite) SetupTest() {
	s.f = newFixture(s.T())
}

func (s *AdminTestSuite) admin(method, path string, body any) *http.Request {
	_, r := executeRequest(s.T(), method, path, body)
	return authorize(s.T(), r, 100, RoleAdmin)
}

func (s *AdminTestSuite) TestAdminRoutesRequireAdminRole() {
	_, r := executeRequest(s.T(), http.MethodGet, "/v1/schedules", nil)
	checkErrorResponse(s.T(), s.f.serve(r), struct {
		wantStatus     int
		wantErrMessage string
	}{http.StatusUnauthorized, ErrUnauthorizedAccess})

	_, r = executeRequest(s.T(), http.MethodGet, "/v1/schedules", nil)
	w := s.f.serve(authorize(s.T(), r, 1, RoleCustomer))
	checkErrorResponse(s.T(), w, struct {
		wantStatus     int
		wantErrMessage string
	}{http.StatusForbidden, ErrAdminRequired})
}

func (s *AdminTestSuite) TestCreateShowingHandler() {
	// The fixture showing blocks the room from 10:00 to 12:11 (116 minutes
	// plus the break).
	day := s.f.showing.StartTime

	tests := []struct {
		name           string
		body           any
		wantStatus     int
		wantErrMessage string
	}{
		{
			name: "back to back",
			body: CreateShowingRequest{
				MovieID:   s.f.movie.ID,
				RoomID:    s.f.room.ID,
				StartTime: day.Add(131 * time.Minute),
				BasePrice: decimal.NewFromInt(18),
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "overlapping",
			body: CreateShowingRequest{
				MovieID:   s.f.movie.ID,
				RoomID:    s.f.room.ID,
				StartTime: day.Add(-time.Hour),
				BasePrice: decimal.NewFromInt(18),
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "non positive price",
			body: CreateShowingRequest{
				MovieID:   s.f.movie.ID,
				RoomID:    s.f.room.ID,
				StartTime: day.Add(24 * time.Hour),
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be greater than zero",
		},
		{
			name: "unknown room",
			body: CreateShowingRequest{
				MovieID:   s.f.movie.ID,
				RoomID:    999,
				StartTime: day.Add(24 * time.Hour),
				BasePrice: decimal.NewFromInt(18),
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
		{
			name:           "missing start",
			body:           map[string]any{"movieId": s.f.movie.ID, "roomId": s.f.room.ID, "basePrice": "18"},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.f.serve(s.admin(http.MethodPost, "/v1/showings", tt.body))

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{tt.wantStatus, tt.wantErrMessage})

			if tt.wantStatus == http.StatusCreated {
				got := decodeBody[ShowingResponse](s.T(), w)
				s.Equal("18.00", got.BasePrice)
				s.Nil(got.VIPPrice)
				s.Equal(fmt.Sprintf("/v1/showings/%d", got.ID), w.Header().Get("Location"))
			}
		})
	}
}

func (s *AdminTestSuite) TestShowingWithReservationsIsFrozen() {
	_, r := executeRequest(s.T(), http.MethodPost, "/v1/reservations", CreateReservationRequest{
		ShowingID: s.f.showing.ID,
		Seats:     []SeatSelectionRequest{{SeatID: s.f.seat(1, 1).ID, TicketType: "NORMAL"}},
	})
	s.Require().Equal(http.StatusCreated, s.f.serve(authorize(s.T(), r, 1, RoleCustomer)).Code)

	path := fmt.Sprintf("/v1/showings/%d", s.f.showing.ID)

	w := s.f.serve(s.admin(http.MethodPatch, path, RescheduleShowingRequest{StartTime: s.f.showing.StartTime.Add(5 * time.Hour)}))
	checkErrorResponse(s.T(), w, struct {
		wantStatus     int
		wantErrMessage string
	}{http.StatusConflict, "the showing already has reservations"})

	w = s.f.serve(s.admin(http.MethodDelete, path, nil))
	s.Equal(http.StatusConflict, w.Code)

	w = s.f.serve(s.admin(http.MethodPut, path+"/prices", UpdatePricesRequest{
		BasePrice: decimal.NewFromInt(25),
		VIPPrice:  decimal.NewNullDecimal(decimal.NewFromInt(35)),
	}))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[ShowingResponse](s.T(), w)
	s.Equal("25.00", got.BasePrice)
	s.Equal(ptr("35.00"), got.VIPPrice)
}

func (s *AdminTestSuite) TestRescheduleAndDeleteShowing() {
	path := fmt.Sprintf("/v1/showings/%d", s.f.showing.ID)
	newStart := s.f.showing.StartTime.Add(30 * time.Minute)

	w := s.f.serve(s.admin(http.MethodPatch, path, RescheduleShowingRequest{StartTime: newStart}))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.True(newStart.Equal(decodeBody[ShowingResponse](s.T(), w).StartTime))

	w = s.f.serve(s.admin(http.MethodDelete, path, nil))
	s.Equal(http.StatusNoContent, w.Code)

	_, r := executeRequest(s.T(), http.MethodGet, path, nil)
	s.Equal(http.StatusNotFound, s.f.serve(r).Code)
}

func (s *AdminTestSuite) TestGetRoomShowingsHandler() {
	tests := []struct {
		name           string
		query          string
		wantStatus     int
		wantErrMessage string
		wantCount      int
	}{
		{name: "default window", wantStatus: http.StatusOK, wantCount: 1},
		{
			name:       "window before the showing",
			query:      "?from=2030-03-04T00:00:00Z&to=2030-03-05T00:00:00Z",
			wantStatus: http.StatusOK,
			wantCount:  0,
		},
		{
			name:           "bad timestamp",
			query:          "?from=yesterday",
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be an RFC 3339 timestamp",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, r := executeRequest(s.T(), http.MethodGet, fmt.Sprintf("/v1/rooms/%d/showings%s", s.f.room.ID, tt.query), nil)
			w := s.f.serve(r)

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{tt.wantStatus, tt.wantErrMessage})

			if tt.wantStatus == http.StatusOK {
				s.Len(decodeBody[ShowingsResponse](s.T(), w).Showings, tt.wantCount)
			}
		})
	}
}

func (s *AdminTestSuite) TestSeatAvailabilityHandler() {
	held, disabled := s.f.seat(1, 1), s.f.seat(1, 2)

	_, r := executeRequest(s.T(), http.MethodPost, "/v1/reservations", CreateReservationRequest{
		ShowingID: s.f.showing.ID,
		Seats:     []SeatSelectionRequest{{SeatID: held.ID, TicketType: "NORMAL"}},
	})
	s.Require().Equal(http.StatusCreated, s.f.serve(authorize(s.T(), r, 1, RoleCustomer)).Code)

	w := s.f.serve(s.admin(http.MethodPatch, fmt.Sprintf("/v1/seats/%d", disabled.ID), UpdateSeatRequest{Enabled: ptr(false)}))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.False(decodeBody[SeatResponse](s.T(), w).Enabled)

	w = s.f.serve(s.admin(http.MethodPatch, fmt.Sprintf("/v1/seats/%d", disabled.ID), map[string]any{}))
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	_, r = executeRequest(s.T(), http.MethodGet, fmt.Sprintf("/v1/showings/%d/seats", s.f.showing.ID), nil)
	w = s.f.serve(r)
	s.Require().Equal(http.StatusOK, w.Code)

	got := decodeBody[ShowingSeatsResponse](s.T(), w)
	s.Len(got.Seats, 20)

	byID := make(map[int]SeatAvailabilityResponse, len(got.Seats))
	for _, seat := range got.Seats {
		byID[seat.ID] = seat
	}

	s.True(byID[held.ID].Occupied)
	s.False(byID[held.ID].Sellable)
	s.False(byID[disabled.ID].Occupied)
	s.False(byID[disabled.ID].Sellable)
	s.True(byID[s.f.seat(2, 1).ID].Sellable)
	s.Equal("VIP", byID[s.f.seat(2, 1).ID].Type)
}

func (s *AdminTestSuite) TestShowingListings() {
	later := s.f.showing.StartTime.Add(72 * time.Hour)
	w := s.f.serve(s.admin(http.MethodPost, "/v1/showings", CreateShowingRequest{
		MovieID:   s.f.movie.ID,
		RoomID:    s.f.room.ID,
		StartTime: later,
		BasePrice: decimal.NewFromInt(18),
	}))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	tests := []struct {
		name           string
		path           string
		wantStatus     int
		wantErrMessage string
		wantStarts     []time.Time
		wantTotal      int
	}{
		{
			name:       "upcoming",
			path:       "/v1/showings/upcoming",
			wantStatus: http.StatusOK,
			wantStarts: []time.Time{s.f.showing.StartTime, later},
			wantTotal:  2,
		},
		{
			name:       "upcoming second page",
			path:       "/v1/showings/upcoming?page=2&pageSize=1",
			wantStatus: http.StatusOK,
			wantStarts: []time.Time{later},
			wantTotal:  2,
		},
		{
			name:       "range",
			path:       "/v1/showings?from=2030-03-06T00:00:00Z&to=2030-03-07T00:00:00Z",
			wantStatus: http.StatusOK,
			wantStarts: []time.Time{s.f.showing.StartTime},
			wantTotal:  1,
		},
		{
			name:           "range without bounds",
			path:           "/v1/showings",
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name:           "inverted range",
			path:           "/v1/showings?from=2030-03-07T00:00:00Z&to=2030-03-06T00:00:00Z",
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must not be before from",
		},
		{
			name:       "by movie",
			path:       fmt.Sprintf("/v1/movies/%d/showings", s.f.movie.ID),
			wantStatus: http.StatusOK,
			wantStarts: []time.Time{s.f.showing.StartTime, later},
			wantTotal:  2,
		},
		{
			name:           "unknown movie",
			path:           "/v1/movies/999/showings",
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
		{
			name:           "page size too large",
			path:           "/v1/showings/upcoming?pageSize=1000",
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be between 1 and 100",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, r := executeRequest(s.T(), http.MethodGet, tt.path, nil)
			w := s.f.serve(r)

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{tt.wantStatus, tt.wantErrMessage})

			if tt.wantStatus != http.StatusOK {
				return
			}

			got := decodeBody[PagedShowingsResponse](s.T(), w)
			s.Equal(tt.wantTotal, got.Metadata.TotalRecords)
			s.Require().Len(got.Showings, len(tt.wantStarts))
			for i, start := range tt.wantStarts {
				s.True(start.Equal(got.Showings[i].StartTime), "showing %d starts at %s", i, got.Showings[i].StartTime)
			}
		})
	}
}
