package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/app"
	"github.com/metinatakli/cinema-seat-booking/internal/cache"
	"github.com/metinatakli/cinema-seat-booking/internal/config"
	"github.com/metinatakli/cinema-seat-booking/internal/mocks"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HTTPTestSuite struct {
	BaseSuite
	authorizer *mocks.MockAuthorizer
	handler    http.Handler
}

func TestHTTPSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	suite.Run(t, new(HTTPTestSuite))
}

func (s *HTTPTestSuite) SetupTest() {
	s.BaseSuite.SetupTest()

	cfg := config.Config{
		Env:       "test",
		JWTSecret: testSecret,
		Timezone:  "UTC",
	}

	s.authorizer = new(mocks.MockAuthorizer)
	application := app.NewApplication(cfg, s.logger, app.Dependencies{
		Store:      s.store,
		Authorizer: s.authorizer,
		Cache:      cache.NewRedisAvailabilityCache(s.redis, 0),
	})
	s.handler = application.Routes()
}

func (s *HTTPTestSuite) do(method, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	var err error
	if body != nil {
		req, err = prepareRequest(method, url, jsonBody(s.T(), body), headers)
	} else {
		req, err = prepareRequest(method, url, nil, headers)
	}
	s.Require().NoError(err)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *HTTPTestSuite) TestReservationScenarios() {
	customer := bearer(s.T(), 1, app.RoleCustomer)
	other := bearer(s.T(), 2, app.RoleCustomer)
	vip := s.seat(2, 2)

	scenarios := []Scenario{
		{
			Name:   "returns 401 if user is not authenticated",
			Method: http.MethodPost,
			URL:    "/v1/reservations",
			Body: jsonBody(s.T(), app.CreateReservationRequest{
				ShowingID: s.showing.ID,
				Seats:     []app.SeatSelectionRequest{{SeatID: vip.ID, TicketType: "NORMAL"}},
			}),
			ExpectedStatus:   http.StatusUnauthorized,
			ExpectedResponse: fmt.Sprintf(`{"message": %q}`, app.ErrUnauthorizedAccess),
		},
		{
			Name:           "returns 422 for an unknown ticket type",
			Method:         http.MethodPost,
			URL:            "/v1/reservations",
			Headers:        customer,
			Body:           jsonBody(s.T(), map[string]any{"showingId": s.showing.ID, "seats": []map[string]any{{"seatId": vip.ID, "ticketType": "SENIOR"}}}),
			ExpectedStatus: http.StatusUnprocessableEntity,
			ExpectedResponse: fmt.Sprintf(`{
				"message": %q,
				"validationErrors": [
					{"field": "seats[0].ticketType", "issue": "must be one of NORMAL, REDUCED, STUDENT"}
				]
			}`, app.ErrValidationFailed),
		},
		{
			Name:    "holds a VIP seat with a student discount",
			Method:  http.MethodPost,
			URL:     "/v1/reservations",
			Headers: customer,
			Body: jsonBody(s.T(), app.CreateReservationRequest{
				ShowingID: s.showing.ID,
				Seats:     []app.SeatSelectionRequest{{SeatID: vip.ID, TicketType: "STUDENT"}},
			}),
			ExpectedStatus: http.StatusCreated,
			ExpectedResponse: fmt.Sprintf(`{
				"id": 1,
				"userId": 1,
				"showingId": %d,
				"status": "PROVISIONAL_HOLD",
				"totalPrice": "21.00",
				"seats": [{"seatId": %d, "ticketType": "STUDENT", "price": "21.00"}]
			}`, s.showing.ID, vip.ID),
			AfterTestFunc: func(t testing.TB, res *http.Response) {
				require.Equal(t, "/v1/reservations/1", res.Header.Get("Location"))
			},
		},
		{
			Name:    "returns 409 when the seat is already held",
			Method:  http.MethodPost,
			URL:     "/v1/reservations",
			Headers: other,
			Body: jsonBody(s.T(), app.CreateReservationRequest{
				ShowingID: s.showing.ID,
				Seats:     []app.SeatSelectionRequest{{SeatID: vip.ID, TicketType: "NORMAL"}},
			}),
			ExpectedStatus:   http.StatusConflict,
			ExpectedResponse: `{"message": "seat row 2, number 2 is not available: the seat is already reserved"}`,
		},
		{
			Name:             "returns 403 for another user's reservation",
			Method:           http.MethodGet,
			URL:              "/v1/reservations/1",
			Headers:          other,
			ExpectedStatus:   http.StatusForbidden,
			ExpectedResponse: fmt.Sprintf(`{"message": %q}`, app.ErrForbiddenAccess),
		},
		{
			Name:           "lists the user's reservations",
			Method:         http.MethodGet,
			URL:            "/v1/users/me/reservations",
			Headers:        customer,
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: fmt.Sprintf(`{
				"reservations": [{
					"id": 1,
					"userId": 1,
					"showingId": %d,
					"status": "PROVISIONAL_HOLD",
					"totalPrice": "21.00",
					"seats": [{"seatId": %d, "ticketType": "STUDENT", "price": "21.00"}]
				}],
				"metadata": {
					"currentPage": 1,
					"firstPage": 1,
					"lastPage": 1,
					"pageSize": 10,
					"totalRecords": 1
				}
			}`, s.showing.ID, vip.ID),
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.handler)
	}
}

func (s *HTTPTestSuite) TestPayAndVerifyTicket() {
	customer := bearer(s.T(), 3, app.RoleCustomer)

	res := s.do(http.MethodPost, "/v1/reservations", app.CreateReservationRequest{
		ShowingID: s.showing.ID,
		Seats: []app.SeatSelectionRequest{
			{SeatID: s.seat(1, 1).ID, TicketType: "NORMAL"},
			{SeatID: s.seat(1, 2).ID, TicketType: "REDUCED"},
		},
	}, customer)
	s.Require().Equal(http.StatusCreated, res.Code, res.Body.String())

	var reservation app.ReservationResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&reservation))
	s.Equal("36.00", reservation.TotalPrice)

	res = s.do(http.MethodPost, fmt.Sprintf("/v1/reservations/%d/ticket", reservation.ID), nil, customer)
	s.Equal(http.StatusConflict, res.Code, res.Body.String())

	s.authorizer.On("Authorize", mock.Anything, mock.Anything).Return(true, nil).Once()

	res = s.do(http.MethodPost, "/v1/payments", app.PaymentRequestBody{
		ReservationID: reservation.ID,
		Method:        "BLIK",
		BlikCode:      "123456",
	}, customer)
	s.Require().Equal(http.StatusOK, res.Code, res.Body.String())
	compareResponse(s.T(), res.Body, fmt.Sprintf(`{
		"reservationId": %d,
		"success": true,
		"message": %q,
		"method": "BLIK",
		"amount": "36.00"
	}`, reservation.ID, payment.MessageSuccess))

	res = s.do(http.MethodPost, fmt.Sprintf("/v1/reservations/%d/ticket", reservation.ID), nil, customer)
	s.Require().Equal(http.StatusOK, res.Code, res.Body.String())

	var ticket app.TicketTokenResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&ticket))
	s.NotEmpty(ticket.Token)

	res = s.do(http.MethodGet, "/v1/tickets/"+ticket.Token+"/verify", nil, nil)
	s.Require().Equal(http.StatusOK, res.Code)
	compareResponse(s.T(), res.Body, fmt.Sprintf(`{
		"valid": true,
		"message": "Ticket is valid",
		"reservationId": %d,
		"showingId": %d,
		"seatCount": 2
	}`, reservation.ID, s.showing.ID))

	res = s.do(http.MethodGet, "/v1/tickets/unknown/verify", nil, nil)
	s.Require().Equal(http.StatusOK, res.Code)
	compareResponse(s.T(), res.Body, `{"valid": false, "message": "Ticket not found"}`)

	res = s.do(http.MethodPost, fmt.Sprintf("/v1/reservations/%d/cancel", reservation.ID), nil, customer)
	s.Equal(http.StatusConflict, res.Code)

	s.authorizer.AssertExpectations(s.T())
}

func (s *HTTPTestSuite) TestSeatAvailabilityReflectsHolds() {
	customer := bearer(s.T(), 4, app.RoleCustomer)
	url := fmt.Sprintf("/v1/showings/%d/seats", s.showing.ID)

	availability := func() app.ShowingSeatsResponse {
		res := s.do(http.MethodGet, url, nil, nil)
		s.Require().Equal(http.StatusOK, res.Code)

		var body app.ShowingSeatsResponse
		s.Require().NoError(json.NewDecoder(res.Body).Decode(&body))
		return body
	}

	before := availability()
	s.Len(before.Seats, 16)
	for _, seat := range before.Seats {
		s.True(seat.Sellable)
	}

	res := s.do(http.MethodPost, "/v1/reservations", app.CreateReservationRequest{
		ShowingID: s.showing.ID,
		Seats:     []app.SeatSelectionRequest{{SeatID: s.seat(4, 1).ID, TicketType: "NORMAL"}},
	}, customer)
	s.Require().Equal(http.StatusCreated, res.Code, res.Body.String())

	after := availability()
	s.True(after.Seats[12].Occupied)
	s.False(after.Seats[12].Sellable)
	s.Equal(s.seat(4, 1).ID, after.Seats[12].ID)

	res = s.do(http.MethodGet, "/v1/showings/999/seats", nil, nil)
	s.Equal(http.StatusNotFound, res.Code)
}

func (s *HTTPTestSuite) TestAdminShowingRules() {
	admin := bearer(s.T(), 100, app.RoleAdmin)
	customer := bearer(s.T(), 5, app.RoleCustomer)

	overlapping := map[string]any{
		"movieId":   s.movie.ID,
		"roomId":    s.room.ID,
		"startTime": s.showing.StartTime.Add(time.Hour),
		"basePrice": "18.00",
	}

	res := s.do(http.MethodPost, "/v1/showings", overlapping, customer)
	s.Equal(http.StatusForbidden, res.Code)

	res = s.do(http.MethodPost, "/v1/showings", overlapping, admin)
	s.Equal(http.StatusConflict, res.Code, res.Body.String())

	backToBack := map[string]any{
		"movieId":   s.movie.ID,
		"roomId":    s.room.ID,
		"startTime": s.showing.StartTime.Add(131 * time.Minute),
		"basePrice": "18.00",
	}
	res = s.do(http.MethodPost, "/v1/showings", backToBack, admin)
	s.Require().Equal(http.StatusCreated, res.Code, res.Body.String())

	res = s.do(http.MethodPost, "/v1/reservations", app.CreateReservationRequest{
		ShowingID: s.showing.ID,
		Seats:     []app.SeatSelectionRequest{{SeatID: s.seat(1, 3).ID, TicketType: "NORMAL"}},
	}, customer)
	s.Require().Equal(http.StatusCreated, res.Code, res.Body.String())

	res = s.do(http.MethodDelete, fmt.Sprintf("/v1/showings/%d", s.showing.ID), nil, admin)
	s.Equal(http.StatusConflict, res.Code, res.Body.String())
}
