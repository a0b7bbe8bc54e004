package booking

import (
	"context"
	"errors"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (s *BookingTestSuite) TestIssueTicketToken() {
	r, err := s.service.CreateReservation(context.Background(), 7, s.showing.ID, normal(s.seat(1, 1).ID, s.seat(1, 2).ID))
	s.Require().NoError(err)

	_, err = s.service.IssueTicketToken(context.Background(), r.ID, 7)
	s.ErrorIs(err, domain.ErrInvalidState, "a held reservation has no ticket")

	s.markPaid(r)

	_, err = s.service.IssueTicketToken(context.Background(), r.ID, 8)
	s.ErrorIs(err, domain.ErrForbidden)

	generated := 0
	svc := s.newService(s.store, WithTokenGenerator(func() string {
		generated++
		return "token-1"
	}))

	token, err := svc.IssueTicketToken(context.Background(), r.ID, 7)
	s.Require().NoError(err)
	s.Equal("token-1", token)

	again, err := svc.IssueTicketToken(context.Background(), r.ID, 7)
	s.Require().NoError(err)
	s.Equal(token, again)
	s.Equal(1, generated)
}

func (s *BookingTestSuite) TestTicketTokenCollisionIsNotRetried() {
	first, err := s.service.CreateReservation(context.Background(), 7, s.showing.ID, normal(s.seat(1, 1).ID))
	s.Require().NoError(err)
	s.markPaid(first)

	second, err := s.service.CreateReservation(context.Background(), 7, s.showing.ID, normal(s.seat(1, 2).ID))
	s.Require().NoError(err)
	s.markPaid(second)

	generated := 0
	svc := s.newService(s.store, WithTokenGenerator(func() string {
		generated++
		return "same-token"
	}))

	_, err = svc.IssueTicketToken(context.Background(), first.ID, 7)
	s.Require().NoError(err)
	generated = 0

	_, err = svc.IssueTicketToken(context.Background(), second.ID, 7)
	s.ErrorIs(err, domain.ErrDuplicateRecord)
	s.NotErrorIs(err, domain.ErrConcurrentUpdate)
	s.Equal(1, generated, "a uniqueness failure must not take the version retry path")

	stored, err := s.store.GetReservation(context.Background(), second.ID)
	s.Require().NoError(err)
	s.Empty(stored.TicketToken)
}

func (s *BookingTestSuite) TestVerifyTicket() {
	paid, err := s.service.CreateReservation(context.Background(), 7, s.showing.ID, normal(s.seat(1, 1).ID, s.seat(1, 2).ID))
	s.Require().NoError(err)
	s.markPaid(paid)

	token, err := s.service.IssueTicketToken(context.Background(), paid.ID, 7)
	s.Require().NoError(err)

	verification, err := s.service.VerifyTicket(context.Background(), token)
	s.Require().NoError(err)
	s.Equal(&domain.TicketVerification{
		Valid:         true,
		Message:       ticketValidMessage,
		ReservationID: paid.ID,
		ShowingID:     s.showing.ID,
		SeatCount:     2,
	}, verification)

	verification, err = s.service.VerifyTicket(context.Background(), "no-such-token")
	s.Require().NoError(err)
	s.False(verification.Valid)
	s.Equal(ticketUnknownMessage, verification.Message)

	log := s.store.TicketAccessLog()
	s.Require().Len(log, 2)
	s.True(log[0].Valid)
	s.Equal(paid.ID, log[0].ReservationID)
	s.False(log[1].Valid)
	s.Zero(log[1].ReservationID)
}

func (s *BookingTestSuite) TestVerifyTicketOfUnpaidReservation() {
	r, err := s.service.CreateReservation(context.Background(), 7, s.showing.ID, normal(s.seat(1, 1).ID))
	s.Require().NoError(err)
	paid := s.markPaid(r)

	token, err := s.service.IssueTicketToken(context.Background(), r.ID, 7)
	s.Require().NoError(err)

	stored, err := s.store.GetReservation(context.Background(), r.ID)
	s.Require().NoError(err)
	cancelled := stored.Clone()
	cancelled.Status = domain.StatusCancelled
	s.Require().NoError(s.store.UpdateReservation(context.Background(), cancelled, stored.Version))
	s.NotEqual(paid.Version, cancelled.Version)

	verification, err := s.service.VerifyTicket(context.Background(), token)
	s.Require().NoError(err)
	s.False(verification.Valid)
	s.Equal(ticketNotPaidMessage, verification.Message)
	s.Equal(r.ID, verification.ReservationID)
}

func (s *BookingTestSuite) TestVerifyTicketSurvivesAccessLogFailure() {
	r, err := s.service.CreateReservation(context.Background(), 7, s.showing.ID, normal(s.seat(1, 1).ID))
	s.Require().NoError(err)
	s.markPaid(r)

	token, err := s.service.IssueTicketToken(context.Background(), r.ID, 7)
	s.Require().NoError(err)

	svc := s.newService(faultStore{Store: s.store, accessErr: errors.New("disk full")})

	verification, err := svc.VerifyTicket(context.Background(), token)
	s.Require().NoError(err)
	s.True(verification.Valid)
	s.Empty(s.store.TicketAccessLog())
}
