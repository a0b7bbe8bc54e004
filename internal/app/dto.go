package app

import (
	"strings"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationIssue `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

func toMetadata(m *domain.Metadata) Metadata {
	if m == nil {
		return Metadata{}
	}

	return Metadata{
		CurrentPage:  m.CurrentPage,
		FirstPage:    m.FirstPage,
		LastPage:     m.LastPage,
		PageSize:     m.PageSize,
		TotalRecords: m.TotalRecords,
	}
}

func formatNullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}

	s := d.Decimal.StringFixed(2)
	return &s
}

// Seats

type SeatResponse struct {
	ID      int    `json:"id"`
	RoomID  int    `json:"roomId"`
	Row     int    `json:"row"`
	Number  int    `json:"number"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

func toSeatResponse(s domain.Seat) SeatResponse {
	return SeatResponse{
		ID:      s.ID,
		RoomID:  s.RoomID,
		Row:     s.Row,
		Number:  s.Number,
		Type:    string(s.Type),
		Enabled: s.Enabled,
	}
}

type SeatAvailabilityResponse struct {
	SeatResponse
	Occupied bool `json:"occupied"`
	Sellable bool `json:"sellable"`
}

type ShowingSeatsResponse struct {
	ShowingID int                        `json:"showingId"`
	Seats     []SeatAvailabilityResponse `json:"seats"`
}

type UpdateSeatRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Reservations

type SeatSelectionRequest struct {
	SeatID     int    `json:"seatId" validate:"gt=0"`
	TicketType string `json:"ticketType" validate:"required,ticket_type"`
}

type CreateReservationRequest struct {
	ShowingID int                    `json:"showingId" validate:"gt=0"`
	Seats     []SeatSelectionRequest `json:"seats" validate:"required,min=1,dive"`
}

func (req CreateReservationRequest) selections() []domain.SeatSelection {
	out := make([]domain.SeatSelection, len(req.Seats))
	for i, s := range req.Seats {
		out[i] = domain.SeatSelection{SeatID: s.SeatID, TicketType: domain.TicketType(s.TicketType)}
	}

	return out
}

type ReservationSeatResponse struct {
	SeatID     int    `json:"seatId"`
	TicketType string `json:"ticketType"`
	Price      string `json:"price"`
}

type ReservationResponse struct {
	ID            int                       `json:"id"`
	UserID        int                       `json:"userId"`
	ShowingID     int                       `json:"showingId"`
	Status        string                    `json:"status"`
	CreatedAt     time.Time                 `json:"createdAt"`
	PaymentMethod string                    `json:"paymentMethod,omitempty"`
	PaymentDate   *time.Time                `json:"paymentDate,omitempty"`
	TransactionID string                    `json:"transactionId,omitempty"`
	TotalPrice    string                    `json:"totalPrice"`
	Seats         []ReservationSeatResponse `json:"seats"`
}

func toReservationResponse(r *domain.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		ShowingID:     r.ShowingID,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		PaymentMethod: string(r.PaymentMethod),
		PaymentDate:   r.PaymentDate,
		TransactionID: r.TransactionID,
		TotalPrice:    r.TotalPrice().StringFixed(2),
		Seats:         make([]ReservationSeatResponse, len(r.Seats)),
	}

	for i, line := range r.Seats {
		resp.Seats[i] = ReservationSeatResponse{
			SeatID:     line.SeatID,
			TicketType: string(line.TicketType),
			Price:      line.Price.StringFixed(2),
		}
	}

	return resp
}

type UserReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Metadata     Metadata              `json:"metadata"`
}

// Payments

type PaymentRequestBody struct {
	ReservationID int    `json:"reservationId" validate:"gt=0"`
	Method        string `json:"method" validate:"required,payment_method"`
	CardNumber    string `json:"cardNumber,omitempty"`
	CardExpiry    string `json:"cardExpiry,omitempty"`
	CVV           string `json:"cvv,omitempty"`
	BlikCode      string `json:"blikCode,omitempty"`
	WalletEmail   string `json:"walletEmail,omitempty"`
}

func (req PaymentRequestBody) toDomain() domain.PaymentRequest {
	return domain.PaymentRequest{
		ReservationID: req.ReservationID,
		Method:        domain.PaymentMethod(req.Method),
		Fields: domain.PaymentFields{
			CardNumber:  req.CardNumber,
			CardExpiry:  req.CardExpiry,
			CVV:         req.CVV,
			BlikCode:    req.BlikCode,
			WalletEmail: req.WalletEmail,
		},
	}
}

type PaymentResponse struct {
	ReservationID int        `json:"reservationId"`
	Success       bool       `json:"success"`
	Message       string     `json:"message"`
	Method        string     `json:"method"`
	TransactionID string     `json:"transactionId,omitempty"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
	Amount        string     `json:"amount"`
}

func toPaymentResponse(p *domain.PaymentResult) PaymentResponse {
	return PaymentResponse{
		ReservationID: p.ReservationID,
		Success:       p.Success,
		Message:       p.Message,
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		PaymentDate:   p.PaymentDate,
		Amount:        p.Amount.StringFixed(2),
	}
}

// Tickets

type TicketTokenResponse struct {
	ReservationID int    `json:"reservationId"`
	Token         string `json:"token"`
}

type TicketVerificationResponse struct {
	Valid         bool   `json:"valid"`
	Message       string `json:"message"`
	ReservationID int    `json:"reservationId,omitempty"`
	ShowingID     int    `json:"showingId,omitempty"`
	SeatCount     int    `json:"seatCount,omitempty"`
}

// Showings

type ShowingResponse struct {
	ID         int       `json:"id"`
	MovieID    int       `json:"movieId"`
	RoomID     int       `json:"roomId"`
	StartTime  time.Time `json:"startTime"`
	BasePrice  string    `json:"basePrice"`
	VIPPrice   *string   `json:"vipPrice"`
	ScheduleID *int      `json:"scheduleId"`
}

func toShowingResponse(s domain.Showing) ShowingResponse {
	return ShowingResponse{
		ID:         s.ID,
		MovieID:    s.MovieID,
		RoomID:     s.RoomID,
		StartTime:  s.StartTime,
		BasePrice:  s.BasePrice.StringFixed(2),
		VIPPrice:   formatNullDecimal(s.VIPPrice),
		ScheduleID: s.ScheduleID,
	}
}

func toShowingResponses(showings []domain.Showing) []ShowingResponse {
	out := make([]ShowingResponse, len(showings))
	for i, s := range showings {
		out[i] = toShowingResponse(s)
	}

	return out
}

type ShowingsResponse struct {
	Showings []ShowingResponse `json:"showings"`
}

type PagedShowingsResponse struct {
	Showings []ShowingResponse `json:"showings"`
	Metadata Metadata          `json:"metadata"`
}

type CreateShowingRequest struct {
	MovieID   int                 `json:"movieId" validate:"gt=0"`
	RoomID    int                 `json:"roomId" validate:"gt=0"`
	StartTime time.Time           `json:"startTime" validate:"required"`
	BasePrice decimal.Decimal     `json:"basePrice"`
	VIPPrice  decimal.NullDecimal `json:"vipPrice"`
}

type RescheduleShowingRequest struct {
	StartTime time.Time `json:"startTime" validate:"required"`
}

type UpdatePricesRequest struct {
	BasePrice decimal.Decimal     `json:"basePrice"`
	VIPPrice  decimal.NullDecimal `json:"vipPrice"`
}

// Schedules

var weekdays = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

type CreateScheduleRequest struct {
	MovieID   int                 `json:"movieId" validate:"gt=0"`
	RoomID    int                 `json:"roomId" validate:"gt=0"`
	Weekday   string              `json:"weekday" validate:"required,oneof=SUNDAY MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	StartTime string              `json:"startTime" validate:"required,time_of_day"`
	StartDate types.Date          `json:"startDate" validate:"calendar_date"`
	EndDate   types.Date          `json:"endDate" validate:"calendar_date"`
	BasePrice decimal.Decimal     `json:"basePrice"`
	VIPPrice  decimal.NullDecimal `json:"vipPrice"`
}

// UpdateScheduleRequest is a partial update; omitted fields keep their value.
type UpdateScheduleRequest struct {
	Weekday       *string             `json:"weekday" validate:"omitempty,oneof=SUNDAY MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	StartTime     *string             `json:"startTime" validate:"omitempty,time_of_day"`
	StartDate     *types.Date         `json:"startDate" validate:"omitempty,calendar_date"`
	EndDate       *types.Date         `json:"endDate" validate:"omitempty,calendar_date"`
	BasePrice     *decimal.Decimal    `json:"basePrice"`
	VIPPrice      decimal.NullDecimal `json:"vipPrice"`
	ClearVIPPrice bool                `json:"clearVipPrice"`
}

type ScheduleResponse struct {
	ID        int        `json:"id"`
	MovieID   int        `json:"movieId"`
	RoomID    int        `json:"roomId"`
	Weekday   string     `json:"weekday"`
	StartTime string     `json:"startTime"`
	StartDate types.Date `json:"startDate"`
	EndDate   types.Date `json:"endDate"`
	BasePrice string     `json:"basePrice"`
	VIPPrice  *string    `json:"vipPrice"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toScheduleResponse(s *domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        s.ID,
		MovieID:   s.MovieID,
		RoomID:    s.RoomID,
		Weekday:   strings.ToUpper(s.Weekday.String()),
		StartTime: s.StartTime.String(),
		StartDate: types.Date{Time: s.StartDate},
		EndDate:   types.Date{Time: s.EndDate},
		BasePrice: s.BasePrice.StringFixed(2),
		VIPPrice:  formatNullDecimal(s.VIPPrice),
		CreatedAt: s.CreatedAt,
	}
}

type SchedulesResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
}

type GenerationResponse struct {
	ScheduleID int               `json:"scheduleId"`
	Created    int               `json:"created"`
	Skipped    int               `json:"skipped"`
	Showings   []ShowingResponse `json:"showings"`
}
