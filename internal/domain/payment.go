package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentBlik       PaymentMethod = "BLIK"
	PaymentPayPal     PaymentMethod = "PAYPAL"
	PaymentCash       PaymentMethod = "CASH"
	PaymentMock       PaymentMethod = "MOCK"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentBlik, PaymentPayPal, PaymentCash, PaymentMock:
		return true
	}

	return false
}

// PaymentFields holds the method-specific inputs. Only the fields relevant to
// the chosen method are inspected.
type PaymentFields struct {
	CardNumber  string
	CardExpiry  string
	CVV         string
	BlikCode    string
	WalletEmail string
}

type PaymentRequest struct {
	ReservationID int
	Method        PaymentMethod
	Fields        PaymentFields
}

type PaymentResult struct {
	ReservationID int
	Success       bool
	Message       string
	Method        PaymentMethod
	TransactionID string
	PaymentDate   *time.Time
	Amount        decimal.Decimal
}

type AuthorizationRequest struct {
	ReservationID int
	Method        PaymentMethod
	Amount        decimal.Decimal
}

// Authorizer approves or declines a charge. A declined charge is reported as
// false with a nil error; errors mean the authorizer could not decide.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (bool, error)
}
