package payment

import (
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
)

type cardFields struct {
	CardNumber string `json:"cardNumber" validate:"required,card_number"`
	CardExpiry string `json:"cardExpiry" validate:"required,card_expiry"`
	CVV        string `json:"cvv" validate:"required,cvv"`
}

type blikFields struct {
	BlikCode string `json:"blikCode" validate:"required,blik_code"`
}

type walletFields struct {
	WalletEmail string `json:"walletEmail" validate:"required,wallet_email"`
}

// ValidateFields checks the inputs the method needs. Cash and mock payments
// need none.
func ValidateFields(v *validator.Validate, method domain.PaymentMethod, fields domain.PaymentFields) error {
	var input any

	switch method {
	case domain.PaymentCreditCard, domain.PaymentDebitCard:
		input = cardFields{
			CardNumber: fields.CardNumber,
			CardExpiry: fields.CardExpiry,
			CVV:        fields.CVV,
		}
	case domain.PaymentBlik:
		input = blikFields{BlikCode: fields.BlikCode}
	case domain.PaymentPayPal:
		input = walletFields{WalletEmail: fields.WalletEmail}
	case domain.PaymentCash, domain.PaymentMock:
		return nil
	default:
		return domain.NewValidationError("method", "must be one of CREDIT_CARD, DEBIT_CARD, BLIK, PAYPAL, CASH, MOCK")
	}

	if err := v.Struct(input); err != nil {
		return appvalidator.ToDomainError(err)
	}

	return nil
}
