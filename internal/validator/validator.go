package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

var (
	cardNumberRgx = regexp.MustCompile(`^\d{13,19}$`)
	cardExpiryRgx = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRgx        = regexp.MustCompile(`^\d{3,4}$`)
	blikCodeRgx   = regexp.MustCompile(`^\d{6}$`)
	timeOfDayRgx  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterTagNameFunc(jsonFieldName)

	validator.RegisterValidation("card_number", validateCardNumber)
	validator.RegisterValidation("card_expiry", matches(cardExpiryRgx))
	validator.RegisterValidation("cvv", matches(cvvRgx))
	validator.RegisterValidation("blik_code", matches(blikCodeRgx))
	validator.RegisterValidation("wallet_email", validateWalletEmail)
	validator.RegisterValidation("time_of_day", matches(timeOfDayRgx))
	validator.RegisterValidation("calendar_date", validateCalendarDate)
	validator.RegisterValidation("ticket_type", validateTicketType)
	validator.RegisterValidation("payment_method", validatePaymentMethod)

	return validator
}

// NormalizeCardNumber strips all whitespace from a card number.
func NormalizeCardNumber(number string) string {
	return strings.Join(strings.Fields(number), "")
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}

	return name
}

func matches(rgx *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return rgx.MatchString(fl.Field().String())
	}
}

func validateCardNumber(fl validator.FieldLevel) bool {
	return cardNumberRgx.MatchString(NormalizeCardNumber(fl.Field().String()))
}

func validateWalletEmail(fl validator.FieldLevel) bool {
	email := strings.TrimSpace(fl.Field().String())
	return strings.Contains(email, "@")
}

// validateCalendarDate rejects the zero date left behind by an omitted field.
func validateCalendarDate(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(openapi_types.Date)
	if !ok {
		return false
	}

	return !date.Time.IsZero()
}

func validateTicketType(fl validator.FieldLevel) bool {
	return domain.TicketType(fl.Field().String()).Valid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return domain.PaymentMethod(fl.Field().String()).Valid()
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(err.Param(), " ", ", "))
	case "calendar_date":
		return "must be a date in YYYY-MM-DD format"
	case "unique":
		return "must not contain duplicates"
	case "card_number":
		return "must contain 13 to 19 digits"
	case "card_expiry":
		return "must be a valid expiry date in MM/YY format"
	case "cvv":
		return "must contain 3 or 4 digits"
	case "blik_code":
		return "must contain exactly 6 digits"
	case "wallet_email":
		return "must be a valid email address"
	case "time_of_day":
		return "must be a time in HH:MM format"
	case "ticket_type":
		return "must be one of NORMAL, REDUCED, STUDENT"
	case "payment_method":
		return "must be one of CREDIT_CARD, DEBIT_CARD, BLIK, PAYPAL, CASH, MOCK"
	default:
		return "is invalid"
	}
}

// ToDomainError flattens validator errors into a *domain.ValidationError keyed
// by the JSON field names. Other errors are returned unchanged.
func ToDomainError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	verr := &domain.ValidationError{}
	for _, fe := range errs {
		verr.Add(fieldPath(fe), ValidationMessage(fe))
	}

	return verr
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}

	return fe.Field()
}
