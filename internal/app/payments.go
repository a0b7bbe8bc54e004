package app

import (
	"net/http"
)

// ProcessPaymentHandler answers 200 for both approved and declined charges;
// the body's success flag tells them apart.
func (app *Application) ProcessPaymentHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := app.contextGetIdentity(r)

	var req PaymentRequestBody
	if !app.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := app.payments.ProcessPayment(r.Context(), identity.UserID, req.toDomain())
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toPaymentResponse(result), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
