package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const (
	ErrUnauthorizedAccess = "You must be authenticated to access this resource"
	ErrInvalidToken       = "Invalid or expired authentication token"
	ErrAdminRequired      = "You must be an administrator to access this resource"
	ErrForbiddenAccess    = "You do not have permission to access this resource"
	ErrNotFound           = "The requested resource not found"
	ErrRetryLater         = "The resource is busy, please retry"
	ErrValidationFailed   = "One or more fields are invalid"
	ErrServerError        = "The server encountered a problem and could not process your request"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string, headers http.Header) {
	resp := ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: app.now(),
	}

	err := app.writeJSON(w, status, resp, headers)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrServerError, nil)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound, nil)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("The %s method is not supported for this resource", r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message, nil)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request, message string) {
	headers := http.Header{}
	headers.Set("WWW-Authenticate", "Bearer")

	app.errorResponse(w, r, http.StatusUnauthorized, message, headers)
}

func (app *Application) forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.errorResponse(w, r, http.StatusForbidden, message, nil)
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, verr *domain.ValidationError) {
	resp := ValidationErrorResponse{
		Message:          ErrValidationFailed,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        app.now(),
		ValidationErrors: make([]ValidationIssue, len(verr.Issues)),
	}

	for i, issue := range verr.Issues {
		resp.ValidationErrors[i] = ValidationIssue{Field: issue.Field, Issue: issue.Issue}
	}

	err := app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

// handleError translates service errors into responses.
func (app *Application) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		app.failedValidationResponse(w, r, verr)

	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, domain.ErrShowingNotFound):
		app.errorResponse(w, r, http.StatusNotFound, ErrNotFound, nil)

	case errors.Is(err, domain.ErrForbidden):
		app.forbiddenResponse(w, r, ErrForbiddenAccess)

	case errors.Is(err, domain.ErrSeatUnavailable),
		errors.Is(err, domain.ErrShowingConflict),
		errors.Is(err, domain.ErrShowingHasReservations),
		errors.Is(err, domain.ErrShowingAlreadyStarted),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrEditConflict),
		errors.Is(err, domain.ErrDuplicateRecord):
		app.errorResponse(w, r, http.StatusConflict, err.Error(), nil)

	case errors.Is(err, domain.ErrLockTimeout), errors.Is(err, domain.ErrConcurrentUpdate):
		headers := http.Header{}
		headers.Set("Retry-After", "1")
		app.errorResponse(w, r, http.StatusServiceUnavailable, err.Error(), headers)

	default:
		app.serverErrorResponse(w, r, err)
	}
}
