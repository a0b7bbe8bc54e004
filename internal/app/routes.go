package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

const serviceName = "cinema-seat-booking-api"

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)
	r.Use(app.authenticate)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.GetHealth)

		r.Get("/showings", app.ListShowingsHandler)
		r.Get("/showings/upcoming", app.ListUpcomingShowingsHandler)
		r.Get("/showings/{showingId}", app.GetShowingHandler)
		r.Get("/showings/{showingId}/seats", app.GetSeatAvailabilityHandler)
		r.Get("/rooms/{roomId}/showings", app.GetRoomShowingsHandler)
		r.Get("/movies/{movieId}/showings", app.GetMovieShowingsHandler)
		r.Get("/tickets/{token}/verify", app.VerifyTicketHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.requireAuthentication)

			r.Post("/reservations", app.CreateReservationHandler)
			r.Get("/users/me/reservations", app.GetReservationsOfUserHandler)
			r.Get("/reservations/{reservationId}", app.GetReservationHandler)
			r.Post("/reservations/{reservationId}/cancel", app.CancelReservationHandler)
			r.Post("/reservations/{reservationId}/ticket", app.IssueTicketHandler)
			r.Post("/payments", app.ProcessPaymentHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.requireAdmin)

			r.Post("/showings", app.CreateShowingHandler)
			r.Patch("/showings/{showingId}", app.RescheduleShowingHandler)
			r.Put("/showings/{showingId}/prices", app.UpdateShowingPricesHandler)
			r.Delete("/showings/{showingId}", app.DeleteShowingHandler)

			r.Post("/schedules", app.CreateScheduleHandler)
			r.Get("/schedules", app.ListSchedulesHandler)
			r.Get("/schedules/{scheduleId}", app.GetScheduleHandler)
			r.Put("/schedules/{scheduleId}", app.UpdateScheduleHandler)
			r.Delete("/schedules/{scheduleId}", app.DeleteScheduleHandler)
			r.Post("/schedules/{scheduleId}/generate", app.GenerateShowingsHandler)

			r.Patch("/seats/{seatId}", app.UpdateSeatHandler)
		})
	})

	return r
}
