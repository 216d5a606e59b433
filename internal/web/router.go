package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eventgate/gatekeeper/internal/handlers"
)

func Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handlers.Health)

	// Public token surfaces: the shareable URL and its QR image. Both decode
	// through the same codec as the scanner.
	r.Get("/view/{token}", handlers.ViewInvitation)
	r.Get("/qr/{token}.png", handlers.QR)

	// Operator API (scanning clients and organizer tooling)
	r.Route("/api", func(ar chi.Router) {
		ar.Use(handlers.RequireOperator)

		ar.Post("/checkin", handlers.CheckinSubmit)

		ar.Post("/events", handlers.CreateEvent)
		ar.Post("/events/{id}/guests", handlers.CreateGuest)
		ar.Post("/events/{id}/links", handlers.CreateShareLink)
		ar.Get("/events/{id}/checkins", handlers.ListCheckins)
		ar.Post("/checkins/{id}/invalidate", handlers.InvalidateCheckin)
	})

	return r
}
