// Package router maps URL paths and verbs onto the handlers and applies
// the middleware each surface needs.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
	Bookings        *handler.BookingHandler
	Shows           *handler.ShowHandler
	Admin           *handler.AdminHandler
	Users           *handler.UserHandler
	PaymentWebhook  *handler.PaymentWebhookHandler
	IdentityWebhook *handler.IdentityWebhookHandler
}

// Register wires all routes.  The two webhook endpoints sit outside the
// bearer-auth surface: their callers authenticate by payload signature, not
// by session token.  cacheMW caches only the public show listings; rateMW
// is applied across the whole API.
func Register(e *echo.Echo, h Handlers, jwtSecret, adminEmail string, cacheMW, rateMW echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	e.POST("/api/stripe", h.PaymentWebhook.Handle)
	e.POST("/api/clerk", h.IdentityWebhook.Handle)

	api := e.Group("/api", rateMW)

	// Public browse endpoints; short-TTL cached, no authentication.
	show := api.Group("/show")
	show.GET("/all", h.Shows.GetShows, cacheMW)
	show.GET("/:movieId", h.Shows.GetShow, cacheMW)

	// Admin-only show management.
	auth := middleware.Auth(jwtSecret)
	admin := middleware.RequireAdmin(adminEmail)
	show.GET("/now-playing", h.Shows.NowPlaying, auth, admin)
	show.POST("/add", h.Shows.AddShow, auth, admin)

	booking := api.Group("/booking", auth)
	booking.POST("/create", h.Bookings.CreateBooking)
	booking.GET("/seats/:showId", h.Bookings.GetOccupiedSeats)
	booking.POST("/check-status", h.Bookings.CheckBookingStatus)

	user := api.Group("/user", auth)
	user.GET("/bookings", h.Users.MyBookings)
	user.POST("/update-favorite", h.Users.UpdateFavorite)
	user.GET("/favorites", h.Users.Favorites)

	adm := api.Group("/admin", auth, admin)
	adm.GET("/is-admin", h.Admin.IsAdmin)
	adm.GET("/dashboard", h.Admin.Dashboard)
	adm.GET("/all-shows", h.Admin.AllShows)
	adm.GET("/all-bookings", h.Admin.AllBookings)
	adm.POST("/reset", h.Admin.Reset)
}
