package handler

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/scheduler"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

// paymentSessionTTL is the lifetime of a checkout session.  After this the
// processor expires the session and the deferred re-check clears the link.
const paymentSessionTTL = 30 * time.Minute

// BookingHandler implements booking creation, seat availability and the
// polling half of payment-status reconciliation.
type BookingHandler struct {
	Shows        ShowStore
	Movies       MovieStore
	Bookings     BookingStore
	Payments     payment.Provider
	Events       scheduler.Publisher
	Reconciler   *service.Reconciler
	ClientOrigin string
	Log          zerolog.Logger
}

type createBookingRequest struct {
	ShowID        string   `json:"showId"`
	SelectedSeats []string `json:"selectedSeats"`
}

// CreateBooking handles POST /api/booking/create.  It reserves the
// requested seats atomically, records the booking, opens a hosted checkout
// session scoped to seat-count times show price, and schedules the deferred
// payment re-check.  Occupied seats produce an ordinary unsuccessful
// result; nothing is written in that case.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request().Context()

	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, "invalid request body")
	}
	showID, err := primitive.ObjectIDFromHex(req.ShowID)
	if err != nil {
		return fail(c, "invalid show id")
	}
	seats := normalizeSeats(req.SelectedSeats)
	if len(seats) == 0 {
		return fail(c, "no seats selected")
	}

	show, err := h.Shows.GetByID(ctx, showID)
	if errors.Is(err, repository.ErrShowNotFound) {
		return fail(c, "show not found")
	} else if err != nil {
		h.Log.Error().Err(err).Msg("create booking: load show")
		return fail(c, "unable to create booking")
	}
	movie, err := h.Movies.GetByID(ctx, show.MovieID)
	if err != nil {
		h.Log.Error().Err(err).Str("movie_id", show.MovieID).Msg("create booking: load movie")
		return fail(c, "unable to create booking")
	}

	// Atomic check-and-reserve: either every seat is written or none is.
	if err := h.Shows.ReserveSeats(ctx, showID, seats, userID); err != nil {
		if errors.Is(err, repository.ErrSeatsUnavailable) {
			return fail(c, "selected seats are not available")
		}
		h.Log.Error().Err(err).Msg("create booking: reserve seats")
		return fail(c, "unable to create booking")
	}

	booking := &model.Booking{
		UserID:      userID,
		ShowID:      showID,
		BookedSeats: seats,
		Amount:      float64(len(seats)) * show.ShowPrice,
	}
	if err := h.Bookings.Create(ctx, booking); err != nil {
		h.Log.Error().Err(err).Msg("create booking: insert booking")
		_ = h.Shows.ReleaseSeats(ctx, showID, seats)
		return fail(c, "unable to create booking")
	}

	origin := c.Request().Header.Get("Origin")
	if origin == "" {
		origin = h.ClientOrigin
	}
	session, err := h.Payments.CreateSession(ctx, payment.SessionRequest{
		Amount:      booking.Amount,
		Currency:    "usd",
		ProductName: movie.Title,
		SuccessURL:  origin + "/loading/my-bookings",
		CancelURL:   origin + "/my-bookings",
		Metadata:    map[string]string{"bookingId": booking.ID.Hex()},
		ExpiresIn:   paymentSessionTTL,
	})
	if err != nil {
		h.Log.Error().Err(err).Str("booking_id", booking.ID.Hex()).Msg("create booking: payment session")
		_ = h.Bookings.Delete(ctx, booking.ID)
		_ = h.Shows.ReleaseSeats(ctx, showID, seats)
		return fail(c, "unable to start payment")
	}
	if err := h.Bookings.SetPaymentSession(ctx, booking.ID, session.URL, session.ID); err != nil {
		h.Log.Error().Err(err).Str("booking_id", booking.ID.Hex()).Msg("create booking: store session")
		return fail(c, "unable to create booking")
	}

	// Fire-and-forget: a broker outage must not fail the booking; the
	// client's own polling still converges the payment status.
	task := scheduler.Task{Type: scheduler.TaskPaymentRecheck, BookingID: booking.ID.Hex()}
	if err := h.Events.PublishDelayed(ctx, task, scheduler.PaymentRecheckDelay); err != nil {
		h.Log.Warn().Err(err).Str("booking_id", booking.ID.Hex()).Msg("create booking: schedule re-check")
	}

	return ok(c, echo.Map{"url": session.URL})
}

// GetOccupiedSeats handles GET /api/booking/seats/:showId and returns the
// seat labels currently taken on the show.
func (h *BookingHandler) GetOccupiedSeats(c echo.Context) error {
	showID, err := primitive.ObjectIDFromHex(c.Param("showId"))
	if err != nil {
		return fail(c, "invalid show id")
	}
	show, err := h.Shows.GetByID(c.Request().Context(), showID)
	if errors.Is(err, repository.ErrShowNotFound) {
		return fail(c, "show not found")
	} else if err != nil {
		h.Log.Error().Err(err).Msg("occupied seats: load show")
		return fail(c, "unable to load seats")
	}
	seats := make([]string, 0, len(show.OccupiedSeats))
	for seat := range show.OccupiedSeats {
		seats = append(seats, seat)
	}
	sort.Strings(seats)
	return ok(c, echo.Map{"occupiedSeats": seats})
}

type checkStatusRequest struct {
	BookingID string `json:"bookingId"`
}

// CheckBookingStatus handles POST /api/booking/check-status, the on-demand
// polling path of payment reconciliation.  Re-invoking it on a paid booking
// returns the booking unchanged.
func (h *BookingHandler) CheckBookingStatus(c echo.Context) error {
	var req checkStatusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, "invalid request body")
	}
	bookingID, err := primitive.ObjectIDFromHex(req.BookingID)
	if err != nil {
		return fail(c, "invalid booking id")
	}
	booking, err := h.Reconciler.Reconcile(c.Request().Context(), bookingID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return ok(c, echo.Map{"booking": nil})
	} else if err != nil {
		h.Log.Error().Err(err).Str("booking_id", req.BookingID).Msg("check status")
		return fail(c, "unable to check booking status")
	}
	return ok(c, echo.Map{"booking": booking})
}

// normalizeSeats trims, deduplicates and validates seat labels.  Labels
// become document keys in the occupancy map, so characters with structural
// meaning to the store are rejected outright.
func normalizeSeats(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || strings.ContainsAny(s, ".$") {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
