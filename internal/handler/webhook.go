package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/movie-ticket-booking/internal/payment"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/scheduler"
)

// sessionCompletedEvent is the only processor event this service acts on.
const sessionCompletedEvent = "checkout.session.completed"

// PaymentWebhookHandler is the push half of payment reconciliation.  Unlike
// the API handlers it answers with HTTP status codes: the processor retries
// deliveries on non-2xx, so 200 means "never send this again" and 500 means
// "try later".
type PaymentWebhookHandler struct {
	Payments payment.Provider
	Bookings BookingStore
	Events   scheduler.Publisher
	Log      zerolog.Logger
}

// Handle processes POST /api/stripe.  Signature verification failures are
// rejected with 400 before any state is read or written.
func (h *PaymentWebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "unreadable payload")
	}
	event, err := h.Payments.VerifyWebhook(body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		h.Log.Warn().Err(err).Msg("payment webhook: signature verification failed")
		return c.String(http.StatusBadRequest, "webhook signature verification failed")
	}

	if event.Type != sessionCompletedEvent {
		h.Log.Info().Str("type", event.Type).Msg("payment webhook: unhandled event type")
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
	if !event.Paid {
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	rawID := event.Metadata["bookingId"]
	if rawID == "" {
		// Acknowledge so the processor stops retrying; nothing can be done
		// for a session this service never annotated.
		h.Log.Error().Str("session_id", event.SessionID).Msg("payment webhook: missing bookingId metadata")
		return c.JSON(http.StatusOK, echo.Map{"received": true, "error": "missing metadata"})
	}
	bookingID, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		h.Log.Error().Str("booking_id", rawID).Msg("payment webhook: malformed bookingId metadata")
		return c.JSON(http.StatusOK, echo.Map{"received": true, "error": "malformed metadata"})
	}

	// Guarded update: a webhook racing the polling path, or a retried
	// delivery, lands on an already paid booking and changes nothing.
	if err := h.Bookings.MarkPaid(c.Request().Context(), bookingID); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.String(http.StatusNotFound, "booking not found")
		}
		h.Log.Error().Err(err).Str("booking_id", rawID).Msg("payment webhook: mark paid")
		return c.String(http.StatusInternalServerError, "internal server error")
	}
	h.Log.Info().Str("booking_id", rawID).Msg("payment webhook: booking settled")

	task := scheduler.Task{Type: scheduler.TaskBookingConfirmed, BookingID: rawID}
	if err := h.Events.Publish(c.Request().Context(), task); err != nil {
		h.Log.Warn().Err(err).Str("booking_id", rawID).Msg("payment webhook: publish confirmation")
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
