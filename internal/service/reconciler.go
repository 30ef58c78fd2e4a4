// Package service holds orchestration shared between the HTTP handlers and
// the background worker.
package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
)

// BookingStore is the slice of the booking repository the reconciler needs.
type BookingStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID) error
	ClearPaymentSession(ctx context.Context, id primitive.ObjectID) error
}

// Reconciler converges a booking's paid state with the payment processor.
// It is the polling half of the dual-path reconciliation: the webhook
// handler is the push half, and both funnel into the same guarded MarkPaid
// update, so running the reconciler on an already settled booking changes
// nothing.
type Reconciler struct {
	bookings BookingStore
	payments payment.Provider
	log      zerolog.Logger
}

// NewReconciler wires the reconciler's dependencies.
func NewReconciler(bookings BookingStore, payments payment.Provider, log zerolog.Logger) *Reconciler {
	return &Reconciler{bookings: bookings, payments: payments, log: log}
}

// Reconcile re-queries the processor for the booking's session and applies
// the outcome:
//
//   - already paid, or no session recorded: return the booking unchanged
//   - session complete and paid: mark paid, clear link and session id
//   - session expired, gone, or unretrievable: clear link and session id so
//     the client stops offering a "Pay Now" action; the booking stays unpaid
//   - session still open: leave everything untouched
//
// The returned booking reflects the state after any update.
func (r *Reconciler) Reconcile(ctx context.Context, id primitive.ObjectID) (*model.Booking, error) {
	booking, err := r.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.IsPaid || booking.SessionID == nil {
		return booking, nil
	}

	session, err := r.payments.GetSession(ctx, *booking.SessionID)
	if err != nil {
		// An unretrievable session is terminal for this checkout; the
		// processor's own expiry bounds how long it could still settle.
		r.log.Warn().Err(err).Str("booking_id", id.Hex()).Msg("payment session unretrievable, clearing link")
		if err := r.bookings.ClearPaymentSession(ctx, id); err != nil {
			return nil, err
		}
		return r.bookings.GetByID(ctx, id)
	}

	switch {
	case session.Status == payment.StatusComplete && session.Paid:
		if err := r.bookings.MarkPaid(ctx, id); err != nil {
			return nil, err
		}
		r.log.Info().Str("booking_id", id.Hex()).Msg("booking settled via status re-check")
		return r.bookings.GetByID(ctx, id)
	case session.Status == payment.StatusExpired:
		if err := r.bookings.ClearPaymentSession(ctx, id); err != nil {
			return nil, err
		}
		return r.bookings.GetByID(ctx, id)
	default:
		// Still open: keep the link so the user can finish paying.
		return booking, nil
	}
}
