// Package scheduler emits deferred-task events to the external job broker.
// Publishing is fire-and-forget from the request path: a broker outage is
// logged by the caller and never fails the originating request.
package scheduler

import (
	"context"
	"time"
)

// Task types handled by the background worker.
const (
	// TaskPaymentRecheck re-queries the payment processor for a booking's
	// session some minutes after checkout began, converging bookings whose
	// webhook delivery was lost.
	TaskPaymentRecheck = "payment.recheck"
	// TaskBookingConfirmed sends the confirmation email for a paid booking.
	TaskBookingConfirmed = "booking.confirmed"
	// TaskShowAdded notifies users that a new show went on sale.
	TaskShowAdded = "show.added"
)

// PaymentRecheckDelay is how long after booking creation the deferred
// status re-check runs.  The payment session itself lives for 30 minutes,
// so an open session at re-check time is left alone.
const PaymentRecheckDelay = 10 * time.Minute

// Task is the payload delivered to the worker.  Only the fields relevant
// to the task type are set.
type Task struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id,omitempty"`
	MovieTitle string    `json:"movie_title,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Publisher is the port the handlers hold on the job broker.
type Publisher interface {
	// Publish enqueues a task for immediate processing.
	Publish(ctx context.Context, task Task) error
	// PublishDelayed enqueues a task that becomes visible to the worker
	// only after the given delay.
	PublishDelayed(ctx context.Context, task Task, delay time.Duration) error
}
