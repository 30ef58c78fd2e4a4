// Package payment defines the port onto the external payment processor and
// its hosted-checkout sessions.  Handlers and the reconciler depend on the
// Provider interface; the Stripe implementation lives in stripe.go and a
// test double substitutes for it in tests.
package payment

import (
	"context"
	"errors"
	"time"
)

// Session statuses as this application distinguishes them.  Open sessions
// can still be paid; complete sessions are settled; expired sessions can
// never be paid and the stored checkout link should be discarded.
const (
	StatusOpen     = "open"
	StatusComplete = "complete"
	StatusExpired  = "expired"
)

// ErrSessionNotFound is returned when the processor no longer knows the
// session id.  The reconciler treats it like an expired session.
var ErrSessionNotFound = errors.New("payment session not found")

// Session is the processor's view of one checkout transaction.
type Session struct {
	ID     string
	URL    string
	Status string
	Paid   bool
}

// SessionRequest describes the checkout session to create for a booking.
// Amount is in the show's price unit; the implementation converts to the
// processor's minor units.
type SessionRequest struct {
	Amount      float64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
	ExpiresIn   time.Duration
}

// WebhookEvent is the verified content of a processor webhook delivery.
type WebhookEvent struct {
	Type      string
	SessionID string
	Paid      bool
	Metadata  map[string]string
}

// Provider is the capability the rest of the application holds on the
// payment processor.
type Provider interface {
	// CreateSession opens a time-bounded hosted checkout for the request.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// GetSession re-queries the processor for a session's current state.
	GetSession(ctx context.Context, id string) (*Session, error)
	// VerifyWebhook checks a delivery's signature against the shared secret
	// and decodes the event.  A signature failure must return an error and
	// no event.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
