package payment

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// sessionCompletedEvent is the processor event type that carries a settled
// checkout session.
const sessionCompletedEvent = "checkout.session.completed"

// StripeProvider implements Provider on top of Stripe Checkout.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider configures the Stripe SDK with the account's secret key
// and keeps the webhook signing secret for delivery verification.
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

// CreateSession opens a hosted checkout session.  The amount is converted
// to minor units by flooring the price-unit amount, matching how bookings
// are charged.
func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(int64(math.Floor(req.Amount)) * 100),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
			},
		}},
	}
	if req.ExpiresIn > 0 {
		params.ExpiresAt = stripe.Int64(time.Now().Add(req.ExpiresIn).Unix())
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return fromStripeSession(s), nil
}

// GetSession retrieves the current state of a checkout session.
func (p *StripeProvider) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return fromStripeSession(s), nil
}

// VerifyWebhook validates the delivery signature and extracts the fields
// the webhook handler acts on.  Event types other than session completion
// come back with SessionID empty and are acknowledged upstream.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, err
	}
	out := &WebhookEvent{Type: string(event.Type)}
	if out.Type != sessionCompletedEvent {
		return out, nil
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, err
	}
	out.SessionID = s.ID
	out.Paid = s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	out.Metadata = s.Metadata
	return out, nil
}

func fromStripeSession(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:     s.ID,
		URL:    s.URL,
		Status: string(s.Status),
		Paid:   s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
}
