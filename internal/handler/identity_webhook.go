package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// IdentityWebhookHandler keeps the local user collection in sync with the
// external identity provider.  The provider signs deliveries with the svix
// scheme; an unverifiable payload is rejected before any state changes.
// Like the payment webhook, it answers with HTTP status codes because the
// provider retries on non-2xx.
type IdentityWebhookHandler struct {
	Users  UserStore
	Verify *svix.Webhook
	Log    zerolog.Logger
}

// NewIdentityWebhookHandler builds the handler from the shared webhook
// secret.  It returns an error when the secret cannot be parsed.
func NewIdentityWebhookHandler(secret string, users UserStore, log zerolog.Logger) (*IdentityWebhookHandler, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return &IdentityWebhookHandler{Users: users, Verify: wh, Log: log}, nil
}

// identityEvent is the provider's event envelope, reduced to the fields
// this service syncs.
type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ImageURL       string `json:"image_url"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// Handle processes POST /api/clerk.
func (h *IdentityWebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "unreadable payload")
	}
	if err := h.Verify.Verify(body, c.Request().Header); err != nil {
		h.Log.Warn().Err(err).Msg("identity webhook: signature verification failed")
		return c.String(http.StatusBadRequest, "webhook signature verification failed")
	}

	var event identityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.String(http.StatusBadRequest, "malformed payload")
	}
	if event.Data.ID == "" {
		return c.String(http.StatusBadRequest, "missing user id")
	}

	ctx := c.Request().Context()
	switch event.Type {
	case "user.created", "user.updated":
		user := &model.User{
			ID:    event.Data.ID,
			Name:  strings.TrimSpace(event.Data.FirstName + " " + event.Data.LastName),
			Image: event.Data.ImageURL,
		}
		if len(event.Data.EmailAddresses) > 0 {
			user.Email = event.Data.EmailAddresses[0].EmailAddress
		}
		if err := h.Users.Upsert(ctx, user); err != nil {
			h.Log.Error().Err(err).Str("user_id", user.ID).Msg("identity webhook: upsert")
			return c.String(http.StatusInternalServerError, "internal server error")
		}
	case "user.deleted":
		if err := h.Users.Delete(ctx, event.Data.ID); err != nil {
			h.Log.Error().Err(err).Str("user_id", event.Data.ID).Msg("identity webhook: delete")
			return c.String(http.StatusInternalServerError, "internal server error")
		}
	default:
		h.Log.Info().Str("type", event.Type).Msg("identity webhook: unhandled event type")
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
