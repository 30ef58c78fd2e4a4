// Package handler implements the HTTP API.  Handlers depend on narrow
// store interfaces rather than the Mongo repositories directly so tests can
// wire fakes; the repositories satisfy these interfaces.
//
// All API endpoints answer 200 with a {"success": bool, ...} envelope —
// seat conflicts and missing resources are ordinary unsuccessful results,
// not transport errors.  The two webhook endpoints are the exception and
// speak HTTP status codes, because their callers retry on non-2xx.
package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// MovieStore is the movie persistence used by handlers.
type MovieStore interface {
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	SetTrailerKey(ctx context.Context, id, key string) error
	ListByIDs(ctx context.Context, ids []string) (map[string]*model.Movie, error)
	DeleteAll(ctx context.Context) error
}

// ShowStore is the show persistence used by handlers.
type ShowStore interface {
	CreateMany(ctx context.Context, shows []model.Show) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Show, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Show, error)
	ListUpcoming(ctx context.Context) ([]model.Show, error)
	ListUpcomingByMovie(ctx context.Context, movieID string) ([]model.Show, error)
	ReserveSeats(ctx context.Context, showID primitive.ObjectID, seats []string, userID string) error
	ReleaseSeats(ctx context.Context, showID primitive.ObjectID, seats []string) error
	DeleteAll(ctx context.Context) error
}

// BookingStore is the booking persistence used by handlers.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error)
	SetPaymentSession(ctx context.Context, id primitive.ObjectID, link, sessionID string) error
	MarkPaid(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
	PaidStats(ctx context.Context) (int64, float64, error)
	DeleteAll(ctx context.Context) error
}

// UserStore is the user persistence used by handlers.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	Upsert(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	ToggleFavorite(ctx context.Context, userID, movieID string) (bool, error)
}

// ok writes a 200 response with success set to true plus the given fields.
func ok(c echo.Context, fields echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

// fail writes a 200 response with success set to false and a message.
func fail(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, echo.Map{"success": false, "message": message})
}
