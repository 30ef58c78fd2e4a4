package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// UserHandler implements the authenticated user's bookings and favorites.
type UserHandler struct {
	Bookings BookingStore
	Shows    ShowStore
	Movies   MovieStore
	Users    UserStore
	Log      zerolog.Logger
}

// MyBookings handles GET /api/user/bookings: the caller's bookings, newest
// first, with show and movie attached.
func (h *UserHandler) MyBookings(c echo.Context) error {
	ctx := c.Request().Context()
	bookings, err := h.Bookings.ListByUser(ctx, middleware.CurrentUserID(c))
	if err != nil {
		h.Log.Error().Err(err).Msg("my bookings: list")
		return fail(c, "unable to load bookings")
	}
	details, err := attachBookingDetails(ctx, bookings, h.Shows, h.Movies, h.Users)
	if err != nil {
		h.Log.Error().Err(err).Msg("my bookings: attach")
		return fail(c, "unable to load bookings")
	}
	return ok(c, echo.Map{"bookings": details})
}

type updateFavoriteRequest struct {
	MovieID string `json:"movieId"`
}

// UpdateFavorite handles POST /api/user/update-favorite: toggles the movie
// in the caller's favorites list.
func (h *UserHandler) UpdateFavorite(c echo.Context) error {
	var req updateFavoriteRequest
	if err := c.Bind(&req); err != nil || req.MovieID == "" {
		return fail(c, "movieId is required")
	}
	favorite, err := h.Users.ToggleFavorite(c.Request().Context(), middleware.CurrentUserID(c), req.MovieID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return fail(c, "user not found")
	} else if err != nil {
		h.Log.Error().Err(err).Msg("update favorite")
		return fail(c, "unable to update favorites")
	}
	return ok(c, echo.Map{"message": "Favorite movies updated", "favorite": favorite})
}

// Favorites handles GET /api/user/favorites: the movie documents the
// caller has starred.
func (h *UserHandler) Favorites(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.Users.GetByID(ctx, middleware.CurrentUserID(c))
	if errors.Is(err, repository.ErrUserNotFound) {
		return fail(c, "user not found")
	} else if err != nil {
		h.Log.Error().Err(err).Msg("favorites: load user")
		return fail(c, "unable to load favorites")
	}
	movieDocs, err := h.Movies.ListByIDs(ctx, user.Favorites)
	if err != nil {
		h.Log.Error().Err(err).Msg("favorites: load movies")
		return fail(c, "unable to load favorites")
	}
	movies := make([]*model.Movie, 0, len(user.Favorites))
	for _, id := range user.Favorites {
		if m, found := movieDocs[id]; found {
			movies = append(movies, m)
		}
	}
	return ok(c, echo.Map{"movies": movies})
}
