package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// AdminHandler implements the admin dashboard, listings and the
// destructive reset.  All routes are gated by the admin middleware.
type AdminHandler struct {
	Bookings BookingStore
	Shows    ShowStore
	Movies   MovieStore
	Users    UserStore
	Log      zerolog.Logger
}

// IsAdmin handles GET /api/admin/is-admin.  Reaching it at all means the
// admin middleware let the request through.
func (h *AdminHandler) IsAdmin(c echo.Context) error {
	return ok(c, echo.Map{"isAdmin": true})
}

// Dashboard handles GET /api/admin/dashboard.  Every figure is recomputed
// from the store on each request; there is no cached aggregate to drift.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	paidCount, revenue, err := h.Bookings.PaidStats(ctx)
	if err != nil {
		h.Log.Error().Err(err).Msg("dashboard: booking stats")
		return fail(c, "unable to load dashboard")
	}
	activeShows, err := h.upcomingShowsWithMovies(ctx)
	if err != nil {
		h.Log.Error().Err(err).Msg("dashboard: active shows")
		return fail(c, "unable to load dashboard")
	}
	totalUsers, err := h.Users.Count(ctx)
	if err != nil {
		h.Log.Error().Err(err).Msg("dashboard: user count")
		return fail(c, "unable to load dashboard")
	}

	return ok(c, echo.Map{"dashboardData": echo.Map{
		"totalBookings": paidCount,
		"totalRevenue":  revenue,
		"activeShows":   activeShows,
		"totalUser":     totalUsers,
	}})
}

// AllShows handles GET /api/admin/all-shows: upcoming shows with their
// movie documents attached, soonest first.
func (h *AdminHandler) AllShows(c echo.Context) error {
	shows, err := h.upcomingShowsWithMovies(c.Request().Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("all shows")
		return fail(c, "unable to load shows")
	}
	return ok(c, echo.Map{"shows": shows})
}

// AllBookings handles GET /api/admin/all-bookings: every booking, newest
// first, with user, show and movie attached.
func (h *AdminHandler) AllBookings(c echo.Context) error {
	ctx := c.Request().Context()
	bookings, err := h.Bookings.ListAll(ctx)
	if err != nil {
		h.Log.Error().Err(err).Msg("all bookings: list")
		return fail(c, "unable to load bookings")
	}
	details, err := attachBookingDetails(ctx, bookings, h.Shows, h.Movies, h.Users)
	if err != nil {
		h.Log.Error().Err(err).Msg("all bookings: attach")
		return fail(c, "unable to load bookings")
	}
	return ok(c, echo.Map{"bookings": details})
}

// Reset handles POST /api/admin/reset.  Deletion order matters: bookings
// reference shows and shows reference movies, so each collection is emptied
// only after its dependents.  Users mirror the external identity store and
// are left untouched.
func (h *AdminHandler) Reset(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.Bookings.DeleteAll(ctx); err != nil {
		h.Log.Error().Err(err).Msg("reset: bookings")
		return fail(c, "reset failed")
	}
	if err := h.Shows.DeleteAll(ctx); err != nil {
		h.Log.Error().Err(err).Msg("reset: shows")
		return fail(c, "reset failed")
	}
	if err := h.Movies.DeleteAll(ctx); err != nil {
		h.Log.Error().Err(err).Msg("reset: movies")
		return fail(c, "reset failed")
	}
	return ok(c, echo.Map{"message": "All movies, shows and bookings deleted"})
}

func (h *AdminHandler) upcomingShowsWithMovies(ctx context.Context) ([]model.ShowWithMovie, error) {
	shows, err := h.Shows.ListUpcoming(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(shows))
	seen := map[string]struct{}{}
	for _, s := range shows {
		if _, dup := seen[s.MovieID]; !dup {
			seen[s.MovieID] = struct{}{}
			ids = append(ids, s.MovieID)
		}
	}
	movies, err := h.Movies.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.ShowWithMovie, 0, len(shows))
	for _, s := range shows {
		out = append(out, model.ShowWithMovie{Show: s, Movie: movies[s.MovieID]})
	}
	return out, nil
}

// attachBookingDetails joins bookings with their shows, movies and users in
// three batched queries.  Bookings whose show or user has since been
// deleted are returned with those fields nil rather than dropped.
func attachBookingDetails(ctx context.Context, bookings []model.Booking, shows ShowStore, movies MovieStore, users UserStore) ([]model.BookingDetail, error) {
	showIDs := make([]primitive.ObjectID, 0, len(bookings))
	userIDs := make([]string, 0, len(bookings))
	seenShows := map[primitive.ObjectID]struct{}{}
	seenUsers := map[string]struct{}{}
	for _, b := range bookings {
		if _, dup := seenShows[b.ShowID]; !dup {
			seenShows[b.ShowID] = struct{}{}
			showIDs = append(showIDs, b.ShowID)
		}
		if _, dup := seenUsers[b.UserID]; !dup {
			seenUsers[b.UserID] = struct{}{}
			userIDs = append(userIDs, b.UserID)
		}
	}

	showDocs, err := shows.ListByIDs(ctx, showIDs)
	if err != nil {
		return nil, err
	}
	movieIDs := make([]string, 0, len(showDocs))
	seenMovies := map[string]struct{}{}
	for _, s := range showDocs {
		if _, dup := seenMovies[s.MovieID]; !dup {
			seenMovies[s.MovieID] = struct{}{}
			movieIDs = append(movieIDs, s.MovieID)
		}
	}
	movieDocs, err := movies.ListByIDs(ctx, movieIDs)
	if err != nil {
		return nil, err
	}
	userDocs, err := users.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]model.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		detail := model.BookingDetail{Booking: b, User: userDocs[b.UserID]}
		if s, found := showDocs[b.ShowID]; found {
			detail.Show = &model.ShowWithMovie{Show: *s, Movie: movieDocs[s.MovieID]}
		}
		out = append(out, detail)
	}
	return out, nil
}
