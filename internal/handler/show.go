package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-ticket-booking/internal/catalog"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/scheduler"
)

// showTimeLayouts are the accepted formats for a show's date+time string as
// submitted by the admin UI.
var showTimeLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// ShowHandler implements show and movie-catalog management.
type ShowHandler struct {
	Catalog catalog.Client
	Movies  MovieStore
	Shows   ShowStore
	Events  scheduler.Publisher
	Log     zerolog.Logger
}

// NowPlaying handles GET /api/show/now-playing (admin).  It proxies the
// upstream catalog's now-playing listing for the show-creation UI.
func (h *ShowHandler) NowPlaying(c echo.Context) error {
	movies, err := h.Catalog.NowPlaying(c.Request().Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("now playing: catalog fetch")
		return fail(c, "unable to fetch now playing movies")
	}
	return ok(c, echo.Map{"movies": movies})
}

type addShowRequest struct {
	MovieID    json.Number `json:"movieId"`
	ShowsInput []struct {
		Date string   `json:"date"`
		Time []string `json:"time"`
	} `json:"showsInput"`
	ShowPrice float64 `json:"showPrice"`
}

// AddShow handles POST /api/show/add (admin).  A movie unseen by the local
// catalog is fetched and cached first (details, credits and best-effort
// trailer); a cached movie missing its trailer key gets a backfill attempt.
// One show document is inserted per date/time combination supplied.
func (h *ShowHandler) AddShow(c echo.Context) error {
	ctx := c.Request().Context()

	var req addShowRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, "invalid request body")
	}
	movieID := req.MovieID.String()
	if movieID == "" || len(req.ShowsInput) == 0 || req.ShowPrice <= 0 {
		return fail(c, "movieId, showsInput and showPrice are required")
	}

	movie, err := h.Movies.GetByID(ctx, movieID)
	switch {
	case errors.Is(err, repository.ErrMovieNotFound):
		movie, err = h.fetchAndCacheMovie(ctx, movieID)
		if err != nil {
			h.Log.Error().Err(err).Str("movie_id", movieID).Msg("add show: catalog fetch")
			return fail(c, "unable to fetch movie details")
		}
	case err != nil:
		h.Log.Error().Err(err).Msg("add show: load movie")
		return fail(c, "unable to add show")
	case movie.TrailerKey == nil:
		// Cached before trailer lookup existed; try to backfill.
		if videos, err := h.Catalog.MovieVideos(ctx, movieID); err == nil {
			if key := catalog.PickTrailerKey(videos); key != nil {
				if err := h.Movies.SetTrailerKey(ctx, movieID, *key); err != nil {
					h.Log.Warn().Err(err).Str("movie_id", movieID).Msg("add show: trailer backfill")
				}
			}
		}
	}

	var shows []model.Show
	for _, input := range req.ShowsInput {
		for _, t := range input.Time {
			when, err := parseShowTime(input.Date, t)
			if err != nil {
				return fail(c, "invalid show date or time: "+input.Date+"T"+t)
			}
			shows = append(shows, model.Show{
				MovieID:       movieID,
				ShowDateTime:  when,
				ShowPrice:     req.ShowPrice,
				OccupiedSeats: map[string]string{},
			})
		}
	}
	if err := h.Shows.CreateMany(ctx, shows); err != nil {
		h.Log.Error().Err(err).Msg("add show: insert shows")
		return fail(c, "unable to add show")
	}

	task := scheduler.Task{Type: scheduler.TaskShowAdded, MovieTitle: movie.Title}
	if err := h.Events.Publish(ctx, task); err != nil {
		h.Log.Warn().Err(err).Msg("add show: publish notification")
	}
	return ok(c, echo.Map{"message": "Show added successfully"})
}

// fetchAndCacheMovie pulls details, credits and videos from the upstream
// catalog and stores the resulting movie document.
func (h *ShowHandler) fetchAndCacheMovie(ctx context.Context, movieID string) (*model.Movie, error) {
	details, err := h.Catalog.MovieDetails(ctx, movieID)
	if err != nil {
		return nil, err
	}
	credits, err := h.Catalog.MovieCredits(ctx, movieID)
	if err != nil {
		return nil, err
	}
	// Trailer lookup is best effort; a movie without one is still bookable.
	var trailerKey *string
	if videos, err := h.Catalog.MovieVideos(ctx, movieID); err == nil {
		trailerKey = catalog.PickTrailerKey(videos)
	} else {
		h.Log.Warn().Err(err).Str("movie_id", movieID).Msg("add show: trailer lookup")
	}

	genres := make([]model.Genre, 0, len(details.Genres))
	for _, g := range details.Genres {
		genres = append(genres, model.Genre{ID: g.ID, Name: g.Name})
	}
	casts := make([]model.CastMember, 0, len(credits))
	for _, m := range credits {
		casts = append(casts, model.CastMember{Name: m.Name, ProfilePath: m.ProfilePath})
	}

	movie := &model.Movie{
		ID:               movieID,
		Title:            details.Title,
		Overview:         details.Overview,
		PosterPath:       details.PosterPath,
		BackdropPath:     details.BackdropPath,
		ReleaseDate:      details.ReleaseDate,
		OriginalLanguage: details.OriginalLanguage,
		Tagline:          details.Tagline,
		Genres:           genres,
		Casts:            casts,
		VoteAverage:      details.VoteAverage,
		Runtime:          details.Runtime,
		TrailerKey:       trailerKey,
	}
	if err := h.Movies.Create(ctx, movie); err != nil {
		return nil, err
	}
	return movie, nil
}

// GetShows handles GET /api/show/all.  It aggregates upcoming showings into
// a deduplicated movie list ordered by each movie's next showtime.
func (h *ShowHandler) GetShows(c echo.Context) error {
	ctx := c.Request().Context()
	shows, err := h.Shows.ListUpcoming(ctx)
	if err != nil {
		h.Log.Error().Err(err).Msg("get shows: list")
		return fail(c, "unable to load shows")
	}

	var order []string
	seen := map[string]struct{}{}
	for _, s := range shows {
		if _, dup := seen[s.MovieID]; dup {
			continue
		}
		seen[s.MovieID] = struct{}{}
		order = append(order, s.MovieID)
	}
	movies, err := h.Movies.ListByIDs(ctx, order)
	if err != nil {
		h.Log.Error().Err(err).Msg("get shows: load movies")
		return fail(c, "unable to load shows")
	}
	out := make([]*model.Movie, 0, len(order))
	for _, id := range order {
		if m, found := movies[id]; found {
			out = append(out, m)
		}
	}
	return ok(c, echo.Map{"shows": out})
}

// showTimeEntry is one bookable time slot in the show-detail response.
type showTimeEntry struct {
	Time   time.Time `json:"time"`
	ShowID string    `json:"showId"`
}

// GetShow handles GET /api/show/:movieId.  It returns the movie document
// plus its upcoming showtimes grouped by calendar date.
func (h *ShowHandler) GetShow(c echo.Context) error {
	ctx := c.Request().Context()
	movieID := c.Param("movieId")

	shows, err := h.Shows.ListUpcomingByMovie(ctx, movieID)
	if err != nil {
		h.Log.Error().Err(err).Msg("get show: list")
		return fail(c, "unable to load show")
	}
	movie, err := h.Movies.GetByID(ctx, movieID)
	if errors.Is(err, repository.ErrMovieNotFound) {
		movie = nil
	} else if err != nil {
		h.Log.Error().Err(err).Msg("get show: load movie")
		return fail(c, "unable to load show")
	}

	dateTime := map[string][]showTimeEntry{}
	for _, s := range shows {
		date := s.ShowDateTime.UTC().Format("2006-01-02")
		dateTime[date] = append(dateTime[date], showTimeEntry{Time: s.ShowDateTime, ShowID: s.ID.Hex()})
	}
	return ok(c, echo.Map{"movie": movie, "dateTime": dateTime})
}

func parseShowTime(date, t string) (time.Time, error) {
	raw := date + "T" + t
	for _, layout := range showTimeLayouts {
		if when, err := time.Parse(layout, raw); err == nil {
			return when, nil
		}
	}
	return time.Time{}, errors.New("unparseable show time " + strconv.Quote(raw))
}
