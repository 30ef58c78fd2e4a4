package handler

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func newUserHandler() (*UserHandler, *fakeBookingStore, *fakeMovieStore, *fakeUserStore) {
	bookings := newFakeBookingStore()
	shows := newFakeShowStore()
	movies := newFakeMovieStore()
	users := newFakeUserStore()
	h := &UserHandler{Bookings: bookings, Shows: shows, Movies: movies, Users: users, Log: zerolog.Nop()}
	return h, bookings, movies, users
}

func TestUpdateFavoriteToggles(t *testing.T) {
	h, _, _, users := newUserHandler()
	users.users["user_1"] = &model.User{ID: "user_1", Name: "Ada"}

	c, rec := request(t, http.MethodPost, "/api/user/update-favorite", `{"movieId":"603"}`)
	require.NoError(t, h.UpdateFavorite(c))
	resp := decode(t, rec)
	require.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["favorite"])
	assert.Equal(t, []string{"603"}, users.users["user_1"].Favorites)

	// Toggling again removes the movie.
	c, rec = request(t, http.MethodPost, "/api/user/update-favorite", `{"movieId":"603"}`)
	require.NoError(t, h.UpdateFavorite(c))
	resp = decode(t, rec)
	require.Equal(t, true, resp["success"])
	assert.Equal(t, false, resp["favorite"])
	assert.Empty(t, users.users["user_1"].Favorites)
}

func TestUpdateFavoriteRequiresMovieID(t *testing.T) {
	h, _, _, users := newUserHandler()
	users.users["user_1"] = &model.User{ID: "user_1"}

	c, rec := request(t, http.MethodPost, "/api/user/update-favorite", `{}`)
	require.NoError(t, h.UpdateFavorite(c))
	resp := decode(t, rec)
	assert.Equal(t, false, resp["success"])
}

func TestFavoritesPreservesOrder(t *testing.T) {
	h, _, movies, users := newUserHandler()
	movies.movies["603"] = &model.Movie{ID: "603", Title: "The Matrix"}
	movies.movies["27205"] = &model.Movie{ID: "27205", Title: "Inception"}
	users.users["user_1"] = &model.User{
		ID: "user_1", Favorites: []string{"27205", "deleted-movie", "603"},
	}

	c, rec := request(t, http.MethodGet, "/api/user/favorites", "")
	require.NoError(t, h.Favorites(c))

	resp := decode(t, rec)
	require.Equal(t, true, resp["success"])
	listed := resp["movies"].([]interface{})
	// The starred order survives; a favorite whose movie document is gone
	// is dropped from the listing.
	require.Len(t, listed, 2)
	assert.Equal(t, "Inception", listed[0].(map[string]interface{})["title"])
	assert.Equal(t, "The Matrix", listed[1].(map[string]interface{})["title"])
}

func TestFavoritesUnknownUser(t *testing.T) {
	h, _, _, _ := newUserHandler()

	c, rec := request(t, http.MethodGet, "/api/user/favorites", "")
	require.NoError(t, h.Favorites(c))

	resp := decode(t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "user not found", resp["message"])
}
