// Package catalog talks to the external movie metadata API.  Handlers
// depend on the Client interface so tests can substitute a double for the
// hosted service.
package catalog

import "context"

// NowPlayingMovie is one entry of the upstream now-playing listing, passed
// through to the admin UI for show creation.
type NowPlayingMovie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
}

// MovieDetails is the subset of the upstream movie document this service
// caches locally.
type MovieDetails struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
	Tagline          string  `json:"tagline"`
	VoteAverage      float64 `json:"vote_average"`
	Runtime          int     `json:"runtime"`
	Genres           []Genre `json:"genres"`
}

// Genre mirrors the upstream genre tag.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CastMember is one credit from the upstream credits endpoint.
type CastMember struct {
	Name        string  `json:"name"`
	ProfilePath *string `json:"profile_path"`
}

// Video is one entry of the upstream videos endpoint, used for trailer
// selection.
type Video struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Client is the read-only port onto the external movie catalog.
type Client interface {
	NowPlaying(ctx context.Context) ([]NowPlayingMovie, error)
	MovieDetails(ctx context.Context, movieID string) (*MovieDetails, error)
	MovieCredits(ctx context.Context, movieID string) ([]CastMember, error)
	MovieVideos(ctx context.Context, movieID string) ([]Video, error)
}

// PickTrailerKey selects the best trailer from a video list: an official
// trailer hosted on YouTube wins, any other YouTube video is the fallback,
// and nil means the movie has no usable trailer.
func PickTrailerKey(videos []Video) *string {
	var fallback *string
	for i := range videos {
		v := &videos[i]
		if v.Site != "YouTube" {
			continue
		}
		if v.Type == "Trailer" {
			return &v.Key
		}
		if fallback == nil {
			fallback = &v.Key
		}
	}
	return fallback
}
