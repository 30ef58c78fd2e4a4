package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// TMDBClient implements Client against the TMDB v3 REST API using bearer
// authentication.
type TMDBClient struct {
	http *resty.Client
}

// NewTMDBClient builds a client for the given base URL and API read token.
// The base URL is configurable so tests can point the client at a local
// HTTP server.
func NewTMDBClient(baseURL, apiKey string) *TMDBClient {
	return &TMDBClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(apiKey).
			SetTimeout(10 * time.Second),
	}
}

// NowPlaying fetches the upstream now-playing listing (first page).
func (c *TMDBClient) NowPlaying(ctx context.Context) ([]NowPlayingMovie, error) {
	var out struct {
		Results []NowPlayingMovie `json:"results"`
	}
	if err := c.get(ctx, "/movie/now_playing", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// MovieDetails fetches the metadata document for one movie.
func (c *TMDBClient) MovieDetails(ctx context.Context, movieID string) (*MovieDetails, error) {
	var out MovieDetails
	if err := c.get(ctx, "/movie/"+movieID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MovieCredits fetches the cast list for one movie.
func (c *TMDBClient) MovieCredits(ctx context.Context, movieID string) ([]CastMember, error) {
	var out struct {
		Cast []CastMember `json:"cast"`
	}
	if err := c.get(ctx, "/movie/"+movieID+"/credits", &out); err != nil {
		return nil, err
	}
	return out.Cast, nil
}

// MovieVideos fetches the video list for one movie.
func (c *TMDBClient) MovieVideos(ctx context.Context, movieID string) ([]Video, error) {
	var out struct {
		Results []Video `json:"results"`
	}
	if err := c.get(ctx, "/movie/"+movieID+"/videos", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *TMDBClient) get(ctx context.Context, path string, result interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(result).
		Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("catalog: %s returned %s", path, resp.Status())
	}
	return nil
}
