package model

// Genre is one of the upstream catalog's genre tags attached to a movie.
type Genre struct {
	ID   int64  `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// CastMember is a single cast credit as returned by the upstream catalog.
// Only fields the client renders are kept.
type CastMember struct {
	Name        string  `bson:"name" json:"name"`
	ProfilePath *string `bson:"profile_path,omitempty" json:"profile_path,omitempty"`
}

// Movie caches the upstream catalog's metadata for a film that has at least
// one scheduled show.  The document id is the upstream catalog id, so a
// movie is fetched at most once and shows reference it directly.
//
// TrailerKey is the YouTube key of the best trailer found at fetch time; it
// is optional because not every film has one.
type Movie struct {
	ID               string       `bson:"_id" json:"_id"`
	Title            string       `bson:"title" json:"title"`
	Overview         string       `bson:"overview" json:"overview"`
	PosterPath       string       `bson:"poster_path" json:"poster_path"`
	BackdropPath     string       `bson:"backdrop_path" json:"backdrop_path"`
	ReleaseDate      string       `bson:"release_date" json:"release_date"`
	OriginalLanguage string       `bson:"original_language" json:"original_language"`
	Tagline          string       `bson:"tagline" json:"tagline"`
	Genres           []Genre      `bson:"genres" json:"genres"`
	Casts            []CastMember `bson:"casts" json:"casts"`
	VoteAverage      float64      `bson:"vote_average" json:"vote_average"`
	Runtime          int          `bson:"runtime" json:"runtime"`
	TrailerKey       *string      `bson:"trailerKey,omitempty" json:"trailerKey,omitempty"`
}
