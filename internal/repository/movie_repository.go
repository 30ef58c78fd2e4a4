package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// MovieRepo provides access to the cached movie catalog.  Movies are
// written once when the first show referencing them is created and read
// for listings; the upstream catalog remains the source of truth for
// everything except the trailer key backfill.
type MovieRepo struct {
	col *mongo.Collection
}

// NewMovieRepo returns a MovieRepo bound to the given collection.
func NewMovieRepo(col *mongo.Collection) *MovieRepo { return &MovieRepo{col: col} }

// GetByID fetches a movie by its upstream catalog id.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	var m model.Movie
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a freshly fetched movie document.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	_, err := r.col.InsertOne(ctx, m)
	return err
}

// SetTrailerKey backfills the trailer key on an already cached movie.
func (r *MovieRepo) SetTrailerKey(ctx context.Context, id, key string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"trailerKey": key}})
	return err
}

// ListByIDs returns the movies whose ids are in the given set, keyed by id
// so callers can attach them to shows or favorites in any order.
func (r *MovieRepo) ListByIDs(ctx context.Context, ids []string) (map[string]*model.Movie, error) {
	out := make(map[string]*model.Movie, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var m model.Movie
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out[m.ID] = &m
	}
	return out, cur.Err()
}

// DeleteAll removes every movie document.  Part of the admin reset; runs
// after bookings and shows are gone so no show references a missing movie.
func (r *MovieRepo) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}
