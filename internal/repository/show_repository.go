package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ShowRepo provides access to scheduled screenings.  The occupancy map is
// only ever mutated through ReserveSeats and ReleaseSeats so the at-most-once
// invariant on seat keys holds regardless of how many server instances run.
type ShowRepo struct {
	col *mongo.Collection
}

// NewShowRepo returns a ShowRepo bound to the given collection.
func NewShowRepo(col *mongo.Collection) *ShowRepo { return &ShowRepo{col: col} }

// CreateMany inserts one show document per scheduled date/time.
func (r *ShowRepo) CreateMany(ctx context.Context, shows []model.Show) error {
	if len(shows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(shows))
	for i := range shows {
		if shows[i].OccupiedSeats == nil {
			shows[i].OccupiedSeats = map[string]string{}
		}
		docs = append(docs, shows[i])
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

// GetByID fetches a single show.
func (r *ShowRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Show, error) {
	var s model.Show
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByIDs returns the shows whose ids are in the given set, keyed by id.
func (r *ShowRepo) ListByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Show, error) {
	out := make(map[primitive.ObjectID]*model.Show, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var s model.Show
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out[s.ID] = &s
	}
	return out, cur.Err()
}

// ListUpcoming returns all shows starting at or after now, soonest first.
func (r *ShowRepo) ListUpcoming(ctx context.Context) ([]model.Show, error) {
	return r.list(ctx, bson.M{"showDateTime": bson.M{"$gte": time.Now()}})
}

// ListUpcomingByMovie returns the upcoming shows for one movie, soonest first.
func (r *ShowRepo) ListUpcomingByMovie(ctx context.Context, movieID string) ([]model.Show, error) {
	return r.list(ctx, bson.M{"movie": movieID, "showDateTime": bson.M{"$gte": time.Now()}})
}

func (r *ShowRepo) list(ctx context.Context, filter bson.M) ([]model.Show, error) {
	opts := options.Find().SetSort(bson.D{{Key: "showDateTime", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var shows []model.Show
	if err := cur.All(ctx, &shows); err != nil {
		return nil, err
	}
	return shows, nil
}

// ReserveSeats marks the given seats as occupied by the user in a single
// conditional update: the filter requires every requested seat key to be
// absent, so two overlapping bookings of the same seat cannot both match.
// It returns ErrSeatsUnavailable when any seat is already taken and
// ErrShowNotFound when the show does not exist.
func (r *ShowRepo) ReserveSeats(ctx context.Context, showID primitive.ObjectID, seats []string, userID string) error {
	filter := bson.M{"_id": showID}
	set := bson.M{}
	for _, seat := range seats {
		filter["occupiedSeats."+seat] = bson.M{"$exists": false}
		set["occupiedSeats."+seat] = userID
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing show from a lost seat race.
		if err := r.col.FindOne(ctx, bson.M{"_id": showID}).Err(); errors.Is(err, mongo.ErrNoDocuments) {
			return ErrShowNotFound
		} else if err != nil {
			return err
		}
		return ErrSeatsUnavailable
	}
	return nil
}

// ReleaseSeats removes the given seat keys from the occupancy map.  Used to
// undo a reservation when the payment session cannot be created.
func (r *ShowRepo) ReleaseSeats(ctx context.Context, showID primitive.ObjectID, seats []string) error {
	unset := bson.M{}
	for _, seat := range seats {
		unset["occupiedSeats."+seat] = ""
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": showID}, bson.M{"$unset": unset})
	return err
}

// DeleteAll removes every show document.  Part of the admin reset; runs
// after bookings are gone so no booking references a missing show.
func (r *ShowRepo) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}
