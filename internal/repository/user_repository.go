package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// UserRepo provides access to identity-provider-synced profiles.  Profile
// fields are owned upstream and written only by the webhook sync; favorites
// are the one piece of state this service owns on the user document.
type UserRepo struct {
	col *mongo.Collection
}

// NewUserRepo returns a UserRepo bound to the given collection.
func NewUserRepo(col *mongo.Collection) *UserRepo { return &UserRepo{col: col} }

// GetByID fetches a user profile.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByIDs returns the users whose ids are in the given set, keyed by id.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u model.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = &u
	}
	return out, cur.Err()
}

// Upsert creates or refreshes a profile from a provider sync event.  Only
// the provider-owned fields are written so a sync never clobbers favorites.
func (r *UserRepo) Upsert(ctx context.Context, u *model.User) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"name": u.Name, "email": u.Email, "image": u.Image}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Delete removes a profile after the provider reports the account deleted.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListAll returns every synced profile.  Used by the worker to fan out
// new-show notifications.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the total number of synced users for the dashboard.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

// ToggleFavorite adds the movie to the user's favorites if absent and
// removes it if present.  It reports whether the movie is a favorite after
// the call.  Both branches are single conditional updates so concurrent
// toggles cannot duplicate an entry.
func (r *UserRepo) ToggleFavorite(ctx context.Context, userID, movieID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID, "favorites": bson.M{"$ne": movieID}},
		bson.M{"$addToSet": bson.M{"favorites": movieID}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	// Either the user does not exist or the movie was already a favorite.
	res, err = r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"favorites": movieID}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrUserNotFound
	}
	return false, nil
}
