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

// BookingRepo provides access to bookings.  The paid flag is flipped only
// by MarkPaid, whose filter requires the unpaid state, making the webhook
// and polling paths idempotent against each other.
type BookingRepo struct {
	col *mongo.Collection
}

// NewBookingRepo returns a BookingRepo bound to the given collection.
func NewBookingRepo(col *mongo.Collection) *BookingRepo { return &BookingRepo{col: col} }

// Create inserts a new unpaid booking and populates its id and timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, b)
	return err
}

// GetByID fetches a single booking.
func (r *BookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error) {
	var b model.Booking
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SetPaymentSession stores the checkout URL and session id created for an
// unpaid booking.
func (r *BookingRepo) SetPaymentSession(ctx context.Context, id primitive.ObjectID, link, sessionID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"paymentLink": link, "sessionId": sessionID, "updatedAt": time.Now().UTC()},
	})
	return err
}

// MarkPaid sets the paid flag and clears the payment link and session id in
// one update guarded on the unpaid state.  Calling it on an already paid
// booking is a no-op; the flag never reverts.  ErrBookingNotFound is
// returned only when no booking with the id exists at all.
func (r *BookingRepo) MarkPaid(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "isPaid": false},
		bson.M{
			"$set":   bson.M{"isPaid": true, "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"paymentLink": "", "sessionId": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := r.col.FindOne(ctx, bson.M{"_id": id}).Err(); errors.Is(err, mongo.ErrNoDocuments) {
			return ErrBookingNotFound
		} else if err != nil {
			return err
		}
		// Already paid: the other reconciliation path got here first.
	}
	return nil
}

// ClearPaymentSession removes the payment link and session id without
// touching the paid flag.  Used when the session expired or can no longer
// be retrieved, so the client stops offering a "Pay Now" action.
func (r *BookingRepo) ClearPaymentSession(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
		"$unset": bson.M{"paymentLink": "", "sessionId": ""},
	})
	return err
}

// Delete removes one booking.  Used to undo a creation whose payment
// session could not be opened.
func (r *BookingRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return r.list(ctx, bson.M{"user": userID})
}

// ListAll returns every booking, newest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.list(ctx, bson.M{})
}

func (r *BookingRepo) list(ctx context.Context, filter bson.M) ([]model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var bookings []model.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// PaidStats aggregates the paid booking count and summed revenue for the
// dashboard.  Recomputed in full on every call; there is no incremental
// bookkeeping to drift out of sync.
func (r *BookingRepo) PaidStats(ctx context.Context) (count int64, revenue float64, err error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"isPaid": true}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"count":   bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$amount"},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cur.Close(ctx)
	var row struct {
		Count   int64   `bson:"count"`
		Revenue float64 `bson:"revenue"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, 0, err
		}
	}
	return row.Count, row.Revenue, cur.Err()
}

// DeleteAll removes every booking document.  First step of the admin reset.
func (r *BookingRepo) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}
