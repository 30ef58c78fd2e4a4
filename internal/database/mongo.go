package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the application.  Users are synced from the
// external identity provider and are deliberately excluded from the admin
// reset operation, so keeping the names in one place matters.
const (
	MoviesCollection   = "movies"
	ShowsCollection    = "shows"
	BookingsCollection = "bookings"
	UsersCollection    = "users"
)

// Store bundles the collection handles the repositories operate on.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to MongoDB and verifies the connection with a short ping
// timeout, mirroring how the HTTP server refuses to start without its store.
func Open(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Collection returns a handle to a named collection.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}
