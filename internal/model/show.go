package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Show represents a scheduled screening of a movie at a specific date and
// time.  OccupiedSeats maps a seat label (e.g. "A1") to the id of the user
// who booked it; absence of a key means the seat is available.  A seat key
// is written at most once per show, enforced by a conditional update in the
// repository rather than by application-side checks.
type Show struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MovieID       string             `bson:"movie" json:"movie"`
	ShowDateTime  time.Time          `bson:"showDateTime" json:"showDateTime"`
	ShowPrice     float64            `bson:"showPrice" json:"showPrice"`
	OccupiedSeats map[string]string  `bson:"occupiedSeats" json:"occupiedSeats"`
}

// ShowWithMovie is a Show with its movie document attached, the shape the
// client renders in listings.
type ShowWithMovie struct {
	Show  `bson:",inline"`
	Movie *Movie `bson:"-" json:"movie"`
}
