package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking is one user's reservation of a set of seats on one show.  Amount
// is seat count times the show price, in the show's price unit.
//
// While the booking is unpaid, PaymentLink holds the processor's checkout
// URL for the client's "Pay Now" action and SessionID the processor's
// session id used by the status re-check.  Both are cleared together when
// the booking is paid or the session becomes unusable.  IsPaid is monotonic:
// once true it never reverts, and the repository flips it with an update
// guarded on the unpaid state so the webhook and polling paths can race
// harmlessly.
type Booking struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID      string             `bson:"user" json:"user"`
	ShowID      primitive.ObjectID `bson:"show" json:"show"`
	BookedSeats []string           `bson:"bookedSeats" json:"bookedSeats"`
	Amount      float64            `bson:"amount" json:"amount"`
	IsPaid      bool               `bson:"isPaid" json:"isPaid"`
	PaymentLink *string            `bson:"paymentLink,omitempty" json:"paymentLink,omitempty"`
	SessionID   *string            `bson:"sessionId,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BookingDetail is a Booking with its related documents attached for
// listing endpoints.
type BookingDetail struct {
	Booking `bson:",inline"`
	Show    *ShowWithMovie `bson:"-" json:"show,omitempty"`
	User    *User          `bson:"-" json:"user,omitempty"`
}
