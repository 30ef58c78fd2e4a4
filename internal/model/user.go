package model

// User mirrors a profile owned by the external identity provider; the
// document id is the provider's user id.  Profiles arrive via the provider's
// webhook sync and are never created by this service on its own.  Favorites
// is the list of movie ids the user has starred.
type User struct {
	ID        string   `bson:"_id" json:"_id"`
	Name      string   `bson:"name" json:"name"`
	Email     string   `bson:"email" json:"email"`
	Image     string   `bson:"image" json:"image"`
	Favorites []string `bson:"favorites,omitempty" json:"favorites,omitempty"`
}
