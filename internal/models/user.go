package models

// User is a dashboard operator allowed to log in when auth is enabled.
type User struct {
	ID       string `bson:"_id" json:"id"`
	Email    string `bson:"email" json:"email"`
	Name     string `bson:"name" json:"name"`
	Password string `bson:"password" json:"-"`
	Role     string `bson:"role" json:"role"`
	Status   string `bson:"status" json:"status"`
}
