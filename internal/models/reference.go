// internal/models/reference.go
package models

// City, Neighborhood and ServiceType are the dashboard's reference data.
// They are soft-deleted through IsActive.

type City struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"` // unique
	IsActive bool   `bson:"isActive" json:"isActive"`
}

type Neighborhood struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	CityID   string `bson:"cityId" json:"cityId"`
	IsActive bool   `bson:"isActive" json:"isActive"`
}

type ServiceType struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"` // unique
	IsActive bool   `bson:"isActive" json:"isActive"`
}
