// internal/models/technician.go
package models

import "time"

type Technician struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Cities        []string  `bson:"cities" json:"cities"`               // city names the technician covers
	Neighborhoods []string  `bson:"neighborhoods" json:"neighborhoods"` // neighborhood names
	IsActive      bool      `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
