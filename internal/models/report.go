// internal/models/report.go
package models

import "time"

type Report struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Date      string    `bson:"date" json:"date"` // YYYY-MM-DD
	Shift     string    `bson:"shift" json:"shift"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
