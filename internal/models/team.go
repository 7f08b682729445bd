// internal/models/team.go
package models

import "time"

// Team groups technicians under a box number label printed in reports.
type Team struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	TechnicianIDs []string  `bson:"technicianIds" json:"technicianIds"` // ordered
	BoxNumber     string    `bson:"boxNumber" json:"boxNumber"`
	Notes         string    `bson:"notes" json:"notes,omitempty"`
	IsActive      bool      `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasTechnician reports whether id is a member of the team.
func (t *Team) HasTechnician(id string) bool {
	for _, techID := range t.TechnicianIDs {
		if techID == id {
			return true
		}
	}
	return false
}
