// internal/models/service_order.go
package models

import "time"

// ServiceOrder statuses
const (
	StatusPending     = "Pendente"
	StatusCompleted   = "Concluído"
	StatusRescheduled = "Reagendado"
	StatusStickered   = "Adesivado"
	StatusCancelled   = "Cancelado"
)

// Statuses lists every service order status in display order.
var Statuses = []string{StatusPending, StatusCompleted, StatusRescheduled, StatusStickered, StatusCancelled}

// ValidStatus reports whether s is a known status.
func ValidStatus(s string) bool {
	for _, status := range Statuses {
		if status == s {
			return true
		}
	}
	return false
}

type ServiceOrder struct {
	ID                 string    `bson:"_id" json:"id"`
	Code               string    `bson:"code" json:"code"` // unique
	Type               string    `bson:"type" json:"type"` // ServiceType name
	Status             string    `bson:"status" json:"status"`
	TeamID             string    `bson:"teamId" json:"teamId,omitempty"`
	TechnicianID       string    `bson:"technicianId" json:"technicianId,omitempty"`
	Alert              string    `bson:"alert" json:"alert,omitempty"`
	ScheduledDate      string    `bson:"scheduledDate" json:"scheduledDate,omitempty"` // YYYY-MM-DD
	ScheduledTime      string    `bson:"scheduledTime" json:"scheduledTime,omitempty"` // HH:MM
	CustomerName       string    `bson:"customerName" json:"customerName,omitempty"`
	CustomerPhone      string    `bson:"customerPhone" json:"customerPhone,omitempty"`
	Address            string    `bson:"address" json:"address,omitempty"`
	City               string    `bson:"city" json:"city,omitempty"`
	Neighborhood       string    `bson:"neighborhood" json:"neighborhood,omitempty"`
	Reminder           bool      `bson:"reminder" json:"reminder"`
	CreatedViaCalendar bool      `bson:"createdViaCalendar" json:"createdViaCalendar"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Open reports whether the order still needs a visit.
func (o *ServiceOrder) Open() bool {
	return o.Status != StatusCompleted && o.Status != StatusCancelled
}
