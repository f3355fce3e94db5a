package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConsultationStatus is the label an admin assigns to a consultation request.
// Any status may be set from any other; there is no transition table.
type ConsultationStatus string

const (
	StatusPending    ConsultationStatus = "pending"
	StatusInProgress ConsultationStatus = "in_progress"
	StatusCompleted  ConsultationStatus = "completed"
	StatusCancelled  ConsultationStatus = "cancelled"
)

// ConsultationStatuses lists every status label in display order
var ConsultationStatuses = []ConsultationStatus{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is one of the known status labels
func (s ConsultationStatus) Valid() bool {
	for _, status := range ConsultationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Consultation represents a prospective client's request for contact
type Consultation struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *string            `gorm:"index" json:"user_id"` // nullable, identity subject of a signed-in requester
	Name        string             `gorm:"not null" json:"name"`
	Email       string             `gorm:"not null" json:"email"`
	Phone       *string            `json:"phone"`
	Company     *string            `json:"company"`
	Message     string             `gorm:"type:text;not null" json:"message"`
	Status      ConsultationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ScheduledAt *time.Time         `json:"scheduled_at"` // nullable, set when an admin schedules a follow-up
	CreatedAt   time.Time          `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Consultation model
func (Consultation) TableName() string {
	return "consultations"
}

// BeforeCreate assigns a UUID and the default status to new rows
func (c *Consultation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	return nil
}
