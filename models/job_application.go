package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobApplication represents an application submitted through the careers page.
// Rows are never modified after insert.
type JobApplication struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName        string    `gorm:"not null" json:"full_name"`
	Email           string    `gorm:"not null" json:"email"`
	Phone           *string   `json:"phone"`
	JobTitle        string    `gorm:"not null" json:"job_title"`
	ExperienceYears int       `gorm:"not null;default:0;check:experience_years >= 0" json:"experience_years"`
	Skills          string    `gorm:"type:text;not null" json:"skills"`
	CoverLetter     *string   `gorm:"type:text" json:"cover_letter"`
	ResumeURL       *string   `json:"resume_url"` // nullable, public URL of the uploaded resume
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the JobApplication model
func (JobApplication) TableName() string {
	return "job_applications"
}

// BeforeCreate assigns a UUID to new rows
func (a *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// JobRoles are the positions offered on the application form
var JobRoles = []string{
	"AI/ML Engineer",
	"Full Stack Developer",
	"Frontend Developer",
	"Backend Developer",
	"UI/UX Designer",
	"DevOps Engineer",
	"Product Manager",
	"Data Scientist",
	"Other",
}
