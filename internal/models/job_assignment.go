package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentKind string

const (
	AssignmentOpen   AssignmentKind = "open"   // job owned by a client
	AssignmentActive AssignmentKind = "active" // job being worked by a freelancer
)

// JobAssignment links a user to a job. It replaces the openJobs/activeJobs
// arrays that used to live on the user document.
type JobAssignment struct {
	ID     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_user_job_kind" json:"userId"`
	JobID  uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_assignment_user_job_kind" json:"jobId"`
	Kind   AssignmentKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_assignment_user_job_kind" json:"kind"`

	CreatedAt time.Time `json:"createdAt"`

	// Relation
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (a *JobAssignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
