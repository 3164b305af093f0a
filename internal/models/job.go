// internal/models/job.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "Pending"
	JobStatusAccepted  JobStatus = "Accepted"
	JobStatusCompleted JobStatus = "Completed"
	JobStatusCancelled JobStatus = "Cancelled"
)

type Job struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(200);not null;index" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`

	ClientID       uuid.UUID `gorm:"type:uuid;index;not null" json:"client"`
	ClientUsername string    `gorm:"type:varchar(60);not null" json:"clientUsername"`

	// set once the job is accepted, never cleared afterwards
	FreelancerID       *uuid.UUID `gorm:"type:uuid;index" json:"freelancer,omitempty"`
	FreelancerUsername string     `gorm:"type:varchar(60)" json:"freelancerUsername,omitempty"`

	Skills    datatypes.JSONSlice[string] `json:"skills"`
	Price     decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	StartDate *time.Time                  `json:"startDate,omitempty"`
	DueDate   *time.Time                  `json:"dueDate,omitempty"`

	Status JobStatus `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Proposals []Proposal `gorm:"foreignKey:JobID" json:"proposals,omitempty"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}

// Terminal reports whether the job can no longer change.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusCancelled
}

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "Pending"
	ProposalStatusAccepted ProposalStatus = "Accepted"
	ProposalStatusDeclined ProposalStatus = "Declined"
)

// Proposal is a freelancer's bid on a job. The job terms are copied at
// submission so the bid stays readable after the job is edited.
type Proposal struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proposal_job_freelancer" json:"jobId"`

	ClientID           uuid.UUID `gorm:"type:uuid;index;not null" json:"client"`
	FreelancerID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_proposal_job_freelancer" json:"freelancer"`
	FreelancerUsername string    `gorm:"type:varchar(60);not null" json:"freelancerUsername"`

	Title       string                      `gorm:"type:varchar(200)" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Skills      datatypes.JSONSlice[string] `json:"skills"`
	Price       decimal.Decimal             `gorm:"type:decimal(12,2)" json:"price"`
	StartDate   *time.Time                  `json:"startDate,omitempty"`
	DueDate     *time.Time                  `json:"dueDate,omitempty"`

	Status ProposalStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusAccepted RequestStatus = "Accepted"
	RequestStatusDeclined RequestStatus = "Declined"
)

// Request is a direct offer from a client to a freelancer.
type Request struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ClientID           uuid.UUID `gorm:"type:uuid;index;not null" json:"client"`
	ClientUsername     string    `gorm:"type:varchar(60)" json:"clientUsername"`
	FreelancerID       uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer"`
	FreelancerUsername string    `gorm:"type:varchar(60)" json:"freelancerUsername"`

	Title       string                      `gorm:"type:varchar(200);not null" json:"title"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	Skills      datatypes.JSONSlice[string] `json:"skills"`
	Price       decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	StartDate   *time.Time                  `json:"startDate,omitempty"`
	DueDate     *time.Time                  `json:"dueDate,omitempty"`

	Status RequestStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`

	// job spawned when the request was accepted
	JobID *uuid.UUID `gorm:"type:uuid;index" json:"jobId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
