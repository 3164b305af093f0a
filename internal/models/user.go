package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient     Role = "Client"
	RoleFreelancer Role = "Freelancer"
	RoleAdmin      Role = "Admin"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleFreelancer || r == RoleAdmin
}

// internal/models/user.go
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"type:varchar(60);uniqueIndex;not null" json:"username"`
	Email    *string   `gorm:"type:varchar(150);uniqueIndex" json:"email,omitempty"`

	Password  string `gorm:"not null" json:"-"`
	FirstName string `gorm:"type:varchar(80)" json:"firstName"`
	LastName  string `gorm:"type:varchar(80)" json:"lastName"`
	Role      Role   `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive  bool   `gorm:"default:true" json:"isActive"`

	Skills    datatypes.JSONSlice[string] `json:"skills"`
	Biography string                      `gorm:"type:text" json:"biography"`

	// average of freelancer reviews, nil until the first review lands
	OverallRating *float64 `json:"overallRating"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// UserReferences are the back-reference collections of a user, resolved from
// foreign keys and job assignments instead of being stored on the user row.
type UserReferences struct {
	Proposals         []uuid.UUID `json:"proposals"`
	OpenJobs          []uuid.UUID `json:"openJobs"`
	ActiveJobs        []uuid.UUID `json:"activeJobs"`
	PostedRequests    []uuid.UUID `json:"postedRequests"`
	ReceivedRequests  []uuid.UUID `json:"receivedRequests"`
	ClientReviews     []uuid.UUID `json:"clientReviews"`
	FreelancerReviews []uuid.UUID `json:"freelancerReviews"`
	SentMessages      []uuid.UUID `json:"sentMessages"`
	ReceivedMessages  []uuid.UUID `json:"receivedMessages"`
}
