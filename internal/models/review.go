package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID           uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_review_client_freelancer" json:"client"`
	ClientUsername     string    `gorm:"type:varchar(60)" json:"clientUsername"`
	FreelancerID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_review_client_freelancer" json:"freelancer"`
	FreelancerUsername string    `gorm:"type:varchar(60)" json:"freelancerUsername"`

	Review string `gorm:"type:text;not null" json:"review"`
	Rating int    `gorm:"not null" json:"rating"` // 1-5

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
