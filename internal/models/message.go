// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a direct note from one user to another
type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	SenderID    uuid.UUID `gorm:"type:uuid;index;not null" json:"sender"`
	RecipientID uuid.UUID `gorm:"type:uuid;index;not null" json:"recipient"`
	Date        time.Time `gorm:"not null" json:"date"`

	// recipient removed it from the inbox; the sender still sees it
	HiddenForRecipient bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `json:"createdAt"`

	// Preloaded relation
	Sender *User `gorm:"foreignKey:SenderID" json:"senderUser,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	return
}
