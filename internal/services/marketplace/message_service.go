package marketplace

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

type MessageService struct {
	DB       *gorm.DB
	Notifier Notifier
}

func NewMessageService(db *gorm.DB, notifier Notifier) *MessageService {
	return &MessageService{DB: db, Notifier: notifier}
}

type MessageInput struct {
	RecipientID uuid.UUID
	Title       string
	Body        string
}

// Send delivers a message from the caller and pushes it to the recipient.
func (s *MessageService) Send(ctx context.Context, actor workflow.Actor, in MessageInput) (*models.Message, error) {
	if err := required("Message", "title", in.Title); err != nil {
		return nil, err
	}
	if err := required("Message", "body", in.Body); err != nil {
		return nil, err
	}
	if in.RecipientID == actor.UserID {
		return nil, workflow.Validation("Message", "sender and recipient must be different users")
	}

	db := s.DB.WithContext(ctx)
	if _, err := findByID[models.User](db, "User", in.RecipientID); err != nil {
		return nil, err
	}

	msg := models.Message{
		Title:       in.Title,
		Body:        in.Body,
		SenderID:    actor.UserID,
		RecipientID: in.RecipientID,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, err
	}

	notify(ctx, s.Notifier, EventNewMessage, msg, msg.RecipientID)
	return &msg, nil
}

// Inbox lists the messages received by the caller that were not hidden.
func (s *MessageService) Inbox(ctx context.Context, actor workflow.Actor) ([]models.Message, error) {
	msgs := []models.Message{}
	err := s.DB.WithContext(ctx).
		Preload("Sender").
		Where("recipient_id = ? AND hidden_for_recipient = ?", actor.UserID, false).
		Order("date DESC").
		Find(&msgs).Error
	return msgs, err
}

func (s *MessageService) Sent(ctx context.Context, actor workflow.Actor) ([]models.Message, error) {
	msgs := []models.Message{}
	err := s.DB.WithContext(ctx).
		Where("sender_id = ?", actor.UserID).
		Order("date DESC").
		Find(&msgs).Error
	return msgs, err
}

// Hide removes a message from the recipient's inbox. The sender keeps it.
func (s *MessageService) Hide(ctx context.Context, actor workflow.Actor, id uuid.UUID) error {
	db := s.DB.WithContext(ctx)
	msg, err := findByID[models.Message](db, "Message", id)
	if err != nil {
		return err
	}
	if msg.RecipientID != actor.UserID {
		return workflow.Forbidden("Message", "only the recipient can remove message %s from the inbox", msg.ID)
	}
	return db.Model(msg).Update("hidden_for_recipient", true).Error
}
