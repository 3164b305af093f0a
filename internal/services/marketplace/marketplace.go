package marketplace

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/links"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

// Event names pushed to users after a committed change.
const (
	EventJobUpdated      = "job_updated"
	EventJobDeleted      = "job_deleted"
	EventProposalCreated = "proposal_created"
	EventProposalStatus  = "proposal_status_update"
	EventRequestCreated  = "request_created"
	EventRequestUpdated  = "request_updated"
	EventRequestStatus   = "request_status_update"
	EventReviewChanged   = "review_changed"
	EventNewMessage      = "new_message"
)

// Notifier delivers an event to one user. Delivery is best effort and never
// reports failure back to the caller.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, payload any)
}

// Services bundles every marketplace service over one database.
type Services struct {
	Jobs      *JobService
	Proposals *ProposalService
	Requests  *RequestService
	Reviews   *ReviewService
	Users     *UserService
	Messages  *MessageService
}

func NewServices(db *gorm.DB, notifier Notifier) *Services {
	linkService := links.NewLinkService(db)
	return &Services{
		Jobs:      NewJobService(db, linkService, notifier),
		Proposals: NewProposalService(db, linkService, notifier),
		Requests:  NewRequestService(db, linkService, notifier),
		Reviews:   NewReviewService(db, notifier),
		Users:     NewUserService(db, linkService),
		Messages:  NewMessageService(db, notifier),
	}
}

func notify(ctx context.Context, n Notifier, event string, payload any, userIDs ...uuid.UUID) {
	if n == nil {
		return
	}
	seen := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		n.Notify(ctx, id, event, payload)
	}
}

// lockForUpdate adds SELECT ... FOR UPDATE on PostgreSQL. SQLite has no row
// locks and serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func findByID[T any](db *gorm.DB, entity string, id uuid.UUID) (*T, error) {
	var v T
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		return nil, notFound(err, entity, id)
	}
	return &v, nil
}

func findForUpdate[T any](tx *gorm.DB, entity string, id uuid.UUID) (*T, error) {
	return findByID[T](lockForUpdate(tx), entity, id)
}

func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.NotFound(entity, "%s %s not found", entity, id)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint")
}

func required(entity, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return workflow.Validation(entity, "%s is required", field)
	}
	return nil
}
