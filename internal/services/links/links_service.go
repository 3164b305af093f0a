package links

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

// LinkService owns the job_assignments relation between users and jobs.
type LinkService struct {
	DB *gorm.DB
}

func NewLinkService(db *gorm.DB) *LinkService {
	return &LinkService{DB: db}
}

// AttachJob links a job to a user under the given kind. Attaching the same
// link twice is a no-op.
// This should be called within a DB transaction.
func (s *LinkService) AttachJob(tx *gorm.DB, userID, jobID uuid.UUID, kind models.AssignmentKind) error {
	// 1. The user must still exist, otherwise the caller's transaction is rolled back
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return workflow.NotFound("User", "user %s not found, cannot link job %s as %s", userID, jobID, kind)
	}

	// 2. Create the assignment
	link := models.JobAssignment{
		UserID: userID,
		JobID:  jobID,
		Kind:   kind,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

// DetachJob removes every link pointing at a job.
// This should be called within a DB transaction.
func (s *LinkService) DetachJob(tx *gorm.DB, jobID uuid.UUID) error {
	return tx.Where("job_id = ?", jobID).Delete(&models.JobAssignment{}).Error
}

// DetachUser removes every link held by a user.
// This should be called within a DB transaction.
func (s *LinkService) DetachUser(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Where("user_id = ?", userID).Delete(&models.JobAssignment{}).Error
}

// JobIDs lists the jobs linked to a user under one kind, oldest link first.
func (s *LinkService) JobIDs(db *gorm.DB, userID uuid.UUID, kind models.AssignmentKind) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := db.Model(&models.JobAssignment{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at ASC").
		Pluck("job_id", &ids).Error
	return ids, err
}

// HasJob reports whether a user holds a link to a job.
func (s *LinkService) HasJob(db *gorm.DB, userID, jobID uuid.UUID, kind models.AssignmentKind) (bool, error) {
	var count int64
	err := db.Model(&models.JobAssignment{}).
		Where("user_id = ? AND job_id = ? AND kind = ?", userID, jobID, kind).
		Count(&count).Error
	return count > 0, err
}
