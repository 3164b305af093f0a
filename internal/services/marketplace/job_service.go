package marketplace

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/links"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

type JobService struct {
	DB       *gorm.DB
	Links    *links.LinkService
	Notifier Notifier
}

func NewJobService(db *gorm.DB, linkService *links.LinkService, notifier Notifier) *JobService {
	return &JobService{DB: db, Links: linkService, Notifier: notifier}
}

type JobInput struct {
	Title       string
	Description string
	Skills      []string
	Price       decimal.Decimal
	StartDate   *time.Time
	DueDate     *time.Time
}

// JobUpdate carries the fields of a job edit. Nil fields are left untouched.
// FreelancerUsername accepts that freelancer's proposal on the job.
type JobUpdate struct {
	Title              *string
	Description        *string
	Skills             []string
	Price              *decimal.Decimal
	StartDate          *time.Time
	DueDate            *time.Time
	Status             *models.JobStatus
	FreelancerUsername *string
}

type JobFilter struct {
	Status       models.JobStatus
	ClientID     *uuid.UUID
	FreelancerID *uuid.UUID

	// Page is 1-based. A zero Limit returns every match.
	Page  int
	Limit int
}

func (in JobInput) validate() error {
	if err := required("Job", "title", in.Title); err != nil {
		return err
	}
	if err := required("Job", "description", in.Description); err != nil {
		return err
	}
	if !in.Price.IsPositive() {
		return workflow.Validation("Job", "price must be positive, got %s", in.Price)
	}
	return nil
}

// Create posts a new Pending job owned by the calling client.
func (s *JobService) Create(ctx context.Context, actor workflow.Actor, in JobInput) (*models.Job, error) {
	if err := actor.RequireRole("Job", models.RoleClient); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)

	var job models.Job
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := findByID[models.User](tx, "User", actor.UserID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Job{}).
			Where("title = ? AND description = ? AND price = ? AND client_id = ?", in.Title, in.Description, in.Price, client.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return workflow.Duplicate("Job", "a job titled %q with the same description and price already exists", in.Title)
		}

		job = models.Job{
			Title:          in.Title,
			Description:    in.Description,
			ClientID:       client.ID,
			ClientUsername: client.Username,
			Skills:         in.Skills,
			Price:          in.Price,
			StartDate:      in.StartDate,
			DueDate:        in.DueDate,
			Status:         models.JobStatusPending,
		}
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		return s.Links.AttachJob(tx, client.ID, job.ID, models.AssignmentOpen)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[JobService] job %s created by %s", job.ID, job.ClientUsername)
	return &job, nil
}

func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return findByID[models.Job](s.DB.WithContext(ctx).Preload("Proposals"), "Job", id)
}

// List returns the jobs matching f, newest first, with the total match count.
func (s *JobService) List(ctx context.Context, f JobFilter) ([]models.Job, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Job{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.FreelancerID != nil {
		q = q.Where("freelancer_id = ?", *f.FreelancerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Limit(f.Limit).Offset((page - 1) * f.Limit)
	}

	jobs := []models.Job{}
	err := q.Order("created_at DESC").Find(&jobs).Error
	return jobs, total, err
}

// Proposals lists the bids placed on a job.
func (s *JobService) Proposals(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findByID[models.Job](db, "Job", jobID); err != nil {
		return nil, err
	}
	proposals := []models.Proposal{}
	err := db.Where("job_id = ?", jobID).Order("created_at ASC").Find(&proposals).Error
	return proposals, err
}

// Update edits a job. Field changes are applied first, then the named
// freelancer's proposal is accepted, then the status change is checked.
func (s *JobService) Update(ctx context.Context, actor workflow.Actor, id uuid.UUID, in JobUpdate) (*models.Job, error) {
	var job *models.Job
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = findForUpdate[models.Job](tx, "Job", id)
		if err != nil {
			return err
		}
		if !actor.Owns(job.ClientID) {
			return workflow.Forbidden("Job", "job %s can only be edited by its client", job.ID)
		}
		if job.Terminal() {
			return workflow.TerminalState("Job", "job %s is %s and can no longer be edited", job.ID, job.Status)
		}

		if err := s.applyFields(tx, job, in); err != nil {
			return err
		}

		if in.FreelancerUsername != nil {
			proposal, err := proposalOfFreelancer(tx, job.ID, *in.FreelancerUsername)
			if err != nil {
				return err
			}
			if err := acceptProposal(tx, s.Links, job, proposal); err != nil {
				return err
			}
		}

		if in.Status != nil {
			if err := checkJobStatus(job, *in.Status); err != nil {
				return err
			}
			job.Status = *in.Status
		}

		return tx.Omit("Proposals").Save(job).Error
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.Notifier, EventJobUpdated, job, job.ClientID, uuidOrNil(job.FreelancerID))
	return job, nil
}

func (s *JobService) applyFields(tx *gorm.DB, job *models.Job, in JobUpdate) error {
	termsChanged := false
	if in.Title != nil {
		if err := required("Job", "title", *in.Title); err != nil {
			return err
		}
		termsChanged = termsChanged || *in.Title != job.Title
		job.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		if err := required("Job", "description", *in.Description); err != nil {
			return err
		}
		termsChanged = termsChanged || *in.Description != job.Description
		job.Description = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return workflow.Validation("Job", "price must be positive, got %s", in.Price)
		}
		termsChanged = termsChanged || !in.Price.Equal(job.Price)
		job.Price = *in.Price
	}
	if in.Skills != nil {
		job.Skills = in.Skills
	}
	if in.StartDate != nil {
		job.StartDate = in.StartDate
	}
	if in.DueDate != nil {
		job.DueDate = in.DueDate
	}

	if !termsChanged {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Job{}).
		Where("title = ? AND description = ? AND price = ? AND id <> ?", job.Title, job.Description, job.Price, job.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return workflow.Duplicate("Job", "another job titled %q with the same description and price already exists", job.Title)
	}
	return nil
}

// UpdateStatus moves a job through its lifecycle. The client, the assigned
// freelancer or an admin may do this.
func (s *JobService) UpdateStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, to models.JobStatus) (*models.Job, error) {
	var job *models.Job
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = findForUpdate[models.Job](tx, "Job", id)
		if err != nil {
			return err
		}
		if !actor.Owns(job.ClientID, uuidOrNil(job.FreelancerID)) {
			return workflow.Forbidden("Job", "job %s status can only be changed by its client or freelancer", job.ID)
		}
		if err := checkJobStatus(job, to); err != nil {
			return err
		}
		job.Status = to
		return tx.Model(job).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[JobService] job %s is now %s", job.ID, job.Status)
	notify(ctx, s.Notifier, EventJobUpdated, job, job.ClientID, uuidOrNil(job.FreelancerID))
	return job, nil
}

// Delete removes a job with its proposals and assignments.
func (s *JobService) Delete(ctx context.Context, actor workflow.Actor, id uuid.UUID) error {
	var job *models.Job
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = findForUpdate[models.Job](tx, "Job", id)
		if err != nil {
			return err
		}
		if !actor.Owns(job.ClientID) {
			return workflow.Forbidden("Job", "job %s can only be deleted by its client", job.ID)
		}

		if err := tx.Where("job_id = ?", job.ID).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}
		if err := s.Links.DetachJob(tx, job.ID); err != nil {
			return err
		}
		if err := tx.Model(&models.Request{}).Where("job_id = ?", job.ID).Update("job_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(job).Error
	})
	if err != nil {
		return err
	}

	notify(ctx, s.Notifier, EventJobDeleted, map[string]any{"jobId": job.ID}, job.ClientID, uuidOrNil(job.FreelancerID))
	return nil
}

// checkJobStatus validates a status change against the job machine and the
// rule that an accepted job always names its freelancer.
func checkJobStatus(job *models.Job, to models.JobStatus) error {
	if job.Terminal() || !workflow.JobMachine.Known(to) {
		return workflow.JobMachine.Check(job.Status, to)
	}
	hasFreelancer := job.FreelancerID != nil && job.FreelancerUsername != ""
	if !hasFreelancer && job.Status == models.JobStatusAccepted {
		return workflow.InconsistentState("Job", "job %s is Accepted but has no freelancer", job.ID)
	}
	if !hasFreelancer && to == models.JobStatusAccepted {
		return workflow.InvalidTransition("Job", "job %s cannot be Accepted without a freelancer, accept a proposal instead", job.ID)
	}
	return workflow.JobMachine.Check(job.Status, to)
}

// acceptProposal accepts a bid and hands its job to the bidder.
// This should be called within a DB transaction holding both rows.
func acceptProposal(tx *gorm.DB, linkService *links.LinkService, job *models.Job, proposal *models.Proposal) error {
	if proposal.JobID != job.ID {
		return workflow.InconsistentState("Proposal", "proposal %s does not belong to job %s", proposal.ID, job.ID)
	}
	if job.Status != models.JobStatusPending {
		return workflow.InvalidJobState("job %s is %s, proposals can only be accepted while it is Pending", job.ID, job.Status)
	}
	if err := workflow.ProposalMachine.Check(proposal.Status, models.ProposalStatusAccepted); err != nil {
		return err
	}

	// 1. Link the job to the freelancer; fails if the freelancer is gone
	if err := linkService.AttachJob(tx, proposal.FreelancerID, job.ID, models.AssignmentActive); err != nil {
		return err
	}

	// 2. Hand over the job
	freelancerID := proposal.FreelancerID
	job.Status = models.JobStatusAccepted
	job.FreelancerID = &freelancerID
	job.FreelancerUsername = proposal.FreelancerUsername
	if err := tx.Model(job).Select("status", "freelancer_id", "freelancer_username").Updates(job).Error; err != nil {
		return err
	}

	// 3. Accept the bid
	proposal.Status = models.ProposalStatusAccepted
	return tx.Model(proposal).Update("status", proposal.Status).Error
}

func proposalOfFreelancer(tx *gorm.DB, jobID uuid.UUID, username string) (*models.Proposal, error) {
	var freelancer models.User
	if err := tx.Where("username = ?", strings.TrimSpace(username)).First(&freelancer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.NotFound("User", "user %s not found", username)
		}
		return nil, err
	}

	var proposal models.Proposal
	err := lockForUpdate(tx).
		Where("job_id = ? AND freelancer_id = ?", jobID, freelancer.ID).
		First(&proposal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.NotFound("Proposal", "%s has no proposal for job %s", username, jobID)
		}
		return nil, err
	}
	return &proposal, nil
}

func uuidOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
