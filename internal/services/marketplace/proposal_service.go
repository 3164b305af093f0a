package marketplace

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/links"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

type ProposalService struct {
	DB       *gorm.DB
	Links    *links.LinkService
	Notifier Notifier
}

func NewProposalService(db *gorm.DB, linkService *links.LinkService, notifier Notifier) *ProposalService {
	return &ProposalService{DB: db, Links: linkService, Notifier: notifier}
}

// ProposalInput is a bid on a job. Price overrides the job price when set;
// Description, when set, replaces the copied job description.
type ProposalInput struct {
	JobID       uuid.UUID
	Price       *decimal.Decimal
	Description string
}

// Create submits the calling freelancer's bid on a Pending job.
func (s *ProposalService) Create(ctx context.Context, actor workflow.Actor, in ProposalInput) (*models.Proposal, error) {
	if err := actor.RequireRole("Proposal", models.RoleFreelancer); err != nil {
		return nil, err
	}
	if in.Price != nil && !in.Price.IsPositive() {
		return nil, workflow.Validation("Proposal", "price must be positive, got %s", in.Price)
	}

	var proposal models.Proposal
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := findForUpdate[models.Job](tx, "Job", in.JobID)
		if err != nil {
			return err
		}
		if job.Status != models.JobStatusPending {
			return workflow.InvalidJobState("job %s is %s, proposals can only be made while it is Pending", job.ID, job.Status)
		}

		var count int64
		if err := tx.Model(&models.Proposal{}).
			Where("job_id = ? AND freelancer_id = ?", job.ID, actor.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return workflow.Duplicate("Proposal", "%s already has a proposal for job %s", actor.Username, job.ID)
		}

		freelancer, err := findByID[models.User](tx, "User", actor.UserID)
		if err != nil {
			return err
		}

		proposal = models.Proposal{
			JobID:              job.ID,
			ClientID:           job.ClientID,
			FreelancerID:       freelancer.ID,
			FreelancerUsername: freelancer.Username,
			Title:              job.Title,
			Description:        job.Description,
			Skills:             job.Skills,
			Price:              job.Price,
			StartDate:          job.StartDate,
			DueDate:            job.DueDate,
			Status:             models.ProposalStatusPending,
		}
		if in.Price != nil {
			proposal.Price = *in.Price
		}
		if in.Description != "" {
			proposal.Description = in.Description
		}

		if err := tx.Create(&proposal).Error; err != nil {
			if isUniqueViolation(err) {
				return workflow.Duplicate("Proposal", "%s already has a proposal for job %s", actor.Username, job.ID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ProposalService] %s bid on job %s", proposal.FreelancerUsername, proposal.JobID)
	notify(ctx, s.Notifier, EventProposalCreated, proposal, proposal.ClientID)
	return &proposal, nil
}

func (s *ProposalService) Get(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return findByID[models.Proposal](s.DB.WithContext(ctx), "Proposal", id)
}

// ListByFreelancer returns the bids a freelancer has made, newest first.
func (s *ProposalService) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Proposal, error) {
	proposals := []models.Proposal{}
	err := s.DB.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Find(&proposals).Error
	return proposals, err
}

// UpdateStatus accepts or declines a bid. Accepting hands the job to the
// bidder in the same transaction.
func (s *ProposalService) UpdateStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, to models.ProposalStatus) (*models.Proposal, error) {
	var proposal *models.Proposal
	var job *models.Job
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		proposal, err = findForUpdate[models.Proposal](tx, "Proposal", id)
		if err != nil {
			return err
		}
		if !actor.Owns(proposal.ClientID) {
			return workflow.Forbidden("Proposal", "proposal %s can only be answered by the job's client", proposal.ID)
		}
		if err := workflow.ProposalMachine.Check(proposal.Status, to); err != nil {
			return err
		}

		if to != models.ProposalStatusAccepted {
			proposal.Status = to
			return tx.Model(proposal).Update("status", to).Error
		}

		job, err = findForUpdate[models.Job](tx, "Job", proposal.JobID)
		if err != nil {
			return err
		}
		return acceptProposal(tx, s.Links, job, proposal)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ProposalService] proposal %s is now %s", proposal.ID, proposal.Status)
	notify(ctx, s.Notifier, EventProposalStatus, proposal, proposal.ClientID, proposal.FreelancerID)
	if job != nil {
		notify(ctx, s.Notifier, EventJobUpdated, job, job.ClientID, uuidOrNil(job.FreelancerID))
	}
	return proposal, nil
}

// Delete withdraws a bid at any status. Only the bidder or an admin may do
// this.
func (s *ProposalService) Delete(ctx context.Context, actor workflow.Actor, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := findForUpdate[models.Proposal](tx, "Proposal", id)
		if err != nil {
			return err
		}
		if !actor.Owns(proposal.FreelancerID) {
			return workflow.Forbidden("Proposal", "proposal %s can only be deleted by its freelancer", proposal.ID)
		}
		return tx.Delete(proposal).Error
	})
}
