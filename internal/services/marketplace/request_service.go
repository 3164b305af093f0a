package marketplace

import (
	"context"
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

type RequestService struct {
	DB       *gorm.DB
	Links    *links.LinkService
	Notifier Notifier
}

func NewRequestService(db *gorm.DB, linkService *links.LinkService, notifier Notifier) *RequestService {
	return &RequestService{DB: db, Links: linkService, Notifier: notifier}
}

type RequestInput struct {
	FreelancerID uuid.UUID
	Title        string
	Description  string
	Skills       []string
	Price        decimal.Decimal
	StartDate    *time.Time
	DueDate      *time.Time
}

// RequestUpdate edits the terms of a Pending request. Nil fields are left
// untouched.
type RequestUpdate struct {
	Title       *string
	Description *string
	Skills      []string
	Price       *decimal.Decimal
	StartDate   *time.Time
	DueDate     *time.Time
}

type RequestFilter struct {
	ClientID     *uuid.UUID
	FreelancerID *uuid.UUID
	Status       models.RequestStatus
}

// Create sends a direct offer from the calling client to a freelancer.
func (s *RequestService) Create(ctx context.Context, actor workflow.Actor, in RequestInput) (*models.Request, error) {
	if err := actor.RequireRole("Request", models.RoleClient); err != nil {
		return nil, err
	}
	if err := required("Request", "title", in.Title); err != nil {
		return nil, err
	}
	if err := required("Request", "description", in.Description); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, workflow.Validation("Request", "price must be positive, got %s", in.Price)
	}
	in.Title = strings.TrimSpace(in.Title)

	var req models.Request
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := findByID[models.User](tx, "User", actor.UserID)
		if err != nil {
			return err
		}
		freelancer, err := findByID[models.User](tx, "User", in.FreelancerID)
		if err != nil {
			return err
		}
		if freelancer.Role != models.RoleFreelancer {
			return workflow.RoleMismatch("Request", "requests can only be sent to a Freelancer, %s has role %s", freelancer.Username, freelancer.Role)
		}

		var count int64
		if err := tx.Model(&models.Request{}).
			Where("client_id = ? AND freelancer_id = ? AND title = ? AND description = ? AND price = ?",
				client.ID, freelancer.ID, in.Title, in.Description, in.Price).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return workflow.Duplicate("Request", "an identical request %q to %s already exists", in.Title, freelancer.Username)
		}

		req = models.Request{
			ClientID:           client.ID,
			ClientUsername:     client.Username,
			FreelancerID:       freelancer.ID,
			FreelancerUsername: freelancer.Username,
			Title:              in.Title,
			Description:        in.Description,
			Skills:             in.Skills,
			Price:              in.Price,
			StartDate:          in.StartDate,
			DueDate:            in.DueDate,
			Status:             models.RequestStatusPending,
		}
		return tx.Create(&req).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[RequestService] %s sent request %s to %s", req.ClientUsername, req.ID, req.FreelancerUsername)
	notify(ctx, s.Notifier, EventRequestCreated, req, req.FreelancerID)
	return &req, nil
}

func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	return findByID[models.Request](s.DB.WithContext(ctx), "Request", id)
}

func (s *RequestService) List(ctx context.Context, f RequestFilter) ([]models.Request, error) {
	q := s.DB.WithContext(ctx).Model(&models.Request{})
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.FreelancerID != nil {
		q = q.Where("freelancer_id = ?", *f.FreelancerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	requests := []models.Request{}
	err := q.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// Update edits a Pending request. Only the posting client or an admin may
// do this.
func (s *RequestService) Update(ctx context.Context, actor workflow.Actor, id uuid.UUID, in RequestUpdate) (*models.Request, error) {
	var req *models.Request
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = findForUpdate[models.Request](tx, "Request", id)
		if err != nil {
			return err
		}
		if !actor.Owns(req.ClientID) {
			return workflow.Forbidden("Request", "request %s can only be edited by its client", req.ID)
		}
		if req.Status != models.RequestStatusPending {
			return workflow.TerminalState("Request", "request %s is %s and can no longer be edited", req.ID, req.Status)
		}

		if in.Title != nil {
			if err := required("Request", "title", *in.Title); err != nil {
				return err
			}
			req.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			if err := required("Request", "description", *in.Description); err != nil {
				return err
			}
			req.Description = *in.Description
		}
		if in.Price != nil {
			if !in.Price.IsPositive() {
				return workflow.Validation("Request", "price must be positive, got %s", in.Price)
			}
			req.Price = *in.Price
		}
		if in.Skills != nil {
			req.Skills = in.Skills
		}
		if in.StartDate != nil {
			req.StartDate = in.StartDate
		}
		if in.DueDate != nil {
			req.DueDate = in.DueDate
		}

		var count int64
		if err := tx.Model(&models.Request{}).
			Where("client_id = ? AND freelancer_id = ? AND title = ? AND description = ? AND price = ? AND id <> ?",
				req.ClientID, req.FreelancerID, req.Title, req.Description, req.Price, req.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return workflow.Duplicate("Request", "an identical request %q already exists", req.Title)
		}

		return tx.Save(req).Error
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.Notifier, EventRequestUpdated, req, req.FreelancerID)
	return req, nil
}

// UpdateStatus answers a request. Accepting it creates an Accepted job for
// the pair in the same transaction.
func (s *RequestService) UpdateStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, to models.RequestStatus) (*models.Request, error) {
	var req *models.Request
	var job *models.Job
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = findForUpdate[models.Request](tx, "Request", id)
		if err != nil {
			return err
		}
		if !actor.Owns(req.ClientID, req.FreelancerID) {
			return workflow.Forbidden("Request", "request %s can only be answered by its client or freelancer", req.ID)
		}
		if err := workflow.RequestMachine.Check(req.Status, to); err != nil {
			return err
		}

		if to == models.RequestStatusAccepted {
			job, err = s.spawnJob(tx, req)
			if err != nil {
				return err
			}
			req.JobID = &job.ID
		}

		req.Status = to
		return tx.Model(req).Select("status", "job_id").Updates(req).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[RequestService] request %s is now %s", req.ID, req.Status)
	notify(ctx, s.Notifier, EventRequestStatus, req, req.ClientID, req.FreelancerID)
	if job != nil {
		notify(ctx, s.Notifier, EventJobUpdated, job, job.ClientID, req.FreelancerID)
	}
	return req, nil
}

// spawnJob creates the Accepted job for an accepted request and links it to
// both parties.
// This should be called within a DB transaction.
func (s *RequestService) spawnJob(tx *gorm.DB, req *models.Request) (*models.Job, error) {
	freelancerID := req.FreelancerID
	job := models.Job{
		Title:              req.Title,
		Description:        req.Description,
		ClientID:           req.ClientID,
		ClientUsername:     req.ClientUsername,
		FreelancerID:       &freelancerID,
		FreelancerUsername: req.FreelancerUsername,
		Skills:             req.Skills,
		Price:              req.Price,
		StartDate:          req.StartDate,
		DueDate:            req.DueDate,
		Status:             models.JobStatusAccepted,
	}
	if err := tx.Create(&job).Error; err != nil {
		return nil, err
	}
	if err := s.Links.AttachJob(tx, req.ClientID, job.ID, models.AssignmentOpen); err != nil {
		return nil, err
	}
	if err := s.Links.AttachJob(tx, req.FreelancerID, job.ID, models.AssignmentActive); err != nil {
		return nil, err
	}
	return &job, nil
}

// Delete removes a request. Only the posting client or an admin may do this.
func (s *RequestService) Delete(ctx context.Context, actor workflow.Actor, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := findForUpdate[models.Request](tx, "Request", id)
		if err != nil {
			return err
		}
		if !actor.Owns(req.ClientID) {
			return workflow.Forbidden("Request", "request %s can only be deleted by its client", req.ID)
		}
		return tx.Delete(req).Error
	})
}
