package marketplace

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

// ReviewService is the only writer of User.OverallRating. Every change moves
// the stored average by one step of the running-mean recurrence.
type ReviewService struct {
	DB       *gorm.DB
	Notifier Notifier
}

func NewReviewService(db *gorm.DB, notifier Notifier) *ReviewService {
	return &ReviewService{DB: db, Notifier: notifier}
}

type ReviewInput struct {
	FreelancerID uuid.UUID
	Review       string
	Rating       int
}

type ReviewUpdate struct {
	Review *string
	Rating *int
}

type ReviewFilter struct {
	FreelancerID *uuid.UUID
	ClientID     *uuid.UUID
}

// Create records the calling client's review of a freelancer.
func (s *ReviewService) Create(ctx context.Context, actor workflow.Actor, in ReviewInput) (*models.Review, error) {
	if err := actor.RequireRole("Review", models.RoleClient); err != nil {
		return nil, err
	}
	if err := required("Review", "review", in.Review); err != nil {
		return nil, err
	}
	if err := workflow.ValidateRating(in.Rating); err != nil {
		return nil, err
	}

	var review models.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := findByID[models.User](tx, "User", actor.UserID)
		if err != nil {
			return err
		}
		freelancer, err := findForUpdate[models.User](tx, "User", in.FreelancerID)
		if err != nil {
			return err
		}
		if freelancer.Role != models.RoleFreelancer {
			return workflow.RoleMismatch("Review", "only a Freelancer can be reviewed, %s has role %s", freelancer.Username, freelancer.Role)
		}

		var exists int64
		if err := tx.Model(&models.Review{}).
			Where("client_id = ? AND freelancer_id = ?", client.ID, freelancer.ID).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return workflow.Duplicate("Review", "%s has already reviewed %s", client.Username, freelancer.Username)
		}

		n, err := reviewCount(tx, freelancer.ID)
		if err != nil {
			return err
		}

		review = models.Review{
			ClientID:           client.ID,
			ClientUsername:     client.Username,
			FreelancerID:       freelancer.ID,
			FreelancerUsername: freelancer.Username,
			Review:             in.Review,
			Rating:             in.Rating,
		}
		if err := tx.Create(&review).Error; err != nil {
			if isUniqueViolation(err) {
				return workflow.Duplicate("Review", "%s has already reviewed %s", client.Username, freelancer.Username)
			}
			return err
		}

		rating := workflow.RatingAfterCreate(freelancer.OverallRating, n, in.Rating)
		return setRating(tx, freelancer.ID, &rating)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ReviewService] %s rated %s %d", review.ClientUsername, review.FreelancerUsername, review.Rating)
	notify(ctx, s.Notifier, EventReviewChanged, review, review.FreelancerID)
	return &review, nil
}

func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return findByID[models.Review](s.DB.WithContext(ctx), "Review", id)
}

func (s *ReviewService) List(ctx context.Context, f ReviewFilter) ([]models.Review, error) {
	q := s.DB.WithContext(ctx).Model(&models.Review{})
	if f.FreelancerID != nil {
		q = q.Where("freelancer_id = ?", *f.FreelancerID)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}

	reviews := []models.Review{}
	err := q.Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

// Update edits the text or rating of a review. The freelancer's average is
// only touched when the rating actually changes.
func (s *ReviewService) Update(ctx context.Context, actor workflow.Actor, id uuid.UUID, in ReviewUpdate) (*models.Review, error) {
	if in.Review != nil {
		if err := required("Review", "review", *in.Review); err != nil {
			return nil, err
		}
	}
	if in.Rating != nil {
		if err := workflow.ValidateRating(*in.Rating); err != nil {
			return nil, err
		}
	}

	var review *models.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		review, err = findForUpdate[models.Review](tx, "Review", id)
		if err != nil {
			return err
		}
		if !actor.Owns(review.ClientID) {
			return workflow.Forbidden("Review", "review %s can only be edited by its author", review.ID)
		}

		if in.Rating != nil && *in.Rating != review.Rating {
			freelancer, err := findForUpdate[models.User](tx, "User", review.FreelancerID)
			if err != nil {
				return err
			}
			n, err := reviewCount(tx, freelancer.ID)
			if err != nil {
				return err
			}
			rating := workflow.RatingAfterEdit(freelancer.OverallRating, n, review.Rating, *in.Rating)
			if err := setRating(tx, freelancer.ID, rating); err != nil {
				return err
			}
			review.Rating = *in.Rating
		}
		if in.Review != nil {
			review.Review = *in.Review
		}

		return tx.Save(review).Error
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.Notifier, EventReviewChanged, review, review.FreelancerID)
	return review, nil
}

// Delete removes a review and backs its rating out of the freelancer's
// average. Removing the last review clears the average.
func (s *ReviewService) Delete(ctx context.Context, actor workflow.Actor, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := findForUpdate[models.Review](tx, "Review", id)
		if err != nil {
			return err
		}
		if !actor.Owns(review.ClientID) {
			return workflow.Forbidden("Review", "review %s can only be deleted by its author", review.ID)
		}

		freelancer, err := findForUpdate[models.User](tx, "User", review.FreelancerID)
		switch {
		case errors.Is(err, workflow.ErrNotFound):
			// freelancer is gone, there is no average left to maintain
		case err != nil:
			return err
		default:
			n, err := reviewCount(tx, freelancer.ID)
			if err != nil {
				return err
			}
			rating := workflow.RatingAfterDelete(freelancer.OverallRating, n, review.Rating)
			if err := setRating(tx, freelancer.ID, rating); err != nil {
				return err
			}
		}

		return tx.Delete(review).Error
	})
}

func reviewCount(tx *gorm.DB, freelancerID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&models.Review{}).Where("freelancer_id = ?", freelancerID).Count(&n).Error
	return n, err
}

func setRating(tx *gorm.DB, freelancerID uuid.UUID, rating *float64) error {
	var value any = gorm.Expr("NULL")
	if rating != nil {
		value = *rating
	}
	return tx.Model(&models.User{}).Where("id = ?", freelancerID).Update("overall_rating", value).Error
}
