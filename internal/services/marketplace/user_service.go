package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/links"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/utils"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

const minPasswordLen = 6

type UserService struct {
	DB    *gorm.DB
	Links *links.LinkService
}

func NewUserService(db *gorm.DB, linkService *links.LinkService) *UserService {
	return &UserService{DB: db, Links: linkService}
}

type UserInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Role      models.Role
	Skills    []string
	Biography string
}

// UserUpdate edits a profile. Nil fields are left untouched. Role is accepted
// only so that a change attempt can be rejected.
type UserUpdate struct {
	Username  *string
	Password  *string
	FirstName *string
	LastName  *string
	Skills    []string
	Biography *string
	Role      *models.Role
}

// Dashboard summarises a user's activity.
type Dashboard struct {
	OpenJobs         int64    `json:"openJobs"`
	ActiveJobs       int64    `json:"activeJobs"`
	PendingProposals int64    `json:"pendingProposals"`
	PendingRequests  int64    `json:"pendingRequests"`
	Reviews          int64    `json:"reviews"`
	InboxMessages    int64    `json:"inboxMessages"`
	OverallRating    *float64 `json:"overallRating"`
}

// Signup registers a Client or Freelancer. Admins are created by other
// admins only.
func (s *UserService) Signup(ctx context.Context, in UserInput) (*models.User, error) {
	if in.Role != models.RoleClient && in.Role != models.RoleFreelancer {
		return nil, workflow.Validation("User", "role must be %s or %s, got %q", models.RoleClient, models.RoleFreelancer, in.Role)
	}
	return s.create(ctx, in)
}

// Create registers a user of any role on behalf of an admin.
func (s *UserService) Create(ctx context.Context, actor workflow.Actor, in UserInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, workflow.Forbidden("User", "only an Admin can create users")
	}
	if !in.Role.Valid() {
		return nil, workflow.Validation("User", "unknown role %q", in.Role)
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in UserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := required("User", "username", username); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, workflow.Validation("User", "password must be at least %d characters", minPasswordLen)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := models.User{
		Username:  username,
		Password:  hash,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      in.Role,
		IsActive:  true,
		Skills:    in.Skills,
		Biography: in.Biography,
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		u.Email = &email
	}

	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, workflow.Duplicate("User", "username %s is already taken", username)
	}

	if err := db.Create(&u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, workflow.Duplicate("User", "username %s is already taken", username)
		}
		return nil, err
	}

	log.Printf("[UserService] user %s registered as %s", u.Username, u.Role)
	return &u, nil
}

// FindOrCreateByEmail resolves an externally authenticated identity. Unknown
// emails get a new Client whose username is derived from the address and
// whose password is random.
func (s *UserService) FindOrCreateByEmail(ctx context.Context, email, firstName, lastName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := required("User", "email", email); err != nil {
		return nil, err
	}

	var u models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username, err := s.freeUsername(ctx, usernameFromEmail(email))
	if err != nil {
		return nil, err
	}
	return s.create(ctx, UserInput{
		Username:  username,
		Password:  uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Role:      models.RoleClient,
	})
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return -1
	}, local)
	if local == "" {
		return "user"
	}
	return local
}

// freeUsername appends a counter to base until the name is unused.
func (s *UserService) freeUsername(ctx context.Context, base string) (string, error) {
	db := s.DB.WithContext(ctx)
	name := base
	for i := 2; ; i++ {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", name).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return name, nil
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return findByID[models.User](s.DB.WithContext(ctx), "User", id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, workflow.NotFound("User", "user %s not found", username)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) List(ctx context.Context, actor workflow.Actor) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, workflow.Forbidden("User", "only an Admin can list users")
	}
	users := []models.User{}
	err := s.DB.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

// References resolves the back-reference collections of a user.
func (s *UserService) References(ctx context.Context, id uuid.UUID) (*models.UserReferences, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findByID[models.User](db, "User", id); err != nil {
		return nil, err
	}

	refs := &models.UserReferences{}
	var err error
	pluck := func(model any, column string, dst *[]uuid.UUID, extra ...any) {
		if err != nil {
			return
		}
		*dst = []uuid.UUID{}
		q := db.Model(model).Where(column+" = ?", id)
		if len(extra) == 2 {
			q = q.Where(extra[0], extra[1])
		}
		err = q.Order("created_at ASC").Pluck("id", dst).Error
	}

	pluck(&models.Proposal{}, "freelancer_id", &refs.Proposals)
	pluck(&models.Request{}, "client_id", &refs.PostedRequests)
	pluck(&models.Request{}, "freelancer_id", &refs.ReceivedRequests)
	pluck(&models.Review{}, "client_id", &refs.ClientReviews)
	pluck(&models.Review{}, "freelancer_id", &refs.FreelancerReviews)
	pluck(&models.Message{}, "sender_id", &refs.SentMessages)
	pluck(&models.Message{}, "recipient_id", &refs.ReceivedMessages, "hidden_for_recipient = ?", false)
	if err != nil {
		return nil, err
	}

	if refs.OpenJobs, err = s.Links.JobIDs(db, id, models.AssignmentOpen); err != nil {
		return nil, err
	}
	if refs.ActiveJobs, err = s.Links.JobIDs(db, id, models.AssignmentActive); err != nil {
		return nil, err
	}
	return refs, nil
}

// Dashboard counts the open work around a user.
func (s *UserService) Dashboard(ctx context.Context, id uuid.UUID) (*Dashboard, error) {
	db := s.DB.WithContext(ctx)
	u, err := findByID[models.User](db, "User", id)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{OverallRating: u.OverallRating}

	if err := db.Model(&models.JobAssignment{}).
		Joins("JOIN jobs ON jobs.id = job_assignments.job_id").
		Where("job_assignments.user_id = ? AND job_assignments.kind = ?", id, models.AssignmentOpen).
		Where("jobs.status IN ?", []models.JobStatus{models.JobStatusPending, models.JobStatusAccepted}).
		Count(&d.OpenJobs).Error; err != nil {
		log.Printf("[Dashboard] Error counting open jobs for user %s: %v", id, err)
	}

	if err := db.Model(&models.Job{}).
		Where("freelancer_id = ? AND status = ?", id, models.JobStatusAccepted).
		Count(&d.ActiveJobs).Error; err != nil {
		log.Printf("[Dashboard] Error counting active jobs for user %s: %v", id, err)
	}

	if err := db.Model(&models.Proposal{}).
		Where("freelancer_id = ? AND status = ?", id, models.ProposalStatusPending).
		Count(&d.PendingProposals).Error; err != nil {
		log.Printf("[Dashboard] Error counting pending proposals for user %s: %v", id, err)
	}

	if err := db.Model(&models.Request{}).
		Where("(client_id = ? OR freelancer_id = ?) AND status = ?", id, id, models.RequestStatusPending).
		Count(&d.PendingRequests).Error; err != nil {
		log.Printf("[Dashboard] Error counting pending requests for user %s: %v", id, err)
	}

	if err := db.Model(&models.Review{}).
		Where("freelancer_id = ?", id).
		Count(&d.Reviews).Error; err != nil {
		log.Printf("[Dashboard] Error counting reviews for user %s: %v", id, err)
	}

	if err := db.Model(&models.Message{}).
		Where("recipient_id = ? AND hidden_for_recipient = ?", id, false).
		Count(&d.InboxMessages).Error; err != nil {
		log.Printf("[Dashboard] Error counting inbox messages for user %s: %v", id, err)
	}

	log.Printf("[Dashboard] UserID: %s | ActiveJobs: %d | PendingProposals: %d", id, d.ActiveJobs, d.PendingProposals)
	return d, nil
}

// Update edits a profile. A username change is written through to every
// denormalized copy of it.
func (s *UserService) Update(ctx context.Context, actor workflow.Actor, id uuid.UUID, in UserUpdate) (*models.User, error) {
	if !actor.Owns(id) {
		return nil, workflow.Forbidden("User", "users can only edit their own profile")
	}

	var u *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		u, err = findForUpdate[models.User](tx, "User", id)
		if err != nil {
			return err
		}
		if in.Role != nil && *in.Role != u.Role {
			return workflow.Validation("User", "role of %s cannot be changed from %s", u.Username, u.Role)
		}

		if in.Password != nil {
			if len(*in.Password) < minPasswordLen {
				return workflow.Validation("User", "password must be at least %d characters", minPasswordLen)
			}
			hash, err := utils.HashPassword(*in.Password)
			if err != nil {
				return err
			}
			u.Password = hash
		}
		if in.FirstName != nil {
			u.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			u.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.Skills != nil {
			u.Skills = in.Skills
		}
		if in.Biography != nil {
			u.Biography = *in.Biography
		}

		if in.Username != nil {
			username := strings.TrimSpace(*in.Username)
			if err := required("User", "username", username); err != nil {
				return err
			}
			if username != u.Username {
				if err := renameUser(tx, u.ID, username); err != nil {
					return err
				}
				log.Printf("[UserService] %s renamed to %s", u.Username, username)
				u.Username = username
			}
		}

		if err := tx.Save(u).Error; err != nil {
			if isUniqueViolation(err) {
				return workflow.Duplicate("User", "username %s is already taken", u.Username)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// renameUser rewrites the cached username on every row that carries one.
// This should be called within a DB transaction.
func renameUser(tx *gorm.DB, id uuid.UUID, username string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("username = ? AND id <> ?", username, id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return workflow.Duplicate("User", "username %s is already taken", username)
	}

	updates := []struct {
		model  any
		idCol  string
		column string
	}{
		{&models.Job{}, "client_id", "client_username"},
		{&models.Job{}, "freelancer_id", "freelancer_username"},
		{&models.Proposal{}, "freelancer_id", "freelancer_username"},
		{&models.Request{}, "client_id", "client_username"},
		{&models.Request{}, "freelancer_id", "freelancer_username"},
		{&models.Review{}, "client_id", "client_username"},
		{&models.Review{}, "freelancer_id", "freelancer_username"},
	}
	for _, u := range updates {
		if err := tx.Model(u.model).Where(u.idCol+" = ?", id).Update(u.column, username).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a user account and its job links. Only an admin may do
// this.
func (s *UserService) Delete(ctx context.Context, actor workflow.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return workflow.Forbidden("User", "only an Admin can delete users")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := findForUpdate[models.User](tx, "User", id)
		if err != nil {
			return err
		}
		if err := s.Links.DetachUser(tx, u.ID); err != nil {
			return err
		}
		return tx.Delete(u).Error
	})
}
