package marketplace

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/utils"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

func TestSignup(t *testing.T) {
	svc, _, _ := setupServices(t)
	ctx := context.Background()

	u, err := svc.Users.Signup(ctx, UserInput{Username: " felix ", Password: "secret123", Role: models.RoleFreelancer})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if u.Username != "felix" {
		t.Errorf("expected trimmed username, got %q", u.Username)
	}
	if !utils.CheckPassword(u.Password, "secret123") {
		t.Error("password should be stored as a bcrypt hash of the input")
	}

	if _, err := svc.Users.Signup(ctx, UserInput{Username: "felix", Password: "secret123", Role: models.RoleClient}); !errors.Is(err, workflow.ErrDuplicateEntity) {
		t.Errorf("taken username: expected DuplicateEntity, got %v", err)
	}
	if _, err := svc.Users.Signup(ctx, UserInput{Username: "boss", Password: "secret123", Role: models.RoleAdmin}); !errors.Is(err, workflow.ErrValidation) {
		t.Errorf("public admin signup: expected Validation, got %v", err)
	}
	if _, err := svc.Users.Signup(ctx, UserInput{Username: "shorty", Password: "123", Role: models.RoleClient}); !errors.Is(err, workflow.ErrValidation) {
		t.Errorf("short password: expected Validation, got %v", err)
	}
}

func TestAdminOnlyUserOperations(t *testing.T) {
	svc, gdb, _ := setupServices(t)
	ctx := context.Background()
	client := createUser(t, gdb, "clara", models.RoleClient)
	admin := createUser(t, gdb, "root", models.RoleAdmin)

	if _, err := svc.Users.List(ctx, client); !errors.Is(err, workflow.ErrForbidden) {
		t.Errorf("client listing users: expected Forbidden, got %v", err)
	}
	if _, err := svc.Users.Create(ctx, client, UserInput{Username: "x", Password: "secret123", Role: models.RoleAdmin}); !errors.Is(err, workflow.ErrForbidden) {
		t.Errorf("client creating users: expected Forbidden, got %v", err)
	}

	second, err := svc.Users.Create(ctx, admin, UserInput{Username: "root2", Password: "secret123", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	users, _ := svc.Users.List(ctx, admin)
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}

	if err := svc.Users.Delete(ctx, client, second.ID); !errors.Is(err, workflow.ErrForbidden) {
		t.Errorf("client deleting: expected Forbidden, got %v", err)
	}
	if err := svc.Users.Delete(ctx, admin, second.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := svc.Users.Get(ctx, second.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("deleted user: expected NotFound, got %v", err)
	}
}

func TestRoleCannotChange(t *testing.T) {
	svc, gdb, _ := setupServices(t)
	ctx := context.Background()
	client := createUser(t, gdb, "clara", models.RoleClient)

	role := models.RoleFreelancer
	if _, err := svc.Users.Update(ctx, client, client.UserID, UserUpdate{Role: &role}); !errors.Is(err, workflow.ErrValidation) {
		t.Errorf("expected Validation, got %v", err)
	}

	same := models.RoleClient
	bio := "I hire designers"
	u, err := svc.Users.Update(ctx, client, client.UserID, UserUpdate{Role: &same, Biography: &bio})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if u.Biography != bio {
		t.Errorf("expected biography %q, got %q", bio, u.Biography)
	}
}

func TestUpdateOtherUserForbidden(t *testing.T) {
	svc, gdb, _ := setupServices(t)
	ctx := context.Background()
	clara := createUser(t, gdb, "clara", models.RoleClient)
	olga := createUser(t, gdb, "olga", models.RoleClient)

	name := "Olga"
	if _, err := svc.Users.Update(ctx, clara, olga.UserID, UserUpdate{FirstName: &name}); !errors.Is(err, workflow.ErrForbidden) {
		t.Errorf("expected Forbidden, got %v", err)
	}
}

func TestRenamePropagates(t *testing.T) {
	svc, gdb, _ := setupServices(t)
	ctx := context.Background()
	client := createUser(t, gdb, "clara", models.RoleClient)
	freelancer := createUser(t, gdb, "felix", models.RoleFreelancer)
	createUser(t, gdb, "taken", models.RoleClient)

	job, _ := svc.Jobs.Create(ctx, client, webDevJob())
	p, _ := svc.Proposals.Create(ctx, freelancer, ProposalInput{JobID: job.ID})
	svc.Proposals.UpdateStatus(ctx, client, p.ID, models.ProposalStatusAccepted)
	req, _ := svc.Requests.Create(ctx, client, logoRequest(freelancer))
	review, _ := svc.Reviews.Create(ctx, client, ReviewInput{FreelancerID: freelancer.UserID, Review: "Good", Rating: 5})

	taken := "taken"
	if _, err := svc.Users.Update(ctx, freelancer, freelancer.UserID, UserUpdate{Username: &taken}); !errors.Is(err, workflow.ErrDuplicateEntity) {
		t.Fatalf("rename to taken name: expected DuplicateEntity, got %v", err)
	}

	name := "felix.codes"
	if _, err := svc.Users.Update(ctx, freelancer, freelancer.UserID, UserUpdate{Username: &name}); err != nil {
		t.Fatalf("rename: %v", err)
	}

	gotJob, _ := svc.Jobs.Get(ctx, job.ID)
	if gotJob.FreelancerUsername != name {
		t.Errorf("job freelancer username: got %q", gotJob.FreelancerUsername)
	}
	gotProposal, _ := svc.Proposals.Get(ctx, p.ID)
	if gotProposal.FreelancerUsername != name {
		t.Errorf("proposal freelancer username: got %q", gotProposal.FreelancerUsername)
	}
	gotRequest, _ := svc.Requests.Get(ctx, req.ID)
	if gotRequest.FreelancerUsername != name {
		t.Errorf("request freelancer username: got %q", gotRequest.FreelancerUsername)
	}
	gotReview, _ := svc.Reviews.Get(ctx, review.ID)
	if gotReview.FreelancerUsername != name {
		t.Errorf("review freelancer username: got %q", gotReview.FreelancerUsername)
	}
	if gotJob.ClientUsername != "clara" {
		t.Errorf("client username should be untouched, got %q", gotJob.ClientUsername)
	}
}

func TestDashboard(t *testing.T) {
	svc, gdb, _ := setupServices(t)
	ctx := context.Background()
	client := createUser(t, gdb, "clara", models.RoleClient)
	freelancer := createUser(t, gdb, "felix", models.RoleFreelancer)

	job, _ := svc.Jobs.Create(ctx, client, webDevJob())
	second := webDevJob()
	second.Title = "Copywriting"
	other, _ := svc.Jobs.Create(ctx, client, second)

	p, _ := svc.Proposals.Create(ctx, freelancer, ProposalInput{JobID: job.ID})
	svc.Proposals.Create(ctx, freelancer, ProposalInput{JobID: other.ID})
	svc.Proposals.UpdateStatus(ctx, client, p.ID, models.ProposalStatusAccepted)
	svc.Reviews.Create(ctx, client, ReviewInput{FreelancerID: freelancer.UserID, Review: "Good", Rating: 4})
	svc.Messages.Send(ctx, client, MessageInput{RecipientID: freelancer.UserID, Title: "Hi", Body: "Welcome"})

	d, err := svc.Users.Dashboard(ctx, freelancer.UserID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if d.ActiveJobs != 1 {
		t.Errorf("expected 1 active job, got %d", d.ActiveJobs)
	}
	if d.PendingProposals != 1 {
		t.Errorf("expected 1 pending proposal, got %d", d.PendingProposals)
	}
	if d.Reviews != 1 || d.InboxMessages != 1 {
		t.Errorf("expected 1 review and 1 message, got %d and %d", d.Reviews, d.InboxMessages)
	}

	cd, _ := svc.Users.Dashboard(ctx, client.UserID)
	if cd.OpenJobs != 2 {
		t.Errorf("expected 2 open jobs for the client, got %d", cd.OpenJobs)
	}
}

func TestFindOrCreateByEmail(t *testing.T) {
	svc, gdb, _ := setupServices(t)
	ctx := context.Background()
	createUser(t, gdb, "clara", models.RoleClient)

	u, err := svc.Users.FindOrCreateByEmail(ctx, " Clara@Example.com ", "Clara", "Smith")
	if err != nil {
		t.Fatalf("FindOrCreateByEmail failed: %v", err)
	}
	if u.Username != "clara2" {
		t.Errorf("expected a fresh username clara2, got %q", u.Username)
	}
	if u.Role != models.RoleClient || u.Email == nil || *u.Email != "clara@example.com" {
		t.Errorf("unexpected user %+v", u)
	}

	again, err := svc.Users.FindOrCreateByEmail(ctx, "clara@example.com", "", "")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if again.ID != u.ID {
		t.Error("the same email should resolve to the same user")
	}
}

func TestDashboardLogsFailedCounts(t *testing.T) {
	svc, gdb, _ := setupServices(t)
	ctx := context.Background()
	freelancer := createUser(t, gdb, "felix", models.RoleFreelancer)

	if err := gdb.Migrator().DropTable(&models.Message{}, &models.Review{}); err != nil {
		t.Fatalf("drop tables: %v", err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	d, err := svc.Users.Dashboard(ctx, freelancer.UserID)
	if err != nil {
		t.Fatalf("Dashboard should still answer, got %v", err)
	}
	if d.Reviews != 0 || d.InboxMessages != 0 {
		t.Errorf("failed counts should read as zero, got %d and %d", d.Reviews, d.InboxMessages)
	}
	out := buf.String()
	for _, want := range []string{"counting reviews", "counting inbox messages"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected a log line about %q, got:\n%s", want, out)
		}
	}
}
