package marketplace

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/db"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

type recordedEvent struct {
	UserID uuid.UUID
	Event  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{UserID: userID, Event: event})
}

func (n *recordingNotifier) count(userID uuid.UUID, event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, e := range n.events {
		if e.UserID == userID && e.Event == event {
			total++
		}
	}
	return total
}

func setupTestDB(t *testing.T) *gorm.DB {
	gdb, err := db.Connect("sqlite", filepath.Join(t.TempDir(), "marketplace.db"))
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return gdb
}

func setupServices(t *testing.T) (*Services, *gorm.DB, *recordingNotifier) {
	gdb := setupTestDB(t)
	notifier := &recordingNotifier{}
	return NewServices(gdb, notifier), gdb, notifier
}

// createUser inserts a user directly and returns it as a caller.
func createUser(t *testing.T, gdb *gorm.DB, username string, role models.Role) workflow.Actor {
	t.Helper()
	u := models.User{Username: username, Password: "not-a-real-hash", Role: role, IsActive: true}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return workflow.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
