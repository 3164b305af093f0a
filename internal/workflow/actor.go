package workflow

import (
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
)

// Actor is the verified caller of an operation, as supplied by the auth layer.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Owns reports whether the actor is one of the given users or an admin.
func (a Actor) Owns(ids ...uuid.UUID) bool {
	if a.IsAdmin() {
		return true
	}
	for _, id := range ids {
		if id == a.UserID {
			return true
		}
	}
	return false
}

func (a Actor) RequireRole(entity string, role models.Role) error {
	if a.Role != role {
		return RoleMismatch(entity, "%s must be made by a user with role %s, caller %s has role %s", entity, role, a.Username, a.Role)
	}
	return nil
}
