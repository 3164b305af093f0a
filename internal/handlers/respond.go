package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Invalid request body",
	})
}

var kindStatus = map[workflow.Kind]int{
	workflow.KindValidation:        fiber.StatusBadRequest,
	workflow.KindNotFound:          fiber.StatusNotFound,
	workflow.KindDuplicateEntity:   fiber.StatusConflict,
	workflow.KindRoleMismatch:      fiber.StatusForbidden,
	workflow.KindForbidden:         fiber.StatusForbidden,
	workflow.KindInvalidJobState:   fiber.StatusConflict,
	workflow.KindInvalidTransition: fiber.StatusConflict,
	workflow.KindTerminalState:     fiber.StatusLocked,
	workflow.KindInconsistentState: fiber.StatusInternalServerError,
}

// fail renders any error in the API's JSON shape.
func fail(c *fiber.Ctx, err error) error {
	if kind, ok := workflow.KindOf(err); ok {
		status, known := kindStatus[kind]
		if !known {
			status = fiber.StatusInternalServerError
		}
		if kind == workflow.KindInconsistentState {
			log.Printf("[API] %s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
			"error":   kind.String(),
		})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"message": fe.Message,
		})
	}

	log.Printf("[API] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}

// ErrorHandler is the fiber.Config error handler, so errors returned by
// middleware share the handlers' response shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return fail(c, err)
}

func respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func getUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("userId")
	if v == nil {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}

	switch t := v.(type) {
	case uuid.UUID:
		return t, nil
	case string:
		return uuid.Parse(t)
	case []byte:
		return uuid.ParseBytes(t)
	default:
		return uuid.Nil, fmt.Errorf("invalid userId type: %T", v)
	}
}

// getActor builds the verified caller from the locals set by the JWT
// middleware.
func getActor(c *fiber.Ctx) (workflow.Actor, error) {
	uid, err := getUserUUID(c)
	if err != nil {
		return workflow.Actor{}, fiber.ErrUnauthorized
	}
	username, _ := c.Locals("username").(string)
	role, _ := c.Locals("role").(string)
	return workflow.Actor{UserID: uid, Username: username, Role: models.Role(role)}, nil
}

func paramUUID(c *fiber.Ctx, name, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, workflow.Validation(entity, "invalid %s id %q", strings.ToLower(entity), c.Params(name))
	}
	return id, nil
}

func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, workflow.Validation("Query", "invalid %s %q", name, raw)
	}
	return &id, nil
}

// parseDate accepts 2006-01-02 or RFC 3339. Empty input is no date.
func parseDate(errs FieldErrors, field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	errs.Add(field, "Invalid date, use YYYY-MM-DD")
	return nil
}
