package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
)

type UserHandler struct {
	Users *marketplace.UserService
}

func NewUserHandler(users *marketplace.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

// Routes mounts the user endpoints. adminOnly guards the listing and the
// account management routes; the service checks the role again.
func (h *UserHandler) Routes(r fiber.Router, adminOnly fiber.Handler) {
	g := r.Group("/users")
	g.Get("/", adminOnly, h.List)
	g.Post("/", adminOnly, h.Create)
	g.Get("/me", h.Me)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Update)
	g.Delete("/:id", adminOnly, h.Delete)
}

type UserReq struct {
	Username  *string  `json:"username"`
	Password  *string  `json:"password"`
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Email     string   `json:"email"`
	Role      *string  `json:"role"`
	Skills    []string `json:"skills"`
	Biography *string  `json:"biography"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	users, err := h.Users.List(c.UserContext(), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, users)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}

	var req UserReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	if strings.TrimSpace(deref(req.Username)) == "" {
		errs.Add("username", "Username is required")
	}
	if strings.TrimSpace(deref(req.Password)) == "" {
		errs.Add("password", "Password is required")
	}
	if !models.Role(deref(req.Role)).Valid() {
		errs.Add("role", "Role must be Client, Freelancer or Admin")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	u, err := h.Users.Create(c.UserContext(), actor, marketplace.UserInput{
		Username:  deref(req.Username),
		Password:  deref(req.Password),
		FirstName: deref(req.FirstName),
		LastName:  deref(req.LastName),
		Email:     req.Email,
		Role:      models.Role(deref(req.Role)),
		Skills:    req.Skills,
		Biography: deref(req.Biography),
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, u)
}

// profile bundles a user with its resolved references and activity summary.
func (h *UserHandler) profile(c *fiber.Ctx, u *models.User) error {
	refs, err := h.Users.References(c.UserContext(), u.ID)
	if err != nil {
		return fail(c, err)
	}
	dash, err := h.Users.Dashboard(c.UserContext(), u.ID)
	if err != nil {
		return fail(c, err)
	}

	log.Printf("[UserProfile] %s | active jobs: %d | pending proposals: %d", u.Username, dash.ActiveJobs, dash.PendingProposals)

	return respond(c, fiber.StatusOK, fiber.Map{
		"user":       u,
		"references": refs,
		"dashboard":  dash,
	})
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	u, err := h.Users.Get(c.UserContext(), actor.UserID)
	if err != nil {
		return fail(c, err)
	}
	return h.profile(c, u)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", "User")
	if err != nil {
		return fail(c, err)
	}
	u, err := h.Users.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return h.profile(c, u)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "User")
	if err != nil {
		return fail(c, err)
	}

	var req UserReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		errs.Add("username", "Username cannot be empty")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	in := marketplace.UserUpdate{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Skills:    req.Skills,
		Biography: req.Biography,
	}
	if req.Role != nil {
		role := models.Role(strings.TrimSpace(*req.Role))
		in.Role = &role
	}

	u, err := h.Users.Update(c.UserContext(), actor, id, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, u)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "User")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Users.Delete(c.UserContext(), actor, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted",
	})
}
