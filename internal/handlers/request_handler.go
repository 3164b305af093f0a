package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
)

type RequestHandler struct {
	Requests *marketplace.RequestService
}

func NewRequestHandler(requests *marketplace.RequestService) *RequestHandler {
	return &RequestHandler{Requests: requests}
}

func (h *RequestHandler) Routes(r fiber.Router) {
	g := r.Group("/requests")
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Update)
	g.Patch("/:id/status", h.UpdateStatus)
	g.Delete("/:id", h.Delete)
}

type RequestReq struct {
	Freelancer  string           `json:"freelancer"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Skills      []string         `json:"skills"`
	Price       *decimal.Decimal `json:"price"`
	StartDate   string           `json:"startDate"`
	DueDate     string           `json:"dueDate"`
}

func (h *RequestHandler) Create(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}

	var req RequestReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	in := marketplace.RequestInput{Skills: req.Skills}
	if id, err := uuid.Parse(req.Freelancer); err != nil {
		errs.Add("freelancer", "A valid freelancer id is required")
	} else {
		in.FreelancerID = id
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		errs.Add("title", "Title is required")
	} else {
		in.Title = *req.Title
	}
	if req.Description == nil || strings.TrimSpace(*req.Description) == "" {
		errs.Add("description", "Description is required")
	} else {
		in.Description = *req.Description
	}
	if req.Price == nil {
		errs.Add("price", "Price is required")
	} else {
		in.Price = *req.Price
	}
	in.StartDate = parseDate(errs, "startDate", req.StartDate)
	in.DueDate = parseDate(errs, "dueDate", req.DueDate)
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	r, err := h.Requests.Create(c.UserContext(), actor, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, r)
}

// List returns the requests the caller sent or received. Admins may filter
// by any party.
func (h *RequestHandler) List(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}

	f := marketplace.RequestFilter{Status: models.RequestStatus(c.Query("status"))}
	if f.ClientID, err = queryUUID(c, "client"); err != nil {
		return fail(c, err)
	}
	if f.FreelancerID, err = queryUUID(c, "freelancer"); err != nil {
		return fail(c, err)
	}
	if !actor.IsAdmin() {
		uid := actor.UserID
		switch actor.Role {
		case models.RoleClient:
			f.ClientID = &uid
		case models.RoleFreelancer:
			f.FreelancerID = &uid
		}
	}

	requests, err := h.Requests.List(c.UserContext(), f)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, requests)
}

func (h *RequestHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", "Request")
	if err != nil {
		return fail(c, err)
	}
	r, err := h.Requests.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, r)
}

func (h *RequestHandler) Update(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Request")
	if err != nil {
		return fail(c, err)
	}

	var req RequestReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	in := marketplace.RequestUpdate{
		Title:       req.Title,
		Description: req.Description,
		Skills:      req.Skills,
		Price:       req.Price,
		StartDate:   parseDate(errs, "startDate", req.StartDate),
		DueDate:     parseDate(errs, "dueDate", req.DueDate),
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	r, err := h.Requests.Update(c.UserContext(), actor, id, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, r)
}

func (h *RequestHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Request")
	if err != nil {
		return fail(c, err)
	}

	var req StatusReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	r, err := h.Requests.UpdateStatus(c.UserContext(), actor, id, models.RequestStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, r)
}

func (h *RequestHandler) Delete(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Request")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Requests.Delete(c.UserContext(), actor, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Request deleted",
	})
}
