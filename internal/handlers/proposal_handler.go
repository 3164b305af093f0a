package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
)

type ProposalHandler struct {
	Proposals *marketplace.ProposalService
}

func NewProposalHandler(proposals *marketplace.ProposalService) *ProposalHandler {
	return &ProposalHandler{Proposals: proposals}
}

func (h *ProposalHandler) Routes(r fiber.Router) {
	g := r.Group("/proposals")
	g.Get("/", h.ListMine)
	g.Post("/", h.Create)
	g.Get("/:id", h.Get)
	g.Patch("/:id/status", h.UpdateStatus)
	g.Delete("/:id", h.Delete)
}

type ProposalReq struct {
	JobID       string           `json:"jobId"`
	Price       *decimal.Decimal `json:"price"`
	Description string           `json:"description"`
}

func (h *ProposalHandler) Create(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}

	var req ProposalReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		errs.Add("jobId", "A valid job id is required")
	}
	if req.Price != nil && req.Price.IsNegative() {
		errs.Add("price", "Price cannot be negative")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	p, err := h.Proposals.Create(c.UserContext(), actor, marketplace.ProposalInput{
		JobID:       jobID,
		Price:       req.Price,
		Description: req.Description,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, p)
}

// ListMine lists the proposals placed by the caller.
func (h *ProposalHandler) ListMine(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	proposals, err := h.Proposals.ListByFreelancer(c.UserContext(), actor.UserID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, proposals)
}

func (h *ProposalHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", "Proposal")
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Proposals.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, p)
}

func (h *ProposalHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Proposal")
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

	p, err := h.Proposals.UpdateStatus(c.UserContext(), actor, id, models.ProposalStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, p)
}

func (h *ProposalHandler) Delete(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Proposal")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Proposals.Delete(c.UserContext(), actor, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Proposal deleted",
	})
}
