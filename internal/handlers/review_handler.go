package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

type ReviewHandler struct {
	Reviews *marketplace.ReviewService
}

func NewReviewHandler(reviews *marketplace.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

func (h *ReviewHandler) Routes(r fiber.Router) {
	g := r.Group("/reviews")
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Update)
	g.Delete("/:id", h.Delete)
}

type ReviewReq struct {
	Freelancer string  `json:"freelancer"`
	Review     *string `json:"review"`
	Rating     *int    `json:"rating"`
}

func validRating(errs FieldErrors, rating *int) {
	if rating != nil && workflow.ValidateRating(*rating) != nil {
		errs.Add("rating", "Rating must be between 1 and 5")
	}
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}

	var req ReviewReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	freelancerID, err := uuid.Parse(req.Freelancer)
	if err != nil {
		errs.Add("freelancer", "A valid freelancer id is required")
	}
	if req.Review == nil || strings.TrimSpace(*req.Review) == "" {
		errs.Add("review", "Review is required")
	}
	if req.Rating == nil {
		errs.Add("rating", "Rating is required")
	}
	validRating(errs, req.Rating)
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	review, err := h.Reviews.Create(c.UserContext(), actor, marketplace.ReviewInput{
		FreelancerID: freelancerID,
		Review:       *req.Review,
		Rating:       *req.Rating,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, review)
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	var f marketplace.ReviewFilter
	var err error
	if f.FreelancerID, err = queryUUID(c, "freelancer"); err != nil {
		return fail(c, err)
	}
	if f.ClientID, err = queryUUID(c, "client"); err != nil {
		return fail(c, err)
	}

	reviews, err := h.Reviews.List(c.UserContext(), f)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, reviews)
}

func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", "Review")
	if err != nil {
		return fail(c, err)
	}
	review, err := h.Reviews.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, review)
}

func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Review")
	if err != nil {
		return fail(c, err)
	}

	var req ReviewReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	if req.Review != nil && strings.TrimSpace(*req.Review) == "" {
		errs.Add("review", "Review cannot be empty")
	}
	validRating(errs, req.Rating)
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	review, err := h.Reviews.Update(c.UserContext(), actor, id, marketplace.ReviewUpdate{
		Review: req.Review,
		Rating: req.Rating,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, review)
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Review")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Reviews.Delete(c.UserContext(), actor, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Review deleted",
	})
}
