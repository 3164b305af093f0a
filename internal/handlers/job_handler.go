package handlers

import (
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
)

type JobHandler struct {
	Jobs *marketplace.JobService
}

func NewJobHandler(jobs *marketplace.JobService) *JobHandler {
	return &JobHandler{Jobs: jobs}
}

func (h *JobHandler) Routes(r fiber.Router) {
	g := r.Group("/jobs")
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Get("/:id", h.Get)
	g.Put("/:id", h.Update)
	g.Patch("/:id/status", h.UpdateStatus)
	g.Delete("/:id", h.Delete)
	g.Get("/:id/proposals", h.Proposals)
}

// JobReq is the body of job create and update. On update, absent fields are
// left untouched.
type JobReq struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Skills      []string         `json:"skills"`
	Price       *decimal.Decimal `json:"price"`
	StartDate   string           `json:"startDate"`
	DueDate     string           `json:"dueDate"`

	// update only
	Status     *string `json:"status"`
	Freelancer *string `json:"freelancer"` // username whose proposal gets accepted
}

type StatusReq struct {
	Status string `json:"status"`
}

func (r *StatusReq) validate() FieldErrors {
	errs := FieldErrors{}
	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		errs.Add("status", "Status is required")
	}
	return errs
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}

	var req JobReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	in := marketplace.JobInput{Skills: req.Skills}
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

	job, err := h.Jobs.Create(c.UserContext(), actor, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, job)
}

func (h *JobHandler) List(c *fiber.Ctx) error {
	clientID, err := queryUUID(c, "client")
	if err != nil {
		return fail(c, err)
	}
	freelancerID, err := queryUUID(c, "freelancer")
	if err != nil {
		return fail(c, err)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	jobs, total, err := h.Jobs.List(c.UserContext(), marketplace.JobFilter{
		Status:       models.JobStatus(c.Query("status")),
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    jobs,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", "Job")
	if err != nil {
		return fail(c, err)
	}
	job, err := h.Jobs.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, job)
}

func (h *JobHandler) Proposals(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", "Job")
	if err != nil {
		return fail(c, err)
	}
	proposals, err := h.Jobs.Proposals(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, proposals)
}

func (h *JobHandler) Update(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Job")
	if err != nil {
		return fail(c, err)
	}

	var req JobReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	in := marketplace.JobUpdate{
		Title:       req.Title,
		Description: req.Description,
		Skills:      req.Skills,
		Price:       req.Price,
		StartDate:   parseDate(errs, "startDate", req.StartDate),
		DueDate:     parseDate(errs, "dueDate", req.DueDate),
	}
	if req.Status != nil {
		st := models.JobStatus(strings.TrimSpace(*req.Status))
		in.Status = &st
	}
	if req.Freelancer != nil {
		name := strings.TrimSpace(*req.Freelancer)
		if name == "" {
			errs.Add("freelancer", "Freelancer username cannot be empty")
		}
		in.FreelancerUsername = &name
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	job, err := h.Jobs.Update(c.UserContext(), actor, id, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, job)
}

func (h *JobHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Job")
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

	job, err := h.Jobs.UpdateStatus(c.UserContext(), actor, id, models.JobStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, job)
}

func (h *JobHandler) Delete(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Job")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Jobs.Delete(c.UserContext(), actor, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Job deleted",
	})
}
