package handlers

import (
	"github.com/apigate/apigate-backend/internal/dto"
	"github.com/apigate/apigate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PlanHandler struct {
	planService *services.PlanService
}

func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// ListPlans handles GET /plans.
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.planService.ListActivePlans()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

// GetPlan handles GET /plans/:id.
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid plan id")
	}

	plan, err := h.planService.GetPlan(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

// CreatePlan handles POST /admin/plans.
func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	var req dto.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.planService.CreatePlan(&req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// UpdatePlan handles PUT /admin/plans/:id.
func (h *PlanHandler) UpdatePlan(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid plan id")
	}

	var req dto.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.planService.UpdatePlan(id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

// DeletePlan handles DELETE /admin/plans/:id.
func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid plan id")
	}

	if err := h.planService.DeletePlan(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
