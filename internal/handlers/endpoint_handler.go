package handlers

import (
	"github.com/apigate/apigate-backend/internal/middleware"
	"github.com/apigate/apigate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type EndpointHandler struct {
	subscriptionService *services.SubscriptionService
	planService         *services.PlanService
	catalogService      *services.CatalogService
}

func NewEndpointHandler(subscriptionService *services.SubscriptionService, planService *services.PlanService, catalogService *services.CatalogService) *EndpointHandler {
	return &EndpointHandler{
		subscriptionService: subscriptionService,
		planService:         planService,
		catalogService:      catalogService,
	}
}

// ListEndpoints handles GET /endpoints: the upstream endpoints the calling
// user's active plan is entitled to. Entitlement is resolved server-side from
// the subscription, never from anything the client claims.
func (h *EndpointHandler) ListEndpoints(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthenticated(c)
	}

	sub, err := h.subscriptionService.GetActive(userID)
	if err != nil {
		return respondError(c, err)
	}

	plan, err := h.planService.GetPlan(sub.PlanID)
	if err != nil {
		return respondError(c, err)
	}

	endpoints, err := h.catalogService.ResolveEndpoints(plan.Tag)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(endpoints)
}
