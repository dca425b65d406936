package handlers

import (
	"log/slog"

	"github.com/apigate/apigate-backend/internal/dto"
	"github.com/apigate/apigate-backend/internal/middleware"
	"github.com/apigate/apigate-backend/internal/models"
	"github.com/apigate/apigate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
	tokenService        *services.TokenService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService, tokenService *services.TokenService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		tokenService:        tokenService,
	}
}

// Subscribe handles POST /subscribe. The response returns as soon as the
// subscription row is durable; token minting and email delivery run after,
// best-effort. A mint failure is recoverable later through the admin
// generate-token action, so it never fails the subscribe call.
func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthenticated(c)
	}

	var req dto.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sub, err := h.subscriptionService.Subscribe(userID, req.PlanID, req.BillingType)
	if err != nil {
		return respondError(c, err)
	}

	go func(sub models.Subscription) {
		if _, err := h.tokenService.MintForSubscription(&sub); err != nil {
			slog.Error("token mint after subscribe failed",
				"user_id", sub.UserID.String(), "plan", sub.PlanName, "error", err)
		}
	}(*sub)

	return c.Status(fiber.StatusCreated).JSON(sub)
}

// GetSubscription handles GET /subscription.
func (h *SubscriptionHandler) GetSubscription(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthenticated(c)
	}

	sub, err := h.subscriptionService.GetActive(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// CancelSubscription handles DELETE /subscription.
func (h *SubscriptionHandler) CancelSubscription(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthenticated(c)
	}

	if err := h.subscriptionService.Cancel(userID); err != nil {
		return respondError(c, err)
	}

	go h.syncTokenStatus(userID, "revoked")

	return c.JSON(fiber.Map{"cancelled": true})
}

// AdminTransition handles PUT /users/:userId/subscriptions/:subscriptionId.
func (h *SubscriptionHandler) AdminTransition(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}
	subID, err := uuid.Parse(c.Params("subscriptionId"))
	if err != nil {
		return badRequest(c, "Invalid subscription id")
	}

	var req dto.AdminTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sub, err := h.subscriptionService.AdminTransition(userID, subID, req.Action)
	if err != nil {
		return respondError(c, err)
	}

	// Transitions that change external-facing validity sync the upstream
	// token status, best-effort. The ledger is authoritative either way.
	switch req.Action {
	case "activate":
		go h.syncTokenStatus(userID, "active")
	case "cancel", "deactivate":
		go h.syncTokenStatus(userID, "revoked")
	}

	return c.JSON(sub)
}

// GenerateToken handles POST /users/:userId/generate-token. Unlike subscribe,
// a mint failure here is the operation's result and surfaces to the admin.
func (h *SubscriptionHandler) GenerateToken(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	if _, err := h.tokenService.Regenerate(userID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"delivered": true})
}

func (h *SubscriptionHandler) syncTokenStatus(userID uuid.UUID, status string) {
	if err := h.tokenService.UpdateStatus(userID, status); err != nil {
		slog.Error("upstream token status sync failed",
			"user_id", userID.String(), "status", status, "error", err)
	}
}
