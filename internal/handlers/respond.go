package handlers

import (
	"errors"

	"github.com/apigate/apigate-backend/internal/dto"
	"github.com/apigate/apigate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// respondError translates service sentinel errors into the uniform error
// envelope. Storage-level constraint violations already arrive here as
// Conflict sentinels; raw driver errors never reach the client.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	kind := dto.KindInternal
	message := "Internal server error"

	switch {
	case errors.Is(err, services.ErrPlanNotFound),
		errors.Is(err, services.ErrSubscriptionNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status, kind, message = fiber.StatusNotFound, dto.KindNotFound, err.Error()

	case errors.Is(err, services.ErrDuplicatePlan),
		errors.Is(err, services.ErrPlanInUse),
		errors.Is(err, services.ErrActiveSubscriptionExists),
		errors.Is(err, services.ErrAlreadyActive),
		errors.Is(err, services.ErrNotActive),
		errors.Is(err, services.ErrEmailTaken):
		status, kind, message = fiber.StatusConflict, dto.KindConflict, err.Error()

	case errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, services.ErrInvalidBillingType),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidRegister):
		status, kind, message = fiber.StatusBadRequest, dto.KindValidation, err.Error()

	case errors.Is(err, services.ErrMissingUserToken),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrNotVerified):
		status, kind, message = fiber.StatusUnauthorized, dto.KindUnauthenticated, err.Error()

	case errors.Is(err, services.ErrUpstreamUnavailable):
		status, kind, message = fiber.StatusBadGateway, dto.KindUpstreamUnavailable, err.Error()
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error: true, Kind: kind, Message: message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Kind: dto.KindValidation, Message: message,
	})
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Kind: dto.KindUnauthenticated, Message: "Unauthorized",
	})
}
