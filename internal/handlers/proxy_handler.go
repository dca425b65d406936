package handlers

import (
	"github.com/apigate/apigate-backend/internal/dto"
	"github.com/apigate/apigate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProxyHandler struct {
	proxyService *services.ProxyService
}

func NewProxyHandler(proxyService *services.ProxyService) *ProxyHandler {
	return &ProxyHandler{proxyService: proxyService}
}

// ExecuteAPI handles POST /execute-api. The envelope from the proxy is always
// returned with HTTP 200; the upstream outcome lives in its status field.
func (h *ProxyHandler) ExecuteAPI(c *fiber.Ctx) error {
	var req dto.ExecuteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Endpoint == "" {
		return badRequest(c, "endpoint is required")
	}

	resp, err := h.proxyService.Execute(&req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
