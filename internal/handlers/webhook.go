package handlers

import (
	"os"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/services/settlement"
	"github.com/mourinha112/zucropay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives provider notifications. Settlement outcomes
// never leak back to the provider: a delivery we cannot process is
// acknowledged anyway and left unprocessed in the webhook log for
// manual replay, so the provider does not retry forever.
type WebhookHandler struct {
	orchestrator *settlement.Orchestrator
}

func NewWebhookHandler(orchestrator *settlement.Orchestrator) *WebhookHandler {
	return &WebhookHandler{orchestrator: orchestrator}
}

// Asaas handles POST /webhooks/asaas. Asaas sends the token we
// configured on the webhook back in the asaas-access-token header.
func (h *WebhookHandler) Asaas(c *fiber.Ctx) error {
	if expected := os.Getenv("ASAAS_WEBHOOK_TOKEN"); expected != "" {
		if c.Get("asaas-access-token") != expected {
			return response.Error(c, fiber.StatusUnauthorized, "invalid webhook token")
		}
	}
	return h.handle(c, models.ProviderAsaas)
}

// EfiBank handles POST /webhooks/efibank.
func (h *WebhookHandler) EfiBank(c *fiber.Ctx) error {
	return h.handle(c, models.ProviderEfiBank)
}

func (h *WebhookHandler) handle(c *fiber.Ctx, provider string) error {
	payload := make([]byte, len(c.Body()))
	copy(payload, c.Body())

	result := h.orchestrator.Handle(c.Context(), provider, payload)

	return response.Success(c, "received", fiber.Map{
		"log_id":   result.LogID,
		"outcomes": result.Outcomes,
	})
}
