package handlers

import (
	"errors"

	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/charge"
	"github.com/mourinha112/zucropay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type ChargeHandler struct {
	chargeService *charge.Service
	payments      repositories.PaymentRepository
}

func NewChargeHandler(chargeService *charge.Service, payments repositories.PaymentRepository) *ChargeHandler {
	return &ChargeHandler{
		chargeService: chargeService,
		payments:      payments,
	}
}

// Create makes a direct charge on behalf of the authenticated merchant
// (API integration path, as opposed to a hosted payment link).
func (h *ChargeHandler) Create(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input charge.CreateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.chargeService.CreateDirect(c.Context(), claims.MerchantID, input)
	if err != nil {
		if errors.Is(err, charge.ErrProviderUnavailable) {
			return response.Error(c, fiber.StatusBadGateway, "payment provider unavailable")
		}
		return response.BadRequest(c, err.Error())
	}

	return response.Success(c, "charge created", result)
}

func (h *ChargeHandler) List(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	limit, offset := pagination(c)
	payments, err := h.payments.ListByMerchant(claims.MerchantID, limit, offset)
	if err != nil {
		return response.ServerError(c, "failed to list payments")
	}

	return response.Success(c, "payments", fiber.Map{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}
