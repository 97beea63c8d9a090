package handlers

import (
	"errors"

	"github.com/mourinha112/zucropay-sub000/internal/services/charge"
	"github.com/mourinha112/zucropay-sub000/internal/services/paymentlink"
	"github.com/mourinha112/zucropay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type PaymentLinkHandler struct {
	linkService   *paymentlink.Service
	chargeService *charge.Service
}

func NewPaymentLinkHandler(linkService *paymentlink.Service, chargeService *charge.Service) *PaymentLinkHandler {
	return &PaymentLinkHandler{
		linkService:   linkService,
		chargeService: chargeService,
	}
}

func (h *PaymentLinkHandler) Create(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input paymentlink.CreateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	link, err := h.linkService.Create(c.Context(), claims.MerchantID, input)
	if err != nil {
		switch {
		case errors.Is(err, paymentlink.ErrInvalidAmount),
			errors.Is(err, paymentlink.ErrInvalidBillingType):
			return response.ValidationError(c, err.Error())
		default:
			return response.ServerError(c, "failed to create payment link")
		}
	}

	return response.Success(c, "payment link created", fiber.Map{"link": link})
}

func (h *PaymentLinkHandler) List(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	links, err := h.linkService.ListByMerchant(claims.MerchantID)
	if err != nil {
		return response.ServerError(c, "failed to list payment links")
	}

	return response.Success(c, "payment links", fiber.Map{"links": links})
}

func (h *PaymentLinkHandler) Deactivate(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	linkID, err := c.ParamsInt("id")
	if err != nil || linkID <= 0 {
		return response.BadRequest(c, "invalid link id")
	}

	if err := h.linkService.Deactivate(c.Context(), claims.MerchantID, uint(linkID)); err != nil {
		if errors.Is(err, paymentlink.ErrNotOwner) {
			return response.Forbidden(c)
		}
		return response.NotFound(c, "payment link not found")
	}

	return response.Success(c, "payment link deactivated", nil)
}

// PublicGet serves the checkout page data for GET /pay/:slug. No auth:
// this is what the paying customer loads.
func (h *PaymentLinkHandler) PublicGet(c *fiber.Ctx) error {
	link, err := h.linkService.GetActiveBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return response.NotFound(c, "payment link not found")
	}

	return response.Success(c, "payment link", fiber.Map{
		"name":             link.Name,
		"description":      link.Description,
		"amount":           link.Amount,
		"billing_type":     link.BillingType,
		"max_installments": link.MaxInstallments,
		"slug":             link.Slug,
	})
}

// PublicPay creates the charge for POST /pay/:slug. The link dictates
// amount and billing type; the customer only supplies identification
// and, for card, the card data.
func (h *PaymentLinkHandler) PublicPay(c *fiber.Ctx) error {
	link, err := h.linkService.GetActiveBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return response.NotFound(c, "payment link not found")
	}

	var input charge.CreateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.chargeService.CreateFromLink(c.Context(), link, input)
	if err != nil {
		switch {
		case errors.Is(err, charge.ErrTooManyInstallments):
			return response.ValidationError(c, err.Error())
		case errors.Is(err, charge.ErrProviderUnavailable):
			return response.Error(c, fiber.StatusBadGateway, "payment provider unavailable")
		default:
			return response.ServerError(c, "failed to create charge")
		}
	}

	return response.Success(c, "charge created", result)
}
