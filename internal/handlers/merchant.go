package handlers

import (
	"strings"

	"github.com/mourinha112/zucropay-sub000/internal/services/merchant"
	"github.com/mourinha112/zucropay-sub000/internal/services/statement"
	"github.com/mourinha112/zucropay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type MerchantHandler struct {
	merchantService  *merchant.Service
	statementService *statement.Service
}

func NewMerchantHandler(merchantService *merchant.Service, statementService *statement.Service) *MerchantHandler {
	return &MerchantHandler{
		merchantService:  merchantService,
		statementService: statementService,
	}
}

func (h *MerchantHandler) Profile(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	m, err := h.merchantService.Get(c.Context(), claims.MerchantID)
	if err != nil {
		return response.NotFound(c, "merchant not found")
	}

	return response.Success(c, "profile", fiber.Map{"merchant": m})
}

func (h *MerchantHandler) Balance(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	summary, err := h.merchantService.BalanceSummary(c.Context(), claims.MerchantID)
	if err != nil {
		return response.ServerError(c, "failed to load balance")
	}

	return response.Success(c, "balance", summary)
}

func (h *MerchantHandler) UpdateWebhook(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if input.URL != "" && !strings.HasPrefix(input.URL, "https://") {
		return response.ValidationError(c, "webhook url must use https")
	}

	if err := h.merchantService.UpdateWebhook(c.Context(), claims.MerchantID, input.URL); err != nil {
		return response.ServerError(c, "failed to update webhook")
	}

	return response.Success(c, "webhook updated", fiber.Map{"url": input.URL})
}

func (h *MerchantHandler) UpdatePixKey(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		PixKey string `json:"pix_key"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if strings.TrimSpace(input.PixKey) == "" {
		return response.ValidationError(c, "pix key is required")
	}

	if err := h.merchantService.UpdatePixKey(c.Context(), claims.MerchantID, strings.TrimSpace(input.PixKey)); err != nil {
		return response.ServerError(c, "failed to update pix key")
	}

	return response.Success(c, "pix key updated", nil)
}

func (h *MerchantHandler) Statement(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	limit, offset := pagination(c)
	entries, err := h.statementService.Statement(claims.MerchantID, limit, offset)
	if err != nil {
		return response.ServerError(c, "failed to load statement")
	}

	return response.Success(c, "statement", fiber.Map{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *MerchantHandler) Totals(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	totals, err := h.statementService.Totals(claims.MerchantID)
	if err != nil {
		return response.ServerError(c, "failed to load totals")
	}

	return response.Success(c, "totals", totals)
}
