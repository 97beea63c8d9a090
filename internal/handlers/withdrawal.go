package handlers

import (
	"errors"

	"github.com/mourinha112/zucropay-sub000/internal/services/ledger"
	"github.com/mourinha112/zucropay-sub000/internal/services/withdrawal"
	"github.com/mourinha112/zucropay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WithdrawalHandler struct {
	withdrawalService *withdrawal.Service
}

func NewWithdrawalHandler(withdrawalService *withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

func (h *WithdrawalHandler) Request(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	txn, err := h.withdrawalService.Request(c.Context(), claims.MerchantID, input.Amount)
	if err != nil {
		switch {
		case errors.Is(err, withdrawal.ErrBelowMinimum):
			return response.ValidationError(c, err.Error())
		case errors.Is(err, ledger.ErrInsufficientBalance):
			return response.Error(c, fiber.StatusUnprocessableEntity, "insufficient balance")
		default:
			return response.ServerError(c, "failed to request withdrawal")
		}
	}

	return response.Success(c, "withdrawal requested", fiber.Map{"withdrawal": txn})
}

func (h *WithdrawalHandler) ListPending(c *fiber.Ctx) error {
	claims, err := extractClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	limit, offset := pagination(c)
	pending, err := h.withdrawalService.ListPending(claims.MerchantID, limit, offset)
	if err != nil {
		return response.ServerError(c, "failed to list withdrawals")
	}

	return response.Success(c, "pending withdrawals", fiber.Map{"withdrawals": pending})
}
