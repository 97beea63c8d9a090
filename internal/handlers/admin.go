package handlers

import (
	"errors"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/merchant"
	"github.com/mourinha112/zucropay-sub000/internal/services/reserve"
	"github.com/mourinha112/zucropay-sub000/internal/services/settlement"
	"github.com/mourinha112/zucropay-sub000/internal/services/statement"
	"github.com/mourinha112/zucropay-sub000/internal/services/withdrawal"
	"github.com/mourinha112/zucropay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler groups the back-office operations: merchant approval,
// rate overrides, reconciliation and withdrawal review.
type AdminHandler struct {
	merchantService   *merchant.Service
	withdrawalService *withdrawal.Service
	statementService  *statement.Service
	orchestrator      *settlement.Orchestrator
	tracker           *reserve.Tracker
}

func NewAdminHandler(
	merchantService *merchant.Service,
	withdrawalService *withdrawal.Service,
	statementService *statement.Service,
	orchestrator *settlement.Orchestrator,
	tracker *reserve.Tracker,
) *AdminHandler {
	return &AdminHandler{
		merchantService:   merchantService,
		withdrawalService: withdrawalService,
		statementService:  statementService,
		orchestrator:      orchestrator,
		tracker:           tracker,
	}
}

func (h *AdminHandler) ListPendingMerchants(c *fiber.Ctx) error {
	merchants, err := h.merchantService.ListPending()
	if err != nil {
		return response.ServerError(c, "failed to list merchants")
	}
	return response.Success(c, "pending merchants", fiber.Map{"merchants": merchants})
}

func (h *AdminHandler) ApproveMerchant(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid merchant id")
	}
	if err := h.merchantService.Approve(c.Context(), uint(id)); err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return response.NotFound(c, "merchant not found")
		}
		return response.ServerError(c, "failed to approve merchant")
	}
	return response.Success(c, "merchant approved", nil)
}

func (h *AdminHandler) RejectMerchant(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid merchant id")
	}
	if err := h.merchantService.Reject(c.Context(), uint(id)); err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return response.NotFound(c, "merchant not found")
		}
		return response.ServerError(c, "failed to reject merchant")
	}
	return response.Success(c, "merchant rejected", nil)
}

func (h *AdminHandler) SetCustomRate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid merchant id")
	}

	var input merchant.RateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	rate, err := h.merchantService.SetCustomRate(c.Context(), uint(id), input)
	if err != nil {
		return response.ServerError(c, "failed to set custom rate")
	}
	return response.Success(c, "custom rate saved", fiber.Map{"rate": rate})
}

func (h *AdminHandler) GetCustomRate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid merchant id")
	}

	rate, err := h.merchantService.GetCustomRate(uint(id))
	if err != nil {
		return response.ServerError(c, "failed to load custom rate")
	}
	if rate == nil {
		return response.Success(c, "merchant uses default rates", nil)
	}
	return response.Success(c, "custom rate", fiber.Map{"rate": rate})
}

// UnprocessedWebhooks lists the manual reconciliation queue.
func (h *AdminHandler) UnprocessedWebhooks(c *fiber.Ctx) error {
	limit, _ := pagination(c)
	logs, err := h.statementService.UnprocessedWebhooks(limit)
	if err != nil {
		return response.ServerError(c, "failed to list webhook logs")
	}
	return response.Success(c, "unprocessed webhooks", fiber.Map{"logs": logs})
}

// ReplayWebhook reprocesses one logged delivery. Safe to call on rows
// that partially settled; duplicate events skip on the idempotency
// guard.
func (h *AdminHandler) ReplayWebhook(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid webhook log id")
	}

	result, err := h.orchestrator.Replay(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrWebhookLogNotFound) {
			return response.NotFound(c, "webhook log not found")
		}
		return response.ServerError(c, "replay failed")
	}
	return response.Success(c, "webhook replayed", result)
}

// ApproveWithdrawal sends the PIX payout; the entry stays pending
// until the provider's transfer-finished webhook confirms it.
func (h *AdminHandler) ApproveWithdrawal(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid withdrawal id")
	}
	transfer, err := h.withdrawalService.Approve(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, withdrawal.ErrNotPending) || errors.Is(err, repositories.ErrTxnNotFound):
			return response.Error(c, fiber.StatusConflict, "withdrawal is not pending")
		case errors.Is(err, withdrawal.ErrNoPixKey):
			return response.Error(c, fiber.StatusUnprocessableEntity, "merchant has no pix key configured")
		case errors.Is(err, withdrawal.ErrPayoutsUnavailable):
			return response.Error(c, fiber.StatusBadGateway, "payout provider is not configured")
		}
		return response.ServerError(c, "failed to approve withdrawal")
	}
	return response.Success(c, "payout initiated", fiber.Map{"transfer": transfer})
}

func (h *AdminHandler) RejectWithdrawal(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid withdrawal id")
	}
	if err := h.withdrawalService.Reject(c.Context(), uint(id)); err != nil {
		if errors.Is(err, withdrawal.ErrNotPending) || errors.Is(err, repositories.ErrTxnNotFound) {
			return response.Error(c, fiber.StatusConflict, "withdrawal is not pending")
		}
		return response.ServerError(c, "failed to reject withdrawal")
	}
	return response.Success(c, "withdrawal rejected and refunded", nil)
}

// RunReserveSweep releases matured reserves on demand, outside the
// scheduled sweep.
func (h *AdminHandler) RunReserveSweep(c *fiber.Ctx) error {
	result := h.tracker.ReleaseMatured(c.Context(), time.Now())
	return response.Success(c, "reserve sweep finished", result)
}
