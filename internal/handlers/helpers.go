package handlers

import (
	"github.com/mourinha112/zucropay-sub000/internal/models"

	"github.com/gofiber/fiber/v2"
)

// extractClaims is a helper to pull the authenticated merchant claims
// set by the auth middleware.
func extractClaims(c *fiber.Ctx) (*models.MerchantClaims, error) {
	claims, ok := c.Locals("claims").(*models.MerchantClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// pagination reads limit/offset query params with sane bounds.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
