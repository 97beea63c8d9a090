// Package middleware provides the fiber middleware for merchant and
// admin authentication.
package middleware

import (
	"strings"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/utils"
	"github.com/mourinha112/zucropay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuthMiddleware struct {
	merchants repositories.MerchantRepository
}

func NewAuthMiddleware(merchants repositories.MerchantRepository) *AuthMiddleware {
	return &AuthMiddleware{merchants: merchants}
}

// Handler validates the bearer token and stores the merchant claims in
// the request context. Stale tokens (version bumped by logout or a
// password change) are rejected.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	_, claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return response.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	merchant, err := m.merchants.GetByID(claims.MerchantID)
	if err != nil {
		return response.Error(c, fiber.StatusUnauthorized, "unknown merchant")
	}
	if merchant.TokenVersion != claims.TokenVersion {
		return response.Error(c, fiber.StatusUnauthorized, "token revoked")
	}
	if merchant.Status == models.MerchantStatusBlocked {
		return response.Forbidden(c)
	}

	c.Locals("claims", claims)
	return c.Next()
}

// AdminOnly allows only admin-role tokens through.
func AdminOnly(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.MerchantClaims)
	if !ok || !claims.IsAdmin() {
		return response.Forbidden(c)
	}
	return c.Next()
}
