package models

import "github.com/golang-jwt/jwt/v5"

// Roles
const (
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

type MerchantClaims struct {
	jwt.RegisteredClaims
	MerchantID   uint   `json:"merchant_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

// IsAdmin reports whether the claims carry the admin role.
func (c *MerchantClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
