package models

import (
	"time"
)

// Merchant statuses
const (
	MerchantStatusPending  = "pending_approval"
	MerchantStatusActive   = "active"
	MerchantStatusRejected = "rejected"
	MerchantStatusBlocked  = "blocked"
)

// Merchant is the platform account that receives settled funds.
// Balance and ReservedBalance are mutated only through the ledger
// service; handlers never write these fields directly.
type Merchant struct {
	ID           uint   `gorm:"primarykey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null"`
	Document     string // CPF/CNPJ
	Status       string `gorm:"default:'pending_approval'"`
	Role         string `gorm:"default:'merchant'"`
	TokenVersion int    `gorm:"default:0"`

	// Funds available for withdrawal. Never negative.
	Balance float64 `gorm:"default:0"`
	// Funds held against chargebacks until reserves mature. Never negative.
	ReservedBalance float64 `gorm:"default:0"`

	// Destination for PIX payouts.
	PixKey string

	// Merchant-configured outbound webhook endpoint.
	WebhookURL           string
	WebhookSecret        string `json:"-"`
	WebhookFailCount     int    `gorm:"default:0"`
	WebhookLastFailureAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomRate holds per-merchant fee overrides set by an administrator.
// Nil fields fall back to the platform defaults per field, so a partial
// override (only PixRate set, say) still uses defaults for the rest.
type CustomRate struct {
	ID         uint `gorm:"primarykey"`
	MerchantID uint `gorm:"uniqueIndex;not null"`

	PixRate        *float64 // percent, e.g. 5.99
	CardRate       *float64
	BoletoRate     *float64
	FixedFee       *float64 // flat fee for PIX/boleto
	InstallmentFee *float64 // percent per installment for card

	CreatedAt time.Time
	UpdatedAt time.Time
}
