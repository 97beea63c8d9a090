package models

import (
	"time"
)

// Billing types accepted by the platform.
const (
	BillingTypePix        = "PIX"
	BillingTypeCreditCard = "CREDIT_CARD"
	BillingTypeBoleto     = "BOLETO"
)

// Payment statuses
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusReceived  = "RECEIVED"
	PaymentStatusOverdue   = "OVERDUE"
	PaymentStatusRefunded  = "REFUNDED"
	PaymentStatusCancelled = "CANCELLED"
)

// Payment providers
const (
	ProviderAsaas   = "asaas"
	ProviderEfiBank = "efibank"
)

// Payment is a charge created against a provider. ProviderID is the
// provider's payment/charge identifier and is unique: webhook
// deliveries are correlated (and deduplicated) through it.
type Payment struct {
	ID            uint   `gorm:"primarykey"`
	Provider      string `gorm:"not null;index:idx_payments_provider_id,unique,priority:1"`
	ProviderID    string `gorm:"not null;index:idx_payments_provider_id,unique,priority:2"`
	MerchantID    uint   `gorm:"not null;index"`
	PaymentLinkID *uint

	GrossValue   float64 `gorm:"not null"`
	BillingType  string  `gorm:"not null"`
	Installments int     `gorm:"default:1"`
	Status       string  `gorm:"not null;default:'PENDING'"`
	CustomerName string
	CustomerDoc  string
	PaidAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentLink is a reusable checkout link for a product or amount.
type PaymentLink struct {
	ID              uint   `gorm:"primarykey"`
	MerchantID      uint   `gorm:"not null;index"`
	Slug            string `gorm:"uniqueIndex;not null"`
	Name            string `gorm:"not null"`
	Description     string
	Amount          float64 `gorm:"not null"`
	BillingType     string  `gorm:"not null"`
	MaxInstallments int     `gorm:"default:1"`
	Active          bool    `gorm:"default:true"`

	// Running totals updated when a linked payment settles.
	ReceivedTotal float64 `gorm:"default:0"`
	ReceivedCount int     `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
