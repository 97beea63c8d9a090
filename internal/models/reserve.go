package models

import (
	"time"
)

// Reserve statuses
const (
	ReserveStatusHeld      = "HELD"
	ReserveStatusReleased  = "RELEASED"
	ReserveStatusCancelled = "CANCELLED"
)

// ReserveHoldPeriod is how long a settlement reserve stays locked
// before the sweep releases it back into the available balance.
const ReserveHoldPeriod = 30 * 24 * time.Hour

// BalanceReserve is the time-locked portion of a settled payment, held
// as a chargeback buffer. One reserve per settled payment. HELD
// transitions to RELEASED exactly once, by the scheduled sweep, or to
// CANCELLED when the payment is refunded before maturity.
type BalanceReserve struct {
	ID         uint `gorm:"primarykey"`
	PaymentID  uint `gorm:"not null;uniqueIndex"`
	MerchantID uint `gorm:"not null;index"`

	// Gross value the reserve percentage was computed from.
	OriginalAmount float64 `gorm:"not null"`
	ReserveAmount  float64 `gorm:"not null"`
	ReleasedAmount float64 `gorm:"default:0"`

	Status      string    `gorm:"not null;default:'HELD';index"`
	ReleaseDate time.Time `gorm:"not null;index"`
	ReleasedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
