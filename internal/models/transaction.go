package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeDeposit           = "deposit"
	TransactionTypePaymentReceived   = "payment_received"
	TransactionTypePlatformFee       = "platform_fee"
	TransactionTypeWithdrawalRequest = "withdrawal_request"
	TransactionTypeWithdrawalFee     = "withdrawal_fee"
	TransactionTypeRefund            = "refund"
	TransactionTypeReserveRelease    = "reserve_release"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an append-only ledger entry. Amount is signed:
// positive credits the merchant, negative debits. Completed rows are
// never mutated; a pending row moves to completed or failed once.
// Metadata carries enough context (payment ID, reserve ID, fee
// breakdown, provider IDs) to reconstruct the settlement decision.
type Transaction struct {
	ID          uint    `gorm:"primarykey"`
	MerchantID  uint    `gorm:"not null;index"`
	Type        string  `gorm:"not null;index"`
	Amount      float64 `gorm:"not null"`
	Status      string  `gorm:"not null;default:'pending'"`
	Description string
	Reference   string `gorm:"index"` // external reference, e.g. provider transfer ID
	Metadata    JSON   `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
