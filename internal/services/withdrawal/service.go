// Package withdrawal handles merchant payout requests against the
// available balance.
package withdrawal

import (
	"context"
	"errors"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/providers/asaas"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/ledger"

	"github.com/google/uuid"
)

// TransferAPI initiates PIX payouts with the provider.
type TransferAPI interface {
	CreateTransfer(ctx context.Context, value float64, pixKey string) (*asaas.Transfer, error)
}

// DefaultFee is the flat fee charged per withdrawal.
const DefaultFee = 3.50

// MinimumAmount is the smallest withdrawal the platform processes.
const MinimumAmount = 10.00

var (
	ErrBelowMinimum       = errors.New("withdrawal below the minimum amount")
	ErrNotPending         = errors.New("withdrawal is not pending")
	ErrNoPixKey           = errors.New("merchant has no pix key configured")
	ErrPayoutsUnavailable = errors.New("payout provider is not configured")
)

type Service struct {
	store     repositories.Store
	ledger    *ledger.Service
	transfers TransferAPI
	fee       float64
}

// NewService builds the withdrawal service. transfers may be nil when
// the payout provider is not configured; Approve then fails with
// ErrPayoutsUnavailable while Request and Reject keep working.
func NewService(store repositories.Store, ledgerSvc *ledger.Service, transfers TransferAPI) *Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	return &Service{store: store, ledger: ledgerSvc, transfers: transfers, fee: DefaultFee}
}

// Request debits amount plus the fee from the merchant's available
// balance and records a pending withdrawal entry. The entry completes
// when the provider's transfer-finished webhook arrives, or fails if
// an administrator rejects it.
func (s *Service) Request(ctx context.Context, merchantID uint, amount float64) (*models.Transaction, error) {
	if amount < MinimumAmount {
		return nil, ErrBelowMinimum
	}

	reference := "WD-" + uuid.NewString()
	var entry *models.Transaction

	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		if err := ledger.DebitTx(tx, merchantID, amount+s.fee); err != nil {
			return err
		}
		var err error
		entry, err = ledger.WriteWithdrawalTx(tx, merchantID, amount, s.fee, reference)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.InvalidateMerchant(ctx, merchantID)
	return entry, nil
}

// Approve initiates the provider payout for a pending withdrawal and
// swaps the entry's reference for the provider transfer id, so the
// transfer-finished webhook can complete it (admin operation).
func (s *Service) Approve(ctx context.Context, withdrawalID uint) (*asaas.Transfer, error) {
	if s.transfers == nil {
		return nil, ErrPayoutsUnavailable
	}
	entry, err := s.store.Transactions().GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	if entry.Type != models.TransactionTypeWithdrawalRequest || entry.Status != models.TransactionStatusPending {
		return nil, ErrNotPending
	}

	merchant, err := s.store.Merchants().GetByID(entry.MerchantID)
	if err != nil {
		return nil, err
	}
	if merchant.PixKey == "" {
		return nil, ErrNoPixKey
	}

	transfer, err := s.transfers.CreateTransfer(ctx, -entry.Amount, merchant.PixKey)
	if err != nil {
		return nil, err
	}
	if err := s.store.Transactions().UpdatePendingReference(entry.ID, transfer.ID); err != nil {
		return nil, err
	}
	return transfer, nil
}

// Reject fails a pending withdrawal and returns the debited funds,
// fee included (admin operation).
func (s *Service) Reject(ctx context.Context, withdrawalID uint) error {
	entry, err := s.store.Transactions().GetByID(withdrawalID)
	if err != nil {
		return err
	}
	if entry.Type != models.TransactionTypeWithdrawalRequest || entry.Status != models.TransactionStatusPending {
		return ErrNotPending
	}

	amount := -entry.Amount
	refund := amount + s.fee

	err = s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		if err := tx.Transactions().FailPending(entry.ID); err != nil {
			return err
		}
		return ledger.CreditTx(tx, entry.MerchantID, refund, 0)
	})
	if err != nil {
		return err
	}

	s.ledger.InvalidateMerchant(ctx, entry.MerchantID)
	return nil
}

// ListPending returns withdrawal requests waiting for the provider
// transfer (admin operation is served from the transaction ledger).
func (s *Service) ListPending(merchantID uint, limit, offset int) ([]models.Transaction, error) {
	txns, err := s.store.Transactions().ListByMerchant(merchantID, limit, offset)
	if err != nil {
		return nil, err
	}
	pending := txns[:0]
	for _, t := range txns {
		if t.Type == models.TransactionTypeWithdrawalRequest && t.Status == models.TransactionStatusPending {
			pending = append(pending, t)
		}
	}
	return pending, nil
}
