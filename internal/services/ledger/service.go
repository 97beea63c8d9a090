// Package ledger owns every mutation of merchant balance fields and
// the append-only transaction log. Settlement, sweep and withdrawal
// paths all funnel through it; nothing else writes balances.
package ledger

import (
	"context"
	"math"

	"github.com/mourinha112/zucropay-sub000/internal/repositories"
)

// Cache invalidates cached merchant reads after a balance change.
type Cache interface {
	InvalidateMerchant(ctx context.Context, id uint) error
}

// NoopCache satisfies Cache when no redis is wired (tests, sweeper).
type NoopCache struct{}

func (NoopCache) InvalidateMerchant(context.Context, uint) error { return nil }

type Service struct {
	store repositories.Store
	cache Cache
}

// NewService creates the ledger service.
func NewService(store repositories.Store, cache Cache) *Service {
	if store == nil {
		panic("store is required")
	}
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{store: store, cache: cache}
}

// ApplyCredit credits netAmount to the available balance and
// reserveAmount to the reserved balance in one atomic step.
func (s *Service) ApplyCredit(ctx context.Context, merchantID uint, netAmount, reserveAmount float64) error {
	if netAmount < 0 || reserveAmount < 0 {
		return ErrInvalidAmount
	}
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		return CreditTx(tx, merchantID, netAmount, reserveAmount)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateMerchant(ctx, merchantID)
	return nil
}

// ApplyDebit removes amount from the available balance, failing when
// the balance would go negative.
func (s *Service) ApplyDebit(ctx context.Context, merchantID uint, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		return DebitTx(tx, merchantID, amount)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateMerchant(ctx, merchantID)
	return nil
}

// InvalidateMerchant exposes cache invalidation to callers that mutate
// balances through the Tx primitives inside their own transaction.
func (s *Service) InvalidateMerchant(ctx context.Context, merchantID uint) {
	s.cache.InvalidateMerchant(ctx, merchantID)
}

// CreditTx is the in-transaction credit primitive. The caller provides
// the transactional store; the merchant row is locked so concurrent
// settlements for the same merchant serialize instead of losing
// updates.
func CreditTx(tx repositories.Store, merchantID uint, netAmount, reserveAmount float64) error {
	if netAmount < 0 || reserveAmount < 0 {
		return ErrInvalidAmount
	}
	m, err := tx.Merchants().GetForUpdate(merchantID)
	if err != nil {
		return err
	}
	m.Balance += netAmount
	m.ReservedBalance += reserveAmount
	return tx.Merchants().Update(m)
}

// DebitTx is the in-transaction debit primitive.
func DebitTx(tx repositories.Store, merchantID uint, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m, err := tx.Merchants().GetForUpdate(merchantID)
	if err != nil {
		return err
	}
	if m.Balance < amount {
		return ErrInsufficientBalance
	}
	m.Balance -= amount
	return tx.Merchants().Update(m)
}

// ReverseTx debits the available balance by amount without the
// insufficient-funds check, used by refunds which may drive a balance
// that was already partially withdrawn to its floor.
func ReverseTx(tx repositories.Store, merchantID uint, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m, err := tx.Merchants().GetForUpdate(merchantID)
	if err != nil {
		return err
	}
	m.Balance = math.Max(0, m.Balance-amount)
	return tx.Merchants().Update(m)
}

// ReleaseReserveTx moves amount from the reserved balance back to the
// available balance. The max(0, ...) floor absorbs drift between the
// reserve rows and the reserved balance instead of underflowing.
func ReleaseReserveTx(tx repositories.Store, merchantID uint, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m, err := tx.Merchants().GetForUpdate(merchantID)
	if err != nil {
		return err
	}
	m.Balance += amount
	m.ReservedBalance = math.Max(0, m.ReservedBalance-amount)
	return tx.Merchants().Update(m)
}

// CancelReserveTx drops amount from the reserved balance without
// crediting it back, used when a refund voids a held reserve.
func CancelReserveTx(tx repositories.Store, merchantID uint, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m, err := tx.Merchants().GetForUpdate(merchantID)
	if err != nil {
		return err
	}
	m.ReservedBalance = math.Max(0, m.ReservedBalance-amount)
	return tx.Merchants().Update(m)
}
