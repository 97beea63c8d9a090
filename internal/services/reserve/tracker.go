// Package reserve manages the time-locked balance reserves: one is
// held per settled payment and released back to the available balance
// by a scheduled sweep once its hold period elapses.
package reserve

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/fees"
	"github.com/mourinha112/zucropay-sub000/internal/services/ledger"
)

// SweepError records one reserve the sweep could not release.
type SweepError struct {
	ReserveID uint   `json:"reserve_id"`
	Reason    string `json:"reason"`
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	ReleasedCount int          `json:"released_count"`
	TotalReleased float64      `json:"total_released"`
	Errors        []SweepError `json:"errors,omitempty"`
}

type Tracker struct {
	store  repositories.Store
	ledger *ledger.Service
}

// NewTracker creates the reserve tracker.
func NewTracker(store repositories.Store, ledgerSvc *ledger.Service) *Tracker {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	return &Tracker{store: store, ledger: ledgerSvc}
}

// HoldTx creates the HELD reserve for a freshly settled payment inside
// the caller's settlement transaction.
func HoldTx(tx repositories.Store, payment *models.Payment, s fees.Settlement, now time.Time) (*models.BalanceReserve, error) {
	reserve := &models.BalanceReserve{
		PaymentID:      payment.ID,
		MerchantID:     payment.MerchantID,
		OriginalAmount: payment.GrossValue,
		ReserveAmount:  s.ReserveAmount,
		Status:         models.ReserveStatusHeld,
		ReleaseDate:    now.Add(models.ReserveHoldPeriod),
	}
	if err := tx.Reserves().Create(reserve); err != nil {
		return nil, err
	}
	return reserve, nil
}

// CancelTx voids the HELD reserve linked to a refunded payment inside
// the caller's transaction: the reserve is flipped to CANCELLED and
// its amount dropped from the reserved balance. A reserve that already
// matured is left alone.
func CancelTx(tx repositories.Store, paymentID uint) error {
	reserve, err := tx.Reserves().GetByPaymentID(paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrReserveNotFound) {
			return nil
		}
		return err
	}
	if err := tx.Reserves().CancelHeld(reserve.ID); err != nil {
		if errors.Is(err, repositories.ErrReserveNotHeld) {
			return nil
		}
		return err
	}
	return ledger.CancelReserveTx(tx, reserve.MerchantID, reserve.ReserveAmount)
}

// ReleaseMatured releases every HELD reserve whose release date has
// passed. Reserves are processed independently: a failure is recorded
// and the sweep moves on. Re-running the sweep is a no-op for rows it
// already released, both through the query filter and the conditional
// status flip.
func (t *Tracker) ReleaseMatured(ctx context.Context, now time.Time) SweepResult {
	var result SweepResult

	matured, err := t.store.Reserves().ListMatured(now)
	if err != nil {
		log.Printf("reserve sweep: listing matured reserves failed: %v", err)
		result.Errors = append(result.Errors, SweepError{Reason: err.Error()})
		return result
	}

	for _, reserve := range matured {
		if err := t.releaseOne(reserve, now); err != nil {
			if errors.Is(err, repositories.ErrReserveNotHeld) {
				// Lost the race to a concurrent sweep; nothing to do.
				continue
			}
			log.Printf("reserve sweep: reserve %d failed: %v", reserve.ID, err)
			result.Errors = append(result.Errors, SweepError{ReserveID: reserve.ID, Reason: err.Error()})
			continue
		}
		result.ReleasedCount++
		result.TotalReleased += reserve.ReserveAmount
		t.ledger.InvalidateMerchant(ctx, reserve.MerchantID)
	}

	return result
}

func (t *Tracker) releaseOne(reserve models.BalanceReserve, now time.Time) error {
	return t.store.ExecuteInTransaction(func(tx repositories.Store) error {
		if err := tx.Reserves().MarkReleased(reserve.ID, now, reserve.ReserveAmount); err != nil {
			return err
		}
		if err := ledger.ReleaseReserveTx(tx, reserve.MerchantID, reserve.ReserveAmount); err != nil {
			return err
		}
		return ledger.WriteReserveReleaseTx(tx, &reserve)
	})
}
