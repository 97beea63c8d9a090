package reserve

import (
	"context"
	"testing"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/repositories/memory"
	"github.com/mourinha112/zucropay-sub000/internal/services/fees"
	"github.com/mourinha112/zucropay-sub000/internal/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(store *memory.Store) *Tracker {
	return NewTracker(store, ledger.NewService(store, nil))
}

func heldReserve(merchantID uint, amount float64, releaseDate time.Time) models.BalanceReserve {
	return models.BalanceReserve{
		MerchantID:     merchantID,
		OriginalAmount: amount * 20,
		ReserveAmount:  amount,
		Status:         models.ReserveStatusHeld,
		ReleaseDate:    releaseDate,
	}
}

func TestReleaseMaturedMovesFundsToBalance(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", ReservedBalance: 12.50})
	reserve := store.SeedReserve(heldReserve(merchant.ID, 12.50, now.Add(-time.Hour)))

	result := newTestTracker(store).ReleaseMatured(context.Background(), now)

	assert.Equal(t, 1, result.ReleasedCount)
	assert.InDelta(t, 12.50, result.TotalReleased, 1e-9)
	assert.Empty(t, result.Errors)

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.50, m.Balance, 1e-9)
	assert.InDelta(t, 0, m.ReservedBalance, 1e-9)

	released, err := store.Reserves().GetByID(reserve.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReserveStatusReleased, released.Status)
	assert.InDelta(t, 12.50, released.ReleasedAmount, 1e-9)
	require.NotNil(t, released.ReleasedAt)

	// A release_reserve ledger entry documents the move.
	total, err := store.Transactions().SumCompletedByType(merchant.ID, models.TransactionTypeReserveRelease)
	require.NoError(t, err)
	assert.InDelta(t, 12.50, total, 1e-9)
}

func TestReleaseMaturedSkipsImmatureReserves(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", ReservedBalance: 10})

	// One day short of maturity stays held; exactly at maturity releases.
	early := store.SeedReserve(heldReserve(merchant.ID, 5, now.Add(24*time.Hour)))
	due := store.SeedReserve(heldReserve(merchant.ID, 5, now))

	result := newTestTracker(store).ReleaseMatured(context.Background(), now)

	assert.Equal(t, 1, result.ReleasedCount)

	held, err := store.Reserves().GetByID(early.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReserveStatusHeld, held.Status)

	released, err := store.Reserves().GetByID(due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReserveStatusReleased, released.Status)
}

func TestReleaseMaturedIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", ReservedBalance: 8})
	store.SeedReserve(heldReserve(merchant.ID, 8, now.Add(-time.Minute)))

	tracker := newTestTracker(store)
	first := tracker.ReleaseMatured(context.Background(), now)
	second := tracker.ReleaseMatured(context.Background(), now)

	assert.Equal(t, 1, first.ReleasedCount)
	assert.Equal(t, 0, second.ReleasedCount)

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 8, m.Balance, 1e-9)
	assert.InDelta(t, 0, m.ReservedBalance, 1e-9)
}

func TestReleaseMaturedIsolatesFailures(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", ReservedBalance: 5})

	// The orphan reserve points at a missing merchant and must not
	// stop the sweep from releasing the healthy one.
	store.SeedReserve(heldReserve(404, 3, now.Add(-time.Hour)))
	healthy := store.SeedReserve(heldReserve(merchant.ID, 5, now.Add(-time.Hour)))

	result := newTestTracker(store).ReleaseMatured(context.Background(), now)

	assert.Equal(t, 1, result.ReleasedCount)
	assert.InDelta(t, 5, result.TotalReleased, 1e-9)
	require.Len(t, result.Errors, 1)

	released, err := store.Reserves().GetByID(healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReserveStatusReleased, released.Status)
}

func TestHoldTxSetsReleaseDate(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	payment := store.SeedPayment(models.Payment{
		Provider: "asaas", ProviderID: "pay_1", MerchantID: merchant.ID, GrossValue: 100,
	})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var created *models.BalanceReserve
	err := store.ExecuteInTransaction(func(tx repositories.Store) error {
		var txErr error
		created, txErr = HoldTx(tx, &payment, fees.Settlement{PlatformFee: 8.49, ValueAfterFees: 91.51, ReserveAmount: 4.5755, NetAmount: 86.9345}, now)
		return txErr
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReserveStatusHeld, created.Status)
	assert.Equal(t, now.Add(models.ReserveHoldPeriod), created.ReleaseDate)
	assert.InDelta(t, 4.5755, created.ReserveAmount, 1e-9)
	assert.Equal(t, payment.ID, created.PaymentID)
}

func TestCancelTxVoidsHeldReserve(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", ReservedBalance: 7})
	payment := store.SeedPayment(models.Payment{
		Provider: "asaas", ProviderID: "pay_1", MerchantID: merchant.ID, GrossValue: 140,
	})
	reserve := store.SeedReserve(models.BalanceReserve{
		PaymentID:     payment.ID,
		MerchantID:    merchant.ID,
		ReserveAmount: 7,
		Status:        models.ReserveStatusHeld,
		ReleaseDate:   time.Now().Add(models.ReserveHoldPeriod),
	})

	err := store.ExecuteInTransaction(func(tx repositories.Store) error {
		return CancelTx(tx, payment.ID)
	})
	require.NoError(t, err)

	cancelled, err := store.Reserves().GetByID(reserve.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReserveStatusCancelled, cancelled.Status)

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, m.ReservedBalance, 1e-9)
}

func TestCancelTxToleratesMissingReserve(t *testing.T) {
	store := memory.NewStore()
	err := store.ExecuteInTransaction(func(tx repositories.Store) error {
		return CancelTx(tx, 12345)
	})
	assert.NoError(t, err)
}
