package ledger

import (
	"context"
	"testing"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/repositories/memory"
	"github.com/mourinha112/zucropay-sub000/internal/services/fees"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settlementFor(gross, fee float64) fees.Settlement {
	after := gross - fee
	reserve := after * 0.05
	return fees.Settlement{
		PlatformFee:    fee,
		ValueAfterFees: after,
		ReserveAmount:  reserve,
		NetAmount:      after - reserve,
	}
}

func TestApplyCreditSplitsBalances(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	svc := NewService(store, nil)

	require.NoError(t, svc.ApplyCredit(context.Background(), merchant.ID, 86.9345, 4.5755))

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 86.9345, m.Balance, 1e-9)
	assert.InDelta(t, 4.5755, m.ReservedBalance, 1e-9)
}

func TestApplyCreditRejectsNegativeAmounts(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	svc := NewService(store, nil)

	assert.ErrorIs(t, svc.ApplyCredit(context.Background(), merchant.ID, -1, 0), ErrInvalidAmount)
	assert.ErrorIs(t, svc.ApplyCredit(context.Background(), merchant.ID, 1, -1), ErrInvalidAmount)
}

func TestApplyDebitInsufficientBalance(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", Balance: 30})
	svc := NewService(store, nil)

	err := svc.ApplyDebit(context.Background(), merchant.ID, 30.01)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Reserved funds never cover a debit.
	store.SeedMerchant(models.Merchant{ID: merchant.ID, Email: "m@shop.dev", Balance: 30, ReservedBalance: 100})
	err = svc.ApplyDebit(context.Background(), merchant.ID, 50)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, svc.ApplyDebit(context.Background(), merchant.ID, 30))
	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, m.Balance, 1e-9)
}

func TestReverseTxFloorsAtZero(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", Balance: 40})

	err := store.ExecuteInTransaction(func(tx repositories.Store) error {
		return ReverseTx(tx, merchant.ID, 100)
	})
	require.NoError(t, err)

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, m.Balance, 1e-9)
}

func TestReleaseReserveTxMovesFunds(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", Balance: 10, ReservedBalance: 4})

	err := store.ExecuteInTransaction(func(tx repositories.Store) error {
		return ReleaseReserveTx(tx, merchant.ID, 4)
	})
	require.NoError(t, err)

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 14, m.Balance, 1e-9)
	assert.InDelta(t, 0, m.ReservedBalance, 1e-9)
}

func TestWritePaymentReceivedTxBalancesEntries(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	payment := store.SeedPayment(models.Payment{
		Provider: "asaas", ProviderID: "pay_1", MerchantID: merchant.ID,
		GrossValue: 100, BillingType: models.BillingTypePix,
	})

	settled := struct {
		gross, fee float64
	}{100, 8.49}

	err := store.ExecuteInTransaction(func(tx repositories.Store) error {
		return WritePaymentReceivedTx(tx, &payment, settlementFor(settled.gross, settled.fee))
	})
	require.NoError(t, err)

	received, err := store.Transactions().SumCompletedByType(merchant.ID, models.TransactionTypePaymentReceived)
	require.NoError(t, err)
	assert.InDelta(t, 100, received, 1e-9)

	feeTotal, err := store.Transactions().SumCompletedByType(merchant.ID, models.TransactionTypePlatformFee)
	require.NoError(t, err)
	assert.InDelta(t, -8.49, feeTotal, 1e-9)
}
