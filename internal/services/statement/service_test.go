package statement

import (
	"testing"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntry(t *testing.T, store *memory.Store, merchantID uint, txType string, amount float64, status string) {
	t.Helper()
	require.NoError(t, store.Transactions().Create(&models.Transaction{
		MerchantID: merchantID,
		Type:       txType,
		Amount:     amount,
		Status:     status,
	}))
}

func TestStatementShowsOnlyCompletedEntries(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	svc := NewService(store.Transactions(), store.WebhookLogs())

	seedEntry(t, store, merchant.ID, models.TransactionTypePaymentReceived, 100, models.TransactionStatusCompleted)
	seedEntry(t, store, merchant.ID, models.TransactionTypePlatformFee, -8.49, models.TransactionStatusCompleted)
	seedEntry(t, store, merchant.ID, models.TransactionTypeWithdrawalRequest, -50, models.TransactionStatusPending)
	seedEntry(t, store, merchant.ID, models.TransactionTypeWithdrawalRequest, -20, models.TransactionStatusFailed)

	entries, err := svc.Statement(merchant.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, models.TransactionStatusCompleted, entry.Status)
	}
}

func TestStatementRoundsAmounts(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	svc := NewService(store.Transactions(), store.WebhookLogs())

	seedEntry(t, store, merchant.ID, models.TransactionTypePaymentReceived, 86.9345, models.TransactionStatusCompleted)

	entries, err := svc.Statement(merchant.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 86.93, entries[0].Amount)
}

func TestTotalsAggregatesByType(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	svc := NewService(store.Transactions(), store.WebhookLogs())

	seedEntry(t, store, merchant.ID, models.TransactionTypePaymentReceived, 100, models.TransactionStatusCompleted)
	seedEntry(t, store, merchant.ID, models.TransactionTypePaymentReceived, 200, models.TransactionStatusCompleted)
	seedEntry(t, store, merchant.ID, models.TransactionTypePlatformFee, -8.49, models.TransactionStatusCompleted)
	seedEntry(t, store, merchant.ID, models.TransactionTypeRefund, -100, models.TransactionStatusCompleted)
	seedEntry(t, store, merchant.ID, models.TransactionTypeReserveRelease, 4.5755, models.TransactionStatusCompleted)
	// Pending withdrawals are excluded from totals.
	seedEntry(t, store, merchant.ID, models.TransactionTypeWithdrawalRequest, -50, models.TransactionStatusPending)

	totals, err := svc.Totals(merchant.ID)
	require.NoError(t, err)

	assert.Equal(t, 300.0, totals.Received)
	assert.Equal(t, -8.49, totals.Fees)
	assert.Equal(t, -100.0, totals.Refunds)
	assert.Equal(t, 4.58, totals.Released)
	assert.Equal(t, 0.0, totals.Withdrawn)
}

func TestUnprocessedWebhooksQueue(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Transactions(), store.WebhookLogs())

	require.NoError(t, store.WebhookLogs().Create(&models.WebhookLog{Provider: "asaas", Payload: `{}`}))
	stuck := &models.WebhookLog{Provider: "efibank", Payload: `{}`}
	require.NoError(t, store.WebhookLogs().Create(stuck))

	first, err := store.WebhookLogs().ListUnprocessed(10)
	require.NoError(t, err)
	require.Len(t, first, 2)

	require.NoError(t, store.WebhookLogs().MarkProcessed(first[0].ID))

	queue, err := svc.UnprocessedWebhooks(10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, stuck.ID, queue[0].ID)
}
