package settlement

import (
	"context"
	"testing"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories/memory"
	"github.com/mourinha112/zucropay-sub000/internal/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	events []string
}

func (d *recordingDispatcher) Dispatch(merchantID uint, event string, payload interface{}) {
	d.events = append(d.events, event)
}

// passthroughNormalizer lets tests feed events directly instead of
// going through provider payload parsing.
type passthroughNormalizer struct {
	events []Event
}

func (n passthroughNormalizer) Normalize([]byte) []Event { return n.events }

func newTestOrchestrator(store *memory.Store, events ...Event) (*Orchestrator, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	orch := NewOrchestrator(store, ledger.NewService(store, nil), map[string]Normalizer{
		"test": passthroughNormalizer{events: events},
	}, dispatcher)
	return orch, dispatcher
}

func receivedEvent(providerID string) Event {
	return Event{Kind: EventPaymentReceived, ProviderPaymentID: providerID, RawType: "PAYMENT_RECEIVED"}
}

func TestHandleSettlesPendingPayment(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", Status: models.MerchantStatusActive})
	store.SeedPayment(models.Payment{
		Provider:    "test",
		ProviderID:  "pay_1",
		MerchantID:  merchant.ID,
		GrossValue:  100.00,
		BillingType: models.BillingTypePix,
	})

	orch, dispatcher := newTestOrchestrator(store, receivedEvent("pay_1"))
	result := orch.Handle(context.Background(), "test", []byte(`{"event":"PAYMENT_RECEIVED"}`))

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, StatusSettled, result.Outcomes[0].Status)

	// 5.99% of 100 + 2.50 fixed = 8.49 fee, 5% of the remainder held.
	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 86.9345, m.Balance, 1e-9)
	assert.InDelta(t, 4.5755, m.ReservedBalance, 1e-9)

	p, err := store.Payments().GetByProviderID("test", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusReceived, p.Status)
	require.NotNil(t, p.PaidAt)

	reserve, err := store.Reserves().GetByPaymentID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReserveStatusHeld, reserve.Status)
	assert.InDelta(t, 4.5755, reserve.ReserveAmount, 1e-9)

	// Gross credit plus fee debit, both completed.
	entries, err := store.Transactions().ListCompletedByMerchant(merchant.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var total float64
	for _, entry := range entries {
		total += entry.Amount
	}
	assert.InDelta(t, 91.51, total, 1e-9)

	webhookLog, err := store.WebhookLogs().GetByID(result.LogID)
	require.NoError(t, err)
	assert.True(t, webhookLog.Processed)

	assert.Equal(t, []string{"payment.received"}, dispatcher.events)
}

func TestHandleDuplicateDeliveryCreditsOnce(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	store.SeedPayment(models.Payment{
		Provider:    "test",
		ProviderID:  "pay_1",
		MerchantID:  merchant.ID,
		GrossValue:  100.00,
		BillingType: models.BillingTypePix,
	})

	orch, dispatcher := newTestOrchestrator(store, receivedEvent("pay_1"))

	first := orch.Handle(context.Background(), "test", []byte(`{}`))
	second := orch.Handle(context.Background(), "test", []byte(`{}`))

	assert.Equal(t, StatusSettled, first.Outcomes[0].Status)
	assert.Equal(t, StatusSkipped, second.Outcomes[0].Status)

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 86.9345, m.Balance, 1e-9)
	assert.InDelta(t, 4.5755, m.ReservedBalance, 1e-9)

	// The duplicate must not create a second reserve or ledger pair.
	entries, err := store.Transactions().ListCompletedByMerchant(merchant.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// Both deliveries end up acknowledged.
	for _, logID := range []uint{first.LogID, second.LogID} {
		webhookLog, err := store.WebhookLogs().GetByID(logID)
		require.NoError(t, err)
		assert.True(t, webhookLog.Processed)
	}

	assert.Equal(t, []string{"payment.received"}, dispatcher.events)
}

func TestHandleCustomRate(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	pixRate := 3.5
	store.SeedCustomRate(models.CustomRate{MerchantID: merchant.ID, PixRate: &pixRate})
	store.SeedPayment(models.Payment{
		Provider:    "test",
		ProviderID:  "pay_1",
		MerchantID:  merchant.ID,
		GrossValue:  200.00,
		BillingType: models.BillingTypePix,
	})

	orch, _ := newTestOrchestrator(store, receivedEvent("pay_1"))
	result := orch.Handle(context.Background(), "test", []byte(`{}`))
	require.Equal(t, StatusSettled, result.Outcomes[0].Status)

	// 3.5% of 200 + 2.50 default fixed = 9.50 fee.
	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 180.975, m.Balance, 1e-9)
	assert.InDelta(t, 9.525, m.ReservedBalance, 1e-9)
}

func TestHandleUnknownPaymentSkips(t *testing.T) {
	store := memory.NewStore()
	orch, dispatcher := newTestOrchestrator(store, receivedEvent("pay_missing"))

	result := orch.Handle(context.Background(), "test", []byte(`{}`))

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, StatusSkipped, result.Outcomes[0].Status)

	// Skips are terminal; the log is acknowledged, not queued.
	webhookLog, err := store.WebhookLogs().GetByID(result.LogID)
	require.NoError(t, err)
	assert.True(t, webhookLog.Processed)
	assert.Empty(t, dispatcher.events)
}

func TestHandleUnknownProvider(t *testing.T) {
	store := memory.NewStore()
	orch, _ := newTestOrchestrator(store)

	result := orch.Handle(context.Background(), "nobody", []byte(`{}`))

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, StatusSkipped, result.Outcomes[0].Status)
}

func TestHandleFailureLeavesLogUnprocessed(t *testing.T) {
	store := memory.NewStore()
	// Payment references a merchant that does not exist, so the credit
	// fails mid-transaction.
	store.SeedPayment(models.Payment{
		Provider:    "test",
		ProviderID:  "pay_1",
		MerchantID:  999,
		GrossValue:  50.00,
		BillingType: models.BillingTypePix,
	})

	orch, _ := newTestOrchestrator(store, receivedEvent("pay_1"))
	result := orch.Handle(context.Background(), "test", []byte(`{}`))

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, StatusFailed, result.Outcomes[0].Status)

	// The transaction rolled back: the payment is still pending and
	// can settle on replay.
	p, err := store.Payments().GetByProviderID("test", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, p.Status)

	webhookLog, err := store.WebhookLogs().GetByID(result.LogID)
	require.NoError(t, err)
	assert.False(t, webhookLog.Processed)
	assert.NotEmpty(t, webhookLog.Error)
}

func TestReplaySettlesAfterFix(t *testing.T) {
	store := memory.NewStore()
	store.SeedPayment(models.Payment{
		Provider:    "test",
		ProviderID:  "pay_1",
		MerchantID:  999,
		GrossValue:  100.00,
		BillingType: models.BillingTypePix,
	})

	orch, _ := newTestOrchestrator(store, receivedEvent("pay_1"))
	result := orch.Handle(context.Background(), "test", []byte(`{}`))
	require.Equal(t, StatusFailed, result.Outcomes[0].Status)

	// Reconcile: the missing merchant appears, then the row is replayed.
	store.SeedMerchant(models.Merchant{ID: 999, Email: "late@shop.dev"})

	replayed, err := orch.Replay(context.Background(), result.LogID)
	require.NoError(t, err)
	require.Len(t, replayed.Outcomes, 1)
	assert.Equal(t, StatusSettled, replayed.Outcomes[0].Status)

	webhookLog, err := store.WebhookLogs().GetByID(result.LogID)
	require.NoError(t, err)
	assert.True(t, webhookLog.Processed)

	m, err := store.Merchants().GetByID(999)
	require.NoError(t, err)
	assert.InDelta(t, 86.9345, m.Balance, 1e-9)
}

func TestHandleRefundReversesSettlement(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	store.SeedPayment(models.Payment{
		Provider:    "test",
		ProviderID:  "pay_1",
		MerchantID:  merchant.ID,
		GrossValue:  100.00,
		BillingType: models.BillingTypePix,
	})

	settleOrch, _ := newTestOrchestrator(store, receivedEvent("pay_1"))
	settleOrch.Handle(context.Background(), "test", []byte(`{}`))

	refundOrch, dispatcher := newTestOrchestrator(store, Event{
		Kind: EventPaymentRefunded, ProviderPaymentID: "pay_1", RawType: "PAYMENT_REFUNDED",
	})
	result := refundOrch.Handle(context.Background(), "test", []byte(`{}`))
	require.Equal(t, StatusSettled, result.Outcomes[0].Status)

	p, err := store.Payments().GetByProviderID("test", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, p.Status)

	// The gross reversal exceeds the net balance, so the balance floors
	// at zero and the held reserve is voided rather than matured.
	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, m.Balance, 1e-9)
	assert.InDelta(t, 0, m.ReservedBalance, 1e-9)

	reserve, err := store.Reserves().GetByPaymentID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReserveStatusCancelled, reserve.Status)

	assert.Equal(t, []string{"payment.refunded"}, dispatcher.events)

	// A second refund delivery is a no-op.
	again := refundOrch.Handle(context.Background(), "test", []byte(`{}`))
	assert.Equal(t, StatusSkipped, again.Outcomes[0].Status)
}

func TestHandleRefundBeforeSettlement(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", Balance: 10})
	store.SeedPayment(models.Payment{
		Provider:    "test",
		ProviderID:  "pay_1",
		MerchantID:  merchant.ID,
		GrossValue:  100.00,
		BillingType: models.BillingTypePix,
	})

	orch, _ := newTestOrchestrator(store, Event{
		Kind: EventPaymentRefunded, ProviderPaymentID: "pay_1", RawType: "PAYMENT_REFUNDED",
	})
	result := orch.Handle(context.Background(), "test", []byte(`{}`))
	require.Equal(t, StatusSettled, result.Outcomes[0].Status)

	// Never credited, so nothing is reversed.
	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10, m.Balance, 1e-9)

	p, err := store.Payments().GetByProviderID("test", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, p.Status)
}

func TestHandleOverdue(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	store.SeedPayment(models.Payment{
		Provider:    "test",
		ProviderID:  "pay_1",
		MerchantID:  merchant.ID,
		GrossValue:  40.00,
		BillingType: models.BillingTypeBoleto,
	})

	orch, _ := newTestOrchestrator(store, Event{
		Kind: EventPaymentOverdue, ProviderPaymentID: "pay_1", RawType: "PAYMENT_OVERDUE",
	})
	result := orch.Handle(context.Background(), "test", []byte(`{}`))
	require.Equal(t, StatusSettled, result.Outcomes[0].Status)

	p, err := store.Payments().GetByProviderID("test", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusOverdue, p.Status)

	// Overdue after settlement must not touch the settled status.
	again := orch.Handle(context.Background(), "test", []byte(`{}`))
	assert.Equal(t, StatusSkipped, again.Outcomes[0].Status)
}

func TestHandleTransferFinished(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	require.NoError(t, store.Transactions().Create(&models.Transaction{
		MerchantID: merchant.ID,
		Type:       models.TransactionTypeWithdrawalRequest,
		Amount:     -50,
		Status:     models.TransactionStatusPending,
		Reference:  "tr_1",
	}))

	orch, _ := newTestOrchestrator(store, Event{
		Kind: EventTransferFinished, TransferID: "tr_1", RawType: "TRANSFER_DONE",
	})
	result := orch.Handle(context.Background(), "test", []byte(`{}`))
	require.Equal(t, StatusSettled, result.Outcomes[0].Status)

	completed, err := store.Transactions().ListCompletedByMerchant(merchant.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "tr_1", completed[0].Reference)

	// Redelivery finds no pending entry.
	again := orch.Handle(context.Background(), "test", []byte(`{}`))
	assert.Equal(t, StatusSkipped, again.Outcomes[0].Status)
}

func TestHandleLinkedPaymentBumpsLinkTotals(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	link := store.SeedLink(models.PaymentLink{
		MerchantID:  merchant.ID,
		Slug:        "coffee",
		Name:        "Coffee",
		Amount:      25.00,
		BillingType: models.BillingTypePix,
		Active:      true,
	})
	store.SeedPayment(models.Payment{
		Provider:      "test",
		ProviderID:    "pay_1",
		MerchantID:    merchant.ID,
		PaymentLinkID: &link.ID,
		GrossValue:    25.00,
		BillingType:   models.BillingTypePix,
	})

	orch, _ := newTestOrchestrator(store, receivedEvent("pay_1"))
	result := orch.Handle(context.Background(), "test", []byte(`{}`))
	require.Equal(t, StatusSettled, result.Outcomes[0].Status)

	updated, err := store.PaymentLinks().GetByID(link.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReceivedCount)
	assert.InDelta(t, 25.00, updated.ReceivedTotal, 1e-9)
}

func TestPeekEventType(t *testing.T) {
	assert.Equal(t, "PAYMENT_RECEIVED", peekEventType([]byte(`{"event":"PAYMENT_RECEIVED"}`)))
	assert.Equal(t, "cobranca_paga", peekEventType([]byte(`{"evento":"cobranca_paga"}`)))
	assert.Equal(t, "", peekEventType([]byte(`not json`)))
}
